package surveillance

import (
	"math"

	"surveillance-core/internal/spatial"
)

type sweepResult struct {
	direction      float64
	sweepDirection int
	sweepIndex     int
	sweepElapsedMs float64
}

// advanceSweep moves the sweep cursor by deltaMs. With relative set, the
// sweep angles are offsets from baseDirection.
func advanceSweep(c CameraRuntimeState, deltaMs float64, relative bool, baseDirection float64) sweepResult {
	dir := c.SweepDirection
	if dir != 1 && dir != -1 {
		dir = 1
	}

	if c.Sweep == nil || len(c.Sweep.Angles) == 0 {
		direction := c.CurrentDirection
		if relative {
			direction = baseDirection
		}
		return sweepResult{
			direction:      spatial.WrapDegrees(direction),
			sweepDirection: dir,
			sweepIndex:     c.SweepIndex,
			sweepElapsedMs: c.SweepElapsedMs,
		}
	}

	angles := c.Sweep.Angles
	count := len(angles)

	if count == 1 {
		absolute := angles[0]
		if relative {
			absolute += baseDirection
		}
		return sweepResult{direction: spatial.WrapDegrees(absolute), sweepDirection: dir}
	}

	index := clampIndex(c.SweepIndex, count)
	elapsed := c.SweepElapsedMs + math.Max(0, finiteOr(deltaMs, 0))
	segment := safeCycleDuration(c.Sweep.CycleDurationMs) / float64(count-1)
	// a full ping-pong cycle returns the cursor to where it started
	if cycle := segment * float64(2*(count-1)); elapsed >= cycle {
		elapsed = math.Mod(elapsed, cycle)
	}

	for elapsed >= segment {
		elapsed -= segment
		next := index + dir
		if next >= count {
			dir = -1
			next = count - 2
		} else if next < 0 {
			dir = 1
			next = 1
		}
		index = clampIndex(next, count)
		// turn around on arrival so the end angle is not held for a segment
		if index == count-1 {
			dir = -1
		} else if index == 0 {
			dir = 1
		}
	}

	next := clampIndex(index+dir, count)
	ratio := spatial.Clamp(elapsed/segment, 0, 1)

	start := angles[index]
	interpolated := start + spatial.ShortestAngleBetween(start, angles[next])*ratio
	if relative {
		interpolated += baseDirection
	}

	return sweepResult{
		direction:      spatial.WrapDegrees(interpolated),
		sweepDirection: dir,
		sweepIndex:     index,
		sweepElapsedMs: elapsed,
	}
}

func (r sweepResult) apply(c CameraRuntimeState) CameraRuntimeState {
	c.CurrentDirection = r.direction
	c.SweepDirection = r.sweepDirection
	c.SweepIndex = r.sweepIndex
	c.SweepElapsedMs = r.sweepElapsedMs
	return c
}

// UpdateStaticOrientation advances a fixed-position camera's sweep.
func UpdateStaticOrientation(c CameraRuntimeState, deltaMs float64) CameraRuntimeState {
	return advanceSweep(c, deltaMs, false, 0).apply(c)
}

// UpdateDroneOrientation moves a drone along its patrol loop and derives its
// facing from the current segment heading plus the relative sweep offset.
// A drone without waypoints behaves like a static camera.
func UpdateDroneOrientation(c CameraRuntimeState, deltaMs float64) CameraRuntimeState {
	if c.PatrolPath == nil || len(c.PatrolPath.Waypoints) == 0 {
		return UpdateStaticOrientation(c, deltaMs)
	}

	waypoints := c.PatrolPath.Waypoints
	count := len(waypoints)
	segment := safeCycleDuration(c.PatrolPath.TravelDurationMs) / float64(count)
	progress := c.PatrolProgressMs + math.Max(0, finiteOr(deltaMs, 0))
	current := wrapWaypoint(c.CurrentWaypointIndex, count)
	next := wrapWaypoint(current+1, count)
	if loop := segment * float64(count); progress >= loop {
		progress = math.Mod(progress, loop)
	}

	for progress >= segment {
		progress -= segment
		current = next
		next = wrapWaypoint(current+1, count)
	}

	from, to := waypoints[current], waypoints[next]
	ratio := spatial.Clamp(progress/segment, 0, 1)

	// coincident waypoints give heading 0
	heading := spatial.HeadingDegrees(from, to)

	c.Position = spatial.LerpPoint(from, to, ratio)
	c.CurrentWaypointIndex = current
	c.PatrolProgressMs = progress

	if c.TrackingPlayer {
		return c
	}
	return advanceSweep(c, deltaMs, true, heading).apply(c)
}

// UpdateOrientation advances a camera by deltaMs. Motion sensors keep their
// orientation. A tracking lock holds the facing; a redirect hack forces it.
func UpdateOrientation(c CameraRuntimeState, deltaMs float64, timestamp int64) CameraRuntimeState {
	switch c.Type {
	case CameraMotionSensor:
		return c
	case CameraDrone:
		c = UpdateDroneOrientation(c, deltaMs)
	default:
		if !c.TrackingPlayer {
			c = UpdateStaticOrientation(c, deltaMs)
		}
	}

	if IsRedirected(c, timestamp) {
		c.CurrentDirection = c.Hack.RedirectDirection
		c.TrackingPlayer = false
	}
	return c
}

func clampIndex(i, count int) int {
	if i < 0 {
		return 0
	}
	if i > count-1 {
		return count - 1
	}
	return i
}

func wrapWaypoint(i, count int) int {
	if count == 0 {
		return 0
	}
	if i < 0 {
		return count - 1
	}
	if i >= count {
		return 0
	}
	return i
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
