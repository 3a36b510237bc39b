package surveillance

import "surveillance-core/internal/world"

// InitializeCameras builds runtime states for a zone's definitions, switched
// on or off for the current time of day.
func InitializeCameras(defs []CameraDefinition, tod world.TimeOfDay) []CameraRuntimeState {
	cameras := make([]CameraRuntimeState, 0, len(defs))
	for _, def := range defs {
		cameras = append(cameras, SetActive(NewRuntimeState(def), ShouldBeActive(def, tod)))
	}
	return cameras
}

// ApplyTimeOfDay switches cameras whose activation phases no longer match the
// current phase. It returns only the cameras that changed and whether any
// camera came online.
func ApplyTimeOfDay(cameras []CameraRuntimeState, tod world.TimeOfDay) ([]CameraRuntimeState, bool) {
	var changed []CameraRuntimeState
	activated := false

	for _, c := range cameras {
		should := ShouldBeActive(c.CameraDefinition, tod)
		if should == c.Active {
			if should || (c.AlarmState == StateDisabled && c.DetectionProgress == 0) {
				continue
			}
		}
		if should {
			activated = true
			progress := c.DetectionProgress
			c = SetActive(c, true)
			c.DetectionProgress = progress
		} else {
			c = SetActive(c, false)
		}
		changed = append(changed, c)
	}
	return changed, activated
}
