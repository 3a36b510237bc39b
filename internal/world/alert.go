package world

import (
	"encoding/json"
	"fmt"
)

// AlertLevel is the ordered alert ladder shared by guards and the global
// alert state. The zero value is AlertIdle and levels compare with < and >.
type AlertLevel int

const (
	AlertIdle AlertLevel = iota
	AlertSuspicious
	AlertInvestigating
	AlertAlarmed
)

var alertLevelNames = [...]string{"idle", "suspicious", "investigating", "alarmed"}

func (l AlertLevel) String() string {
	if l < AlertIdle || l > AlertAlarmed {
		return fmt.Sprintf("alert(%d)", int(l))
	}
	return alertLevelNames[l]
}

// Rank returns the numeric position of the level, clamped into the ladder.
func (l AlertLevel) Rank() int {
	switch {
	case l < AlertIdle:
		return 0
	case l > AlertAlarmed:
		return int(AlertAlarmed)
	default:
		return int(l)
	}
}

// ParseAlertLevel maps a wire name onto the ladder. Unknown names are idle.
func ParseAlertLevel(s string) AlertLevel {
	for i, name := range alertLevelNames {
		if name == s {
			return AlertLevel(i)
		}
	}
	return AlertIdle
}

func (l AlertLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *AlertLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("alert level: %w", err)
	}
	*l = ParseAlertLevel(s)
	return nil
}
