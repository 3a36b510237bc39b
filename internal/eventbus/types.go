package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	ZoneID    string                 `json:"zone_id"`
	AreaID    *string                `json:"area_id,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
}

func NewEvent(eventType, source, zoneID string, payload map[string]interface{}) Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		ZoneID:    zoneID,
		Payload:   payload,
	}
}

// WithArea sets the area the event refers to.
func (e Event) WithArea(areaID string) Event {
	if areaID != "" {
		e.AreaID = &areaID
	}
	return e
}

// PayloadFrom converts a struct into an event payload via its JSON form.
func PayloadFrom(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return m, nil
}

// DecodePayload fills v from the event payload.
func (e Event) DecodePayload(v interface{}) error {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}
