package surveillance

import (
	"context"
	"encoding/json"
	"log"

	"surveillance-core/internal/engine"
	"surveillance-core/internal/escalation"
	"surveillance-core/internal/eventbus"
	"surveillance-core/internal/suspicion"
)

// HUDMessage is what WebSocket clients receive.
type HUDMessage struct {
	Type         string                         `json:"type"`
	Notification *escalation.Notification       `json:"notification,omitempty"`
	Heat         *suspicion.ZoneHeatComputation `json:"heat,omitempty"`
}

// relay fans one tick's results out to Kafka and HUD clients. Publish
// failures are logged; the tick result stands.
func (s *Service) relay(ctx context.Context, zoneID string, out engine.TickOutput) {
	for i := range out.Notifications {
		n := out.Notifications[i]
		s.broadcast(HUDMessage{Type: "notification", Notification: &n})
		s.publish(ctx, eventbus.TopicEscalationEvents, notificationEvent(zoneID, n))
	}
	for i := range out.HeatUpdates {
		h := out.HeatUpdates[i]
		s.broadcast(HUDMessage{Type: "heat", Heat: &h})
		payload, err := eventbus.PayloadFrom(h)
		if err != nil {
			log.Printf("Heat payload for %s: %v", h.ZoneID, err)
			continue
		}
		s.publish(ctx, eventbus.TopicSuspicionEvents, eventbus.NewEvent(eventbus.EventHeatUpdated, serviceName, h.ZoneID, payload))
	}
}

func notificationEvent(zoneID string, n escalation.Notification) eventbus.Event {
	if n.ZoneID != "" {
		zoneID = n.ZoneID
	}
	payload, err := eventbus.PayloadFrom(n)
	if err != nil {
		log.Printf("Notification payload %s: %v", n.Kind, err)
		payload = map[string]interface{}{"kind": string(n.Kind)}
	}
	return eventbus.NewEvent(eventbus.TypeSurveillance+string(n.Kind), serviceName, zoneID, payload).WithArea(n.AreaID)
}

func (s *Service) publish(ctx context.Context, topic string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		log.Printf("Publish %s failed: %v", event.EventType, err)
	}
}

func (s *Service) broadcast(msg HUDMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("HUD message: %v", err)
		return
	}
	s.hub.BroadcastMessage(data)
}
