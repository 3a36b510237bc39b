package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

type EventBus struct {
	writers map[string]*kafka.Writer
	brokers []string
}

func NewEventBus(brokers []string) *EventBus {
	topics := []string{
		TopicSurveillanceTicks,
		TopicEscalationEvents,
		TopicSuspicionEvents,
	}
	writers := make(map[string]*kafka.Writer)
	for _, topic := range topics {
		writers[topic] = &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		}
	}
	return &EventBus{
		writers: writers,
		brokers: brokers,
	}
}

func validate(event Event) error {
	if event.EventID == "" || event.EventType == "" || event.ZoneID == "" {
		return fmt.Errorf("event missing required fields: event_id=%q, event_type=%q, zone_id=%q",
			event.EventID, event.EventType, event.ZoneID)
	}
	return nil
}

// Publish writes an event keyed by zone so one zone's events stay ordered.
func (eb *EventBus) Publish(ctx context.Context, topic string, event Event) error {
	if err := validate(event); err != nil {
		return err
	}
	writer, ok := eb.writers[topic]
	if !ok {
		return fmt.Errorf("unknown topic %q", topic)
	}
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.ZoneID), Value: msg}); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.EventType, topic, err)
	}
	return nil
}

// pollFrequency reads KAFKA_POLL_FREQUENCY_MS, default 1s.
func pollFrequency() time.Duration {
	pollFreqStr := os.Getenv("KAFKA_POLL_FREQUENCY_MS")
	if pollFreqStr == "" {
		pollFreqStr = "1000"
	}
	pollFreqMs, err := strconv.Atoi(pollFreqStr)
	if err != nil || pollFreqMs <= 0 {
		log.Printf("Invalid KAFKA_POLL_FREQUENCY_MS value %q, using default 1000ms", pollFreqStr)
		pollFreqMs = 1000
	}
	return time.Millisecond * time.Duration(pollFreqMs)
}

// Subscribe blocks reading topic until ctx is cancelled. Undecodable
// messages are logged and skipped.
func (eb *EventBus) Subscribe(ctx context.Context, topic, groupID string, handler func(Event)) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  eb.brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  pollFrequency(),
	})
	defer reader.Close()
	log.Printf("Subscribed to %s as %s", topic, groupID)
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				log.Printf("Subscription to %s stopped: %v", topic, ctx.Err())
				return
			default:
				log.Printf("Read error on %s: %v", topic, err)
			}
			continue
		}
		var event Event
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Printf("Parse error on %s key=%s: %v", topic, string(m.Key), err)
			continue
		}
		handler(event)
	}
}

func (eb *EventBus) Close() error {
	var errs []error
	for topic, writer := range eb.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer for topic %s: %w", topic, err))
		}
	}
	if len(errs) > 0 {
		for _, err := range errs[1:] {
			log.Printf("Additional close error: %v", err)
		}
		return errs[0]
	}
	return nil
}
