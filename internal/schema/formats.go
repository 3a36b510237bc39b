// Package schema defines custom JSON Schema formats for surveillance payloads.
package schema

import (
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

var semanticID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// eventIDFormatChecker implements gojsonschema.FormatChecker for event_id.
type eventIDFormatChecker struct{}

// IsFormat validates that the input is a valid UUID.
func (c eventIDFormatChecker) IsFormat(input interface{}) bool {
	if s, ok := input.(string); ok {
		_, err := uuid.Parse(s)
		return err == nil
	}
	return false
}

// entityIDFormatChecker implements gojsonschema.FormatChecker for entity_id.
type entityIDFormatChecker struct{}

// IsFormat validates that the input is a valid entity ID (UUID or semantic).
func (c entityIDFormatChecker) IsFormat(input interface{}) bool {
	if s, ok := input.(string); ok {
		if len(s) == 0 {
			return false
		}
		if _, err := uuid.Parse(s); err == nil {
			return true
		}
		return semanticID.MatchString(s)
	}
	return false
}

// zoneIDFormatChecker accepts semantic zone and area ids only.
type zoneIDFormatChecker struct{}

func (c zoneIDFormatChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	return ok && semanticID.MatchString(s)
}

var registerOnce sync.Once

// RegisterCustomFormats registers event_id, entity_id and zone_id formats.
func RegisterCustomFormats() {
	registerOnce.Do(func() {
		gojsonschema.FormatCheckers.Add("event_id", eventIDFormatChecker{})
		gojsonschema.FormatCheckers.Add("entity_id", entityIDFormatChecker{})
		gojsonschema.FormatCheckers.Add("zone_id", zoneIDFormatChecker{})
	})
}
