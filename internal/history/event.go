package history

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
)

// Event types.
const (
	TypeRunStarted       = "RunStarted"
	TypeRoutesEnumerated = "RoutesEnumerated"
	TypePageFailed       = "PageFailed"
	TypeRunCompleted     = "RunCompleted"
	TypeRunFailed        = "RunFailed"
)

// Event is one stored run event.
type Event struct {
	ID        int64
	RunID     string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// RoutesEnumeratedPayload is the payload of TypeRoutesEnumerated.
type RoutesEnumeratedPayload struct {
	Count  int      `json:"count"`
	Routes []string `json:"routes"`
}

// PageFailedPayload is the payload of TypePageFailed.
type PageFailedPayload struct {
	Route string `json:"route"`
	Error string `json:"error"`
}

// RunCompletedPayload is the payload of TypeRunCompleted.
type RunCompletedPayload struct {
	Generated  int   `json:"generated"`
	Errors     int   `json:"errors"`
	Skipped    bool  `json:"skipped"`
	DurationMS int64 `json:"duration_ms"`
}

// RunFailedPayload is the payload of TypeRunFailed.
type RunFailedPayload struct {
	Error string `json:"error"`
}

// NewEvent marshals payload into an event stamped now.
func NewEvent(runID, eventType string, payload any) (*Event, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, errors.StorageError("failed to marshal event payload").
				WithCause(err).
				WithContext("run_id", runID).
				WithContext("type", eventType).
				Build()
		}
	} else {
		data = []byte("{}")
	}
	return &Event{RunID: runID, Type: eventType, Timestamp: time.Now(), Payload: data}, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.StorageError("failed to unmarshal event payload").
			WithCause(err).
			WithContext("run_id", e.RunID).
			WithContext("type", e.Type).
			Build()
	}
	return nil
}
