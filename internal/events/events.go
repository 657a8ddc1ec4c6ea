package events

import (
	"encoding/json"
	"time"
)

const (
	TypePing            = "ping"
	TypeSearchCompleted = "search_completed"
	TypeSearchFailed    = "search_failed"
)

// Event is the envelope every SSE message carries. Data is type specific;
// search events hold the location plus count and funnel on success.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent renders an envelope ready to write after "data: ". A payload
// that cannot be marshaled is sent as an event without data.
func MakeEvent(reqID, typ string, version int, payload any) string {
	e := Event{Type: typ, Version: version, At: time.Now().UTC(), RequestID: reqID}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			e.Data = raw
		}
	}
	b, _ := json.Marshal(e)
	return string(b)
}
