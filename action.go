package threadkit

import "encoding/json"

// Action is a custom action emitted by the embedding application, usually
// from a widget interaction. The engine serializes it without interpreting
// the payload.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
