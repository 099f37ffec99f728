package core

import "encoding/json"

// Event is a verified, decoded provider event. The router only inspects
// Type; every other field is carried for handlers.
type Event struct {
	ID         string
	Type       string
	Account    string
	APIVersion string
	Created    int64
	Livemode   bool
	// Data holds the raw JSON of the event data object.
	Data json.RawMessage
	// Payload holds the verified request body as delivered.
	Payload []byte
}

// DecodeData unmarshals the event data object into dst.
func (e Event) DecodeData(dst any) error {
	if len(e.Data) == 0 {
		return BadInputError("webhooks: event has no data object", map[string]any{
			"event_id":   e.ID,
			"event_type": e.Type,
		})
	}
	return json.Unmarshal(e.Data, dst)
}
