package jsonstream

import "encoding/json"

// Unit is one complete JSON object extracted from the stream.
type Unit struct {
	// Seq is the 1-based position of the unit within its stream.
	Seq int
	// Raw is the exact text of the object.
	Raw json.RawMessage
}

// Decode unmarshals the unit into v.
func (u Unit) Decode(v any) error {
	return json.Unmarshal(u.Raw, v)
}

// String returns the raw object text.
func (u Unit) String() string {
	return string(u.Raw)
}
