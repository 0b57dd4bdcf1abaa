package model

import "encoding/json"

// TargetID is the optional stable identity of a notification target.
// The zero value carries no identity.
type TargetID struct {
	value string
	ok    bool
}

// NewTargetID returns an identity holding id.
func NewTargetID(id string) TargetID {
	return TargetID{value: id, ok: true}
}

// NoTargetID returns an absent identity.
func NoTargetID() TargetID {
	return TargetID{}
}

// Get returns the identity and whether it is present.
func (t TargetID) Get() (string, bool) {
	return t.value, t.ok
}

// Valid reports whether the identity is present.
func (t TargetID) Valid() bool {
	return t.ok
}

// String returns the identity or an empty string when absent.
func (t TargetID) String() string {
	return t.value
}

// MarshalJSON encodes an absent identity as null.
func (t TargetID) MarshalJSON() ([]byte, error) {
	if !t.ok {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

// UnmarshalJSON decodes null as an absent identity.
func (t *TargetID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TargetID{}
		return nil
	}

	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*t = NewTargetID(v)
	return nil
}

// TargetKey identifies the addressee of a notification by type and optional id.
type TargetKey struct {
	Type string   `json:"type"`
	ID   TargetID `json:"id"`
}
