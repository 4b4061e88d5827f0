package domain

import (
	"bytes"
	"encoding/json"
)

// Metadata is a write-once optional metadata URI.
// It starts absent and transitions to present exactly once; no constructor or
// method allows re-assigning a present value. The URI is opaque: the factory
// stores it verbatim and never dereferences or validates its content.
type Metadata struct {
	uri     string
	present bool
}

// MetadataAbsent returns the absent variant.
func MetadataAbsent() Metadata {
	return Metadata{}
}

// MetadataPresent returns the present variant holding uri.
func MetadataPresent(uri string) Metadata {
	return Metadata{uri: uri, present: true}
}

// Present reports whether a URI has been set.
func (m Metadata) Present() bool {
	return m.present
}

// URI returns the stored URI and whether it is present.
func (m Metadata) URI() (string, bool) {
	return m.uri, m.present
}

// MarshalJSON encodes the absent variant as null and the present variant as
// the URI string.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if !m.present {
		return []byte("null"), nil
	}
	return json.Marshal(m.uri)
}

// UnmarshalJSON decodes null as absent and a string as present.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Metadata{}
		return nil
	}
	var uri string
	if err := json.Unmarshal(data, &uri); err != nil {
		return err
	}
	*m = Metadata{uri: uri, present: true}
	return nil
}
