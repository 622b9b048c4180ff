package provision

import "github.com/google/uuid"

// Attribute describes a single value a provisioning service exposes.
type Attribute struct {
	// UUID is the attribute's 128-bit identifier.
	UUID uuid.UUID

	// Name is the attribute's short name, used in logs and diagnostics.
	Name string

	// Readable indicates clients may read the current value.
	Readable bool

	// Writable indicates clients may write a new value.
	Writable bool

	// MaxLen is the longest accepted value in bytes.
	MaxLen int
}

// Service describes the service a peripheral exposes, with its attributes.
type Service struct {
	// UUID is the service's 128-bit identifier.
	UUID uuid.UUID

	// Name is the service's short name.
	Name string

	// Attributes are the values the service exposes.
	Attributes []Attribute
}

// Attribute returns the attribute with the given identifier.
func (s Service) Attribute(id uuid.UUID) (Attribute, bool) {
	for _, a := range s.Attributes {
		if a.UUID == id {
			return a, true
		}
	}
	return Attribute{}, false
}
