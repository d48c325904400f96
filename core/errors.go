package core

import (
	"errors"
	"fmt"
)

// Capability names one kind of generation a backend may support.
type Capability string

const (
	CapabilityText  Capability = "text"
	CapabilityImage Capability = "image"
	CapabilityVideo Capability = "video"
	CapabilityMusic Capability = "music"
)

// ErrUnsupportedCapability is matched (errors.Is) by every CapabilityError.
var ErrUnsupportedCapability = errors.New("unsupported capability")

// CapabilityError reports that a provider cannot perform the requested
// generation kind. It is never substituted by an empty artifact.
type CapabilityError struct {
	Provider   string
	Capability Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("provider %s: %s generation: %v", e.Provider, e.Capability, ErrUnsupportedCapability)
}

// Is reports whether target is ErrUnsupportedCapability.
func (e *CapabilityError) Is(target error) bool { return target == ErrUnsupportedCapability }

// NewCapabilityError constructs a CapabilityError.
func NewCapabilityError(provider string, c Capability) *CapabilityError {
	return &CapabilityError{Provider: provider, Capability: c}
}

// HasCapability reports whether c is contained in caps.
func HasCapability(caps []Capability, c Capability) bool {
	for _, v := range caps {
		if v == c {
			return true
		}
	}
	return false
}
