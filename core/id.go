package core

import "github.com/google/uuid"

// NewID returns a random identifier used for run ids and for function calls
// whose backend did not supply one.
func NewID() string { return uuid.NewString() }
