package env

import "go.trai.ch/zerr"

var (
	// ErrUnknownKey is returned when a delta or subset names a key that
	// was never registered.
	ErrUnknownKey = zerr.New("unknown environment key")

	// ErrKeyKindMismatch is returned when a value of the wrong shape is
	// bound to a key, e.g. multiple values for an override key.
	ErrKeyKindMismatch = zerr.New("value does not match key kind")

	// ErrKeyRedeclared is returned when a key is registered twice with
	// incompatible kinds or defaults.
	ErrKeyRedeclared = zerr.New("environment key redeclared incompatibly")
)
