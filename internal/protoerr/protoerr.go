// Package protoerr defines the sentinel error kinds the core maps
// every failure onto. Kinds are errors.Is-compatible values, not a
// type hierarchy: wrap a kind with fmt.Errorf("...: %w", kind) to add
// context while keeping it classifiable at the dispatcher boundary.
package protoerr

import "errors"

var (
	// ErrProtocol covers framing, seal, length, and state-violation
	// failures. Always fatal to the session.
	ErrProtocol = errors.New("protocol error")

	// ErrCipher covers handshake derivation invariant violations.
	// Always fatal to the session.
	ErrCipher = errors.New("cipher error")

	// ErrIO covers socket read/write failures. Always fatal to the
	// session.
	ErrIO = errors.New("io error")

	// ErrTimeout covers handshake or idle-read deadlines. Always
	// fatal to the session.
	ErrTimeout = errors.New("timeout error")

	// ErrValidation covers handler-level input out of range. Logged;
	// the offending packet is dropped; the session continues.
	ErrValidation = errors.New("validation error")

	// ErrNotFound covers a missing player or map referenced by a
	// handler. Logged; the session continues.
	ErrNotFound = errors.New("not found")

	// ErrCapacity covers outbound mailbox overflow or the global
	// connection cap. Refuses new work; for mailbox overflow, also
	// disconnects the offending session.
	ErrCapacity = errors.New("capacity error")
)

// Fatal reports whether err classifies as one of the kinds that must
// close the session.
func Fatal(err error) bool {
	switch {
	case errors.Is(err, ErrProtocol):
		return true
	case errors.Is(err, ErrCipher):
		return true
	case errors.Is(err, ErrIO):
		return true
	case errors.Is(err, ErrTimeout):
		return true
	default:
		return false
	}
}
