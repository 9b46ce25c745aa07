package wamp

import "github.com/google/uuid"

// NewAgentID returns a fresh UUIDv7 string suitable for WithAgentID: a
// per-Connection correlation id for log output and the optional
// Hello.Details.agent field. It is never required by the protocol — a
// session works identically without one. Unlike a persisted instance id,
// this only needs to be unique per connection attempt, not stable across
// restarts, so there is nothing to load or store.
func NewAgentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the system clock/entropy source is broken;
		// fall back to v4 rather than returning an error from what is
		// purely a logging convenience.
		return uuid.NewString()
	}
	return id.String()
}
