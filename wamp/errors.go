package wamp

import (
	"errors"
	"fmt"
)

// Sentinel errors, checked with errors.Is. These cover the taxonomy entries
// that carry no payload of their own.
var (
	ErrTimeout        = errors.New("wamp: timed out")
	ErrInvalidState   = errors.New("wamp: invalid state for operation")
	ErrConnectionLost = errors.New("wamp: connection lost")
	// ErrUnexpectedMsg is logged, not returned: a message that's illegal for
	// the current state is dropped per §4.3, but the drop is logged with this
	// as the error value so it's still greppable/errors.Is-able from log
	// output rather than a bare string.
	ErrUnexpectedMsg = errors.New("wamp: unexpected message for current state")
	// ErrMalformedData is logged, not returned, for the same reason: a
	// frame the codec can't decode is dropped and the session carries on.
	ErrMalformedData = errors.New("wamp: malformed data")
	// ErrShuttingDown is returned by facade methods called while a Goodbye
	// exchange is in flight — a more specific case of ErrInvalidState that
	// callers can distinguish from "never connected" or "already closed".
	ErrShuttingDown = errors.New("wamp: connection is shutting down")
)

// TransportError wraps a failure reported by the Transport (dial failure,
// write failure, abrupt close reported by the transport layer itself).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("wamp: transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// CodecError wraps an encode/decode failure from a Codec.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("wamp: codec error: %v", e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }

// URLParseError wraps a failure to parse the router URL passed to Connect.
type URLParseError struct {
	Err error
}

func (e *URLParseError) Error() string { return fmt.Sprintf("wamp: invalid url: %v", e.Err) }
func (e *URLParseError) Unwrap() error { return e.Err }

// CallError is returned by Client.Call (and similar request methods) when
// the router replies with an ERROR message. It carries the error reason plus
// whatever positional/keyword detail the router attached.
type CallError struct {
	Reason Reason
	Args   List
	KwArgs Dict
}

func (e *CallError) Error() string {
	return fmt.Sprintf("wamp: call error: %s", e.Reason)
}
