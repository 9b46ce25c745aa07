package wamp

// Transport is the minimal send/close surface the session needs once a
// connection is established. Delivery of inbound data happens the other way
// round, through Handler — the transport owns a goroutine (the "network
// thread") that invokes Handler methods as frames arrive.
//
// Transport implementations never hold the session's mutex: Send must be
// safe to call concurrently with the read loop invoking Handler callbacks.
type Transport interface {
	// Send writes one frame. It does not block waiting for a reply.
	Send(frame []byte) error
	// Close closes the underlying connection. Idempotent.
	Close() error
}

// Handler receives events from a Transport's network thread. All methods are
// invoked from that single goroutine, never concurrently with each other.
//
// OnOpen is the one exception to "the transport calls this": a Dialer
// negotiates the subprotocol before the caller (wamp.Connect) has had a
// chance to pick and wire a matching Codec, so the caller invokes OnOpen
// itself once wiring is complete, rather than the Dialer invoking it
// mid-Dial. Dialer implementations must not call OnOpen.
type Handler interface {
	// OnOpen fires once the transport is connected, subprotocol negotiation
	// is complete, and (per the note above) the session's codec is wired.
	OnOpen(subprotocol string)
	// OnMessage delivers one fully-framed inbound message.
	OnMessage(frame []byte)
	// OnFrame fires on every inbound frame, including ones OnMessage also
	// sees, purely as a liveness signal for the keepalive timer.
	OnFrame()
	// OnClose fires once, when the transport connection ends. err is nil for
	// a clean, locally-initiated close.
	OnClose(err error)
	// OnError reports a non-fatal transport error (e.g. a write failure on a
	// single Send call) that does not by itself close the connection.
	OnError(err error)
}
