package wamp

// Codec serializes and deserializes protocol Messages onto/from a single
// transport frame. Concrete implementations (wampjson, wampmsgpack) live in
// their own packages so this package stays free of encoding dependencies.
type Codec interface {
	// Encode serializes m into one transport frame.
	Encode(m Message) ([]byte, error)
	// Decode parses one transport frame into a Message. A decode failure is
	// reported as an error; the caller (dispatcher) treats it as
	// MalformedData: log, drop the frame, keep the session alive.
	Decode(frame []byte) (Message, error)
	// Subprotocol is the WebSocket subprotocol name this codec corresponds
	// to (e.g. "wamp.2.json", "wamp.2.msgpack"), used during negotiation.
	Subprotocol() string
}
