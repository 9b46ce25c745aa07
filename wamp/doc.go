// Package wamp implements the session state machine and request-correlation
// engine of a routed publish-subscribe / RPC client, carried over a framed
// bidirectional transport. Wire codecs (wampjson, wampmsgpack) and transports
// (wampws) are separate packages; this package only knows about the Codec and
// Transport interfaces.
package wamp
