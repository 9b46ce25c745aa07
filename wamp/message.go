package wamp

import "strings"

// URI identifies a realm, topic, procedure, or error reason. Segments are
// dot-separated and conventionally lowercase.
type URI string

// Valid reports whether u looks like a well-formed WAMP URI: at least one
// dot-separated segment, no empty segments, no whitespace.
func (u URI) Valid() bool {
	if u == "" {
		return false
	}
	for _, seg := range strings.Split(string(u), ".") {
		if seg == "" {
			return false
		}
		if strings.ContainsAny(seg, " \t\n") {
			return false
		}
	}
	return true
}

// Reason is an error URI reported by the router or raised locally (e.g.
// "wamp.error.no_such_procedure", "wamp.error.canceled").
type Reason string

// Dict and List mirror WAMP's untyped dictionary/list argument shapes.
type Dict = map[string]any
type List = []any

// MatchingPolicy controls how a router matches Subscribe/Register URIs
// against incoming Publish/Call URIs.
type MatchingPolicy string

const (
	MatchExact    MatchingPolicy = "exact"
	MatchPrefix   MatchingPolicy = "prefix"
	MatchWildcard MatchingPolicy = "wildcard"
)

// MessageKind names the family of a pending request, used to route ERROR
// replies back to the correct pending table.
type MessageKind string

const (
	KindSubscribe   MessageKind = "SUBSCRIBE"
	KindUnsubscribe MessageKind = "UNSUBSCRIBE"
	KindPublish     MessageKind = "PUBLISH"
	KindRegister    MessageKind = "REGISTER"
	KindUnregister  MessageKind = "UNREGISTER"
	KindCall        MessageKind = "CALL"
	KindInvocation  MessageKind = "INVOCATION"
)

// Message is implemented by every protocol message this client sends or
// receives. The marker method keeps the set closed to this package.
type Message interface {
	isMessage()
}

type Hello struct {
	Realm   URI
	Details Dict
}

type Welcome struct {
	Session ID
	Details Dict
}

type Abort struct {
	Details Dict
	Reason  Reason
}

type Goodbye struct {
	Details Dict
	Reason  Reason
}

// Challenge and Authenticate implement the WAMP-CRA / ticket auth handshake,
// exchanged between Hello and Welcome when the router requires authentication.
type Challenge struct {
	AuthMethod string
	Extra      Dict
}

type Authenticate struct {
	Signature string
	Extra     Dict
}

type Subscribe struct {
	Request ID
	Options Dict
	Topic   URI
}

type Subscribed struct {
	Request      ID
	Subscription ID
}

type Unsubscribe struct {
	Request      ID
	Subscription ID
}

type Unsubscribed struct {
	Request ID
}

type Publish struct {
	Request ID
	Options Dict
	Topic   URI
	Args    List
	KwArgs  Dict
}

type Published struct {
	Request     ID
	Publication ID
}

type Event struct {
	Subscription ID
	Publication  ID
	Details      Dict
	Args         List
	KwArgs       Dict
}

type Register struct {
	Request   ID
	Options   Dict
	Procedure URI
}

type Registered struct {
	Request      ID
	Registration ID
}

type Unregister struct {
	Request      ID
	Registration ID
}

type Unregistered struct {
	Request ID
}

type Call struct {
	Request   ID
	Options   Dict
	Procedure URI
	Args      List
	KwArgs    Dict
}

// ResultMsg is the wire RESULT message, answering a Call.
type ResultMsg struct {
	Request ID
	Details Dict
	Args    List
	KwArgs  Dict
}

type Invocation struct {
	Request      ID
	Registration ID
	Details      Dict
	Args         List
	KwArgs       Dict
}

type Yield struct {
	Request ID
	Options Dict
	Args    List
	KwArgs  Dict
}

// ErrorMsg reports that a pending request of the given Kind, identified by
// Request, failed with Reason.
type ErrorMsg struct {
	Kind    MessageKind
	Request ID
	Details Dict
	Reason  Reason
	Args    List
	KwArgs  Dict
}

func (Hello) isMessage()        {}
func (Welcome) isMessage()      {}
func (Abort) isMessage()        {}
func (Goodbye) isMessage()      {}
func (Challenge) isMessage()    {}
func (Authenticate) isMessage() {}
func (Subscribe) isMessage()    {}
func (Subscribed) isMessage()   {}
func (Unsubscribe) isMessage()  {}
func (Unsubscribed) isMessage() {}
func (Publish) isMessage()      {}
func (Published) isMessage()    {}
func (Event) isMessage()        {}
func (Register) isMessage()     {}
func (Registered) isMessage()   {}
func (Unregister) isMessage()   {}
func (Unregistered) isMessage() {}
func (Call) isMessage()         {}
func (ResultMsg) isMessage()    {}
func (Invocation) isMessage()   {}
func (Yield) isMessage()        {}
func (ErrorMsg) isMessage()     {}
