package wamp

import "fmt"

// Wire type codes, as specified by the WAMP Basic and Advanced Profiles.
const (
	wireHello        = 1
	wireWelcome      = 2
	wireAbort        = 3
	wireChallenge    = 4
	wireAuthenticate = 5
	wireGoodbye      = 6
	wireError        = 8
	wirePublish      = 16
	wirePublished    = 17
	wireSubscribe    = 32
	wireSubscribed   = 33
	wireUnsubscribe  = 34
	wireUnsubscribed = 35
	wireEvent        = 36
	wireCall         = 48
	wireResult       = 50
	wireRegister     = 64
	wireRegistered   = 65
	wireUnregister   = 66
	wireUnregistered = 67
	wireInvocation   = 68
	wireYield        = 70
)

// errorKindToWire maps the request kind an ERROR message replies to onto the
// wire type code of that original request, matching the ERROR frame shape
// ([ERROR, REQUEST.Type, Request, Details, Error|uri, ...]).
var errorKindToWire = map[MessageKind]int{
	KindSubscribe:   wireSubscribe,
	KindUnsubscribe: wireUnsubscribe,
	KindPublish:     wirePublish,
	KindRegister:    wireRegister,
	KindUnregister:  wireUnregister,
	KindCall:        wireCall,
	KindInvocation:  wireInvocation,
}

var wireToErrorKind = func() map[int]MessageKind {
	m := make(map[int]MessageKind, len(errorKindToWire))
	for k, v := range errorKindToWire {
		m[v] = k
	}
	return m
}()

func dict(v any) Dict {
	if v == nil {
		return nil
	}
	if d, ok := v.(Dict); ok {
		return d
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return Dict{}
}

func list(v any) List {
	if v == nil {
		return nil
	}
	if l, ok := v.(List); ok {
		return l
	}
	if l, ok := v.([]any); ok {
		return l
	}
	return List{}
}

func asUint(v any) (ID, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return ID(n), true
	case uint16:
		return ID(n), true
	case uint8:
		return ID(n), true
	case uint:
		return ID(n), true
	case int64:
		return ID(n), true
	case int32:
		return ID(n), true
	case int16:
		return ID(n), true
	case int8:
		return ID(n), true
	case int:
		return ID(n), true
	case float64:
		return ID(n), true
	case float32:
		return ID(n), true
	default:
		return 0, false
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ToWireArray converts a Message into the untyped [type, field...] array
// representation both wampjson and wampmsgpack encode onto the wire.
func ToWireArray(m Message) (List, error) {
	switch v := m.(type) {
	case Hello:
		return List{wireHello, string(v.Realm), v.Details}, nil
	case Welcome:
		return List{wireWelcome, v.Session, v.Details}, nil
	case Abort:
		return List{wireAbort, v.Details, string(v.Reason)}, nil
	case Goodbye:
		return List{wireGoodbye, v.Details, string(v.Reason)}, nil
	case Challenge:
		return List{wireChallenge, v.AuthMethod, v.Extra}, nil
	case Authenticate:
		return List{wireAuthenticate, v.Signature, v.Extra}, nil
	case Subscribe:
		return List{wireSubscribe, v.Request, v.Options, string(v.Topic)}, nil
	case Subscribed:
		return List{wireSubscribed, v.Request, v.Subscription}, nil
	case Unsubscribe:
		return List{wireUnsubscribe, v.Request, v.Subscription}, nil
	case Unsubscribed:
		return List{wireUnsubscribed, v.Request}, nil
	case Publish:
		return List{wirePublish, v.Request, v.Options, string(v.Topic), v.Args, v.KwArgs}, nil
	case Published:
		return List{wirePublished, v.Request, v.Publication}, nil
	case Event:
		return List{wireEvent, v.Subscription, v.Publication, v.Details, v.Args, v.KwArgs}, nil
	case Register:
		return List{wireRegister, v.Request, v.Options, string(v.Procedure)}, nil
	case Registered:
		return List{wireRegistered, v.Request, v.Registration}, nil
	case Unregister:
		return List{wireUnregister, v.Request, v.Registration}, nil
	case Unregistered:
		return List{wireUnregistered, v.Request}, nil
	case Call:
		return List{wireCall, v.Request, v.Options, string(v.Procedure), v.Args, v.KwArgs}, nil
	case ResultMsg:
		return List{wireResult, v.Request, v.Details, v.Args, v.KwArgs}, nil
	case Invocation:
		return List{wireInvocation, v.Request, v.Registration, v.Details, v.Args, v.KwArgs}, nil
	case Yield:
		return List{wireYield, v.Request, v.Options, v.Args, v.KwArgs}, nil
	case ErrorMsg:
		wireKind, ok := errorKindToWire[v.Kind]
		if !ok {
			return nil, fmt.Errorf("wamp: unknown error kind %q", v.Kind)
		}
		return List{wireError, wireKind, v.Request, v.Details, string(v.Reason), v.Args, v.KwArgs}, nil
	default:
		return nil, fmt.Errorf("wamp: unsupported message type %T", m)
	}
}

// FromWireArray reconstructs a Message from the decoded [type, field...]
// array. It returns an error for malformed or unrecognized frames; callers
// (the Codec implementations) are expected to treat that as MalformedData.
func FromWireArray(a List) (Message, error) {
	if len(a) == 0 {
		return nil, fmt.Errorf("wamp: empty message frame")
	}
	typ, ok := asUint(a[0])
	if !ok {
		return nil, fmt.Errorf("wamp: non-numeric message type %v", a[0])
	}

	need := func(n int) error {
		if len(a) < n {
			return fmt.Errorf("wamp: message type %d expects %d fields, got %d", typ, n, len(a))
		}
		return nil
	}

	switch int(typ) {
	case wireHello:
		if err := need(3); err != nil {
			return nil, err
		}
		realm, _ := asString(a[1])
		return Hello{Realm: URI(realm), Details: dict(a[2])}, nil
	case wireWelcome:
		if err := need(3); err != nil {
			return nil, err
		}
		sess, _ := asUint(a[1])
		return Welcome{Session: sess, Details: dict(a[2])}, nil
	case wireAbort:
		if err := need(3); err != nil {
			return nil, err
		}
		reason, _ := asString(a[2])
		return Abort{Details: dict(a[1]), Reason: Reason(reason)}, nil
	case wireGoodbye:
		if err := need(3); err != nil {
			return nil, err
		}
		reason, _ := asString(a[2])
		return Goodbye{Details: dict(a[1]), Reason: Reason(reason)}, nil
	case wireChallenge:
		if err := need(3); err != nil {
			return nil, err
		}
		method, _ := asString(a[1])
		return Challenge{AuthMethod: method, Extra: dict(a[2])}, nil
	case wireAuthenticate:
		if err := need(3); err != nil {
			return nil, err
		}
		sig, _ := asString(a[1])
		return Authenticate{Signature: sig, Extra: dict(a[2])}, nil
	case wireSubscribe:
		if err := need(4); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		topic, _ := asString(a[3])
		return Subscribe{Request: req, Options: dict(a[2]), Topic: URI(topic)}, nil
	case wireSubscribed:
		if err := need(3); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		sub, _ := asUint(a[2])
		return Subscribed{Request: req, Subscription: sub}, nil
	case wireUnsubscribe:
		if err := need(3); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		sub, _ := asUint(a[2])
		return Unsubscribe{Request: req, Subscription: sub}, nil
	case wireUnsubscribed:
		if err := need(2); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		return Unsubscribed{Request: req}, nil
	case wirePublish:
		if err := need(4); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		topic, _ := asString(a[3])
		msg := Publish{Request: req, Options: dict(a[2]), Topic: URI(topic)}
		if len(a) > 4 {
			msg.Args = list(a[4])
		}
		if len(a) > 5 {
			msg.KwArgs = dict(a[5])
		}
		return msg, nil
	case wirePublished:
		if err := need(3); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		pub, _ := asUint(a[2])
		return Published{Request: req, Publication: pub}, nil
	case wireEvent:
		if err := need(3); err != nil {
			return nil, err
		}
		sub, _ := asUint(a[1])
		pub, _ := asUint(a[2])
		msg := Event{Subscription: sub, Publication: pub}
		if len(a) > 3 {
			msg.Details = dict(a[3])
		}
		if len(a) > 4 {
			msg.Args = list(a[4])
		}
		if len(a) > 5 {
			msg.KwArgs = dict(a[5])
		}
		return msg, nil
	case wireRegister:
		if err := need(4); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		proc, _ := asString(a[3])
		return Register{Request: req, Options: dict(a[2]), Procedure: URI(proc)}, nil
	case wireRegistered:
		if err := need(3); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		reg, _ := asUint(a[2])
		return Registered{Request: req, Registration: reg}, nil
	case wireUnregister:
		if err := need(3); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		reg, _ := asUint(a[2])
		return Unregister{Request: req, Registration: reg}, nil
	case wireUnregistered:
		if err := need(2); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		return Unregistered{Request: req}, nil
	case wireCall:
		if err := need(4); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		proc, _ := asString(a[3])
		msg := Call{Request: req, Options: dict(a[2]), Procedure: URI(proc)}
		if len(a) > 4 {
			msg.Args = list(a[4])
		}
		if len(a) > 5 {
			msg.KwArgs = dict(a[5])
		}
		return msg, nil
	case wireResult:
		if err := need(3); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		msg := ResultMsg{Request: req, Details: dict(a[2])}
		if len(a) > 3 {
			msg.Args = list(a[3])
		}
		if len(a) > 4 {
			msg.KwArgs = dict(a[4])
		}
		return msg, nil
	case wireInvocation:
		if err := need(4); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		reg, _ := asUint(a[2])
		msg := Invocation{Request: req, Registration: reg, Details: dict(a[3])}
		if len(a) > 4 {
			msg.Args = list(a[4])
		}
		if len(a) > 5 {
			msg.KwArgs = dict(a[5])
		}
		return msg, nil
	case wireYield:
		if err := need(3); err != nil {
			return nil, err
		}
		req, _ := asUint(a[1])
		msg := Yield{Request: req, Options: dict(a[2])}
		if len(a) > 3 {
			msg.Args = list(a[3])
		}
		if len(a) > 4 {
			msg.KwArgs = dict(a[4])
		}
		return msg, nil
	case wireError:
		if err := need(5); err != nil {
			return nil, err
		}
		wireKind, _ := asUint(a[1])
		kind, ok := wireToErrorKind[int(wireKind)]
		if !ok {
			return nil, fmt.Errorf("wamp: unknown error-reply type %d", wireKind)
		}
		req, _ := asUint(a[2])
		reason, _ := asString(a[4])
		msg := ErrorMsg{Kind: kind, Request: req, Details: dict(a[3]), Reason: Reason(reason)}
		if len(a) > 5 {
			msg.Args = list(a[5])
		}
		if len(a) > 6 {
			msg.KwArgs = dict(a[6])
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("wamp: unrecognized message type %d", typ)
	}
}
