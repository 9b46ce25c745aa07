package wampjson

import (
	"reflect"
	"testing"

	"github.com/hollowoak/wampcore/wamp"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New()
	cases := []wamp.Message{
		wamp.Hello{Realm: "realm1", Details: wamp.Dict{"roles": wamp.Dict{}}},
		wamp.Welcome{Session: 42, Details: wamp.Dict{}},
		wamp.Subscribe{Request: 1, Options: wamp.Dict{}, Topic: "com.example.topic"},
		wamp.Event{Subscription: 5, Publication: 9, Details: wamp.Dict{}, Args: wamp.List{"a"}, KwArgs: wamp.Dict{"x": "y"}},
		wamp.Call{Request: 7, Options: wamp.Dict{}, Procedure: "com.example.add", Args: wamp.List{float64(1), float64(2)}},
		wamp.ErrorMsg{Kind: wamp.KindCall, Request: 7, Details: wamp.Dict{}, Reason: "wamp.error.no_such_procedure"},
		wamp.Goodbye{Details: wamp.Dict{}, Reason: "wamp.close.system_shutdown"},
	}

	for _, want := range cases {
		frame, err := c.Encode(want)
		if err != nil {
			t.Fatalf("Encode(%#v): %v", want, err)
		}
		got, err := c.Decode(frame)
		if err != nil {
			t.Fatalf("Decode(%s): %v", frame, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, want)
		}
	}
}

func TestCodec_Subprotocol(t *testing.T) {
	if got := New().Subprotocol(); got != "wamp.2.json" {
		t.Errorf("Subprotocol() = %q, want wamp.2.json", got)
	}
}

func TestCodec_DecodeMalformed(t *testing.T) {
	c := New()
	if _, err := c.Decode([]byte("not json")); err == nil {
		t.Fatal("expected error decoding malformed frame")
	}
	if _, err := c.Decode([]byte("[]")); err == nil {
		t.Fatal("expected error decoding empty frame")
	}
	if _, err := c.Decode([]byte("[999]")); err == nil {
		t.Fatal("expected error decoding unrecognized message type")
	}
}
