package wampmsgpack

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
		wamp.Published{Request: 3, Publication: 77},
		wamp.Call{Request: 7, Options: wamp.Dict{}, Procedure: "com.example.add", Args: wamp.List{int64(1), int64(2)}},
		wamp.ErrorMsg{Kind: wamp.KindCall, Request: 7, Details: wamp.Dict{}, Reason: "wamp.error.no_such_procedure"},
	}

	for _, want := range cases {
		frame, err := c.Encode(want)
		if err != nil {
			t.Fatalf("Encode(%#v): %v", want, err)
		}
		got, err := c.Decode(frame)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, want)
		}
	}
}

func TestCodec_Subprotocol(t *testing.T) {
	if got := New().Subprotocol(); got != "wamp.2.msgpack" {
		t.Errorf("Subprotocol() = %q, want wamp.2.msgpack", got)
	}
}

func TestCodec_DecodeMalformed(t *testing.T) {
	c := New()
	if _, err := c.Decode([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected error decoding malformed frame")
	}
}
