// Package wampmsgpack implements the packed binary wire codec
// ("wamp.2.msgpack"), advertised first during subprotocol negotiation
// because it's cheaper to encode/decode than JSON for high-frequency
// publish/event traffic.
package wampmsgpack

import (
	"fmt"

	"github.com/hollowoak/wampcore/wamp"
	"github.com/vmihailenco/msgpack/v5"
)

const subprotocol = "wamp.2.msgpack"

// Codec encodes/decodes WAMP messages as MessagePack arrays.
type Codec struct{}

func New() *Codec { return &Codec{} }

func (c *Codec) Subprotocol() string { return subprotocol }

func (c *Codec) Encode(m wamp.Message) ([]byte, error) {
	arr, err := wamp.ToWireArray(m)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(arr)
}

func (c *Codec) Decode(frame []byte) (wamp.Message, error) {
	var arr []any
	if err := msgpack.Unmarshal(frame, &arr); err != nil {
		return nil, fmt.Errorf("wampmsgpack: %w", err)
	}
	return wamp.FromWireArray(wamp.List(arr))
}
