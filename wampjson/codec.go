// Package wampjson implements the JSON wire codec ("wamp.2.json"), the
// fallback subprotocol negotiated when a router doesn't support the packed
// binary codec.
package wampjson

import (
	"encoding/json"
	"fmt"

	"github.com/hollowoak/wampcore/wamp"
)

const subprotocol = "wamp.2.json"

// Codec encodes/decodes WAMP messages as JSON arrays, e.g.
// [32, 1, {}, "com.example.topic"] for a SUBSCRIBE.
type Codec struct{}

// New returns a ready-to-use JSON Codec. There is no state to configure.
func New() *Codec { return &Codec{} }

func (c *Codec) Subprotocol() string { return subprotocol }

func (c *Codec) Encode(m wamp.Message) ([]byte, error) {
	arr, err := wamp.ToWireArray(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(arr)
}

func (c *Codec) Decode(frame []byte) (wamp.Message, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(frame, &raw); err != nil {
		return nil, fmt.Errorf("wampjson: %w", err)
	}
	arr := make(wamp.List, len(raw))
	for i, r := range raw {
		var v any
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("wampjson: field %d: %w", i, err)
		}
		arr[i] = normalizeNumber(v)
	}
	return wamp.FromWireArray(arr)
}

// normalizeNumber walks decoded maps and slices recursively and returns
// every value unchanged: numbers stay float64, which asUint in the wamp
// package already accepts for ids.
func normalizeNumber(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, vv := range t {
			t[k] = normalizeNumber(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = normalizeNumber(vv)
		}
		return t
	default:
		return v
	}
}
