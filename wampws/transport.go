// Package wampws implements wamp.Dialer and wamp.Transport over a WebSocket,
// using gorilla/websocket. It advertises the caller's codec subprotocols in
// dial order and drives the session's Handler callbacks from a dedicated
// read-loop goroutine — the "network thread" the core package's concurrency
// model assumes.
package wampws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hollowoak/wampcore/wamp"
)

// Dialer opens WebSocket connections for wamp.Connect. The zero value is
// usable; set Logger to get connection-lifecycle logging.
type Dialer struct {
	Logger *slog.Logger

	// HandshakeHeader, if set, is sent with the WebSocket upgrade request
	// (e.g. for a ticket or bearer token carried out-of-band from WAMP-CRA).
	HandshakeHeader http.Header
}

var _ wamp.Dialer = (*Dialer)(nil)

// Dial connects to url, negotiates one of subprotocols, and starts the
// read-loop goroutine that drives handler. It does not call handler.OnOpen
// — per the wamp.Handler contract, the caller does that once it has wired a
// Codec matching the negotiated subprotocol.
func (d *Dialer) Dial(ctx context.Context, rawURL string, subprotocols []string, handler wamp.Handler) (wamp.Transport, string, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dialer := &websocket.Dialer{
		Subprotocols:     subprotocols,
		ReadBufferSize:   1 << 16,
		WriteBufferSize:  1 << 16,
		HandshakeTimeout: 0, // bounded by ctx instead
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, d.HandshakeHeader)
	if err != nil {
		return nil, "", err
	}
	negotiated := conn.Subprotocol()
	if negotiated == "" && resp != nil {
		negotiated = resp.Header.Get("Sec-WebSocket-Protocol")
	}
	logger.Info("wampws: connected", "url", rawURL, "subprotocol", negotiated)

	t := &transport{
		conn:      conn,
		logger:    logger,
		textFrame: negotiated == "wamp.2.json" || negotiated == "",
	}

	go t.readLoop(handler)

	return t, negotiated, nil
}

type transport struct {
	conn      *websocket.Conn
	logger    *slog.Logger
	writeMu   sync.Mutex
	closeOnce sync.Once
	textFrame bool
}

var _ wamp.Transport = (*transport)(nil)

func (t *transport) Send(frame []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	msgType := websocket.BinaryMessage
	if t.textFrame {
		msgType = websocket.TextMessage
	}
	return t.conn.WriteMessage(msgType, frame)
}

func (t *transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		_ = t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}

// readLoop is the connection's network thread: every Handler callback for
// this session originates here, one at a time, in frame order.
func (t *transport) readLoop(handler wamp.Handler) {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				handler.OnClose(nil)
			} else {
				handler.OnClose(err)
			}
			return
		}
		handler.OnFrame()
		handler.OnMessage(data)
	}
}
