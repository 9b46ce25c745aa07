package wamp

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var errNoCodecsConfigured = errors.New("wamp: Connect requires at least one codec via WithCodecs")

// Dialer opens a Transport to url, negotiating one of subprotocols, and
// wires handler to the connection's network goroutine. wampws.Dialer is the
// production implementation; tests use an in-memory fake.
type Dialer interface {
	Dial(ctx context.Context, url string, subprotocols []string, handler Handler) (Transport, string, error)
}

type connectConfig struct {
	connectTimeout time.Duration
	keepalive      time.Duration
	codecs         []Codec
	authn          Authenticator
	authInfo       Dict
	logger         *slog.Logger
	agentID        string
}

// ConnectOption customizes Connect. See WithConnectTimeout, WithKeepalive,
// WithAuthenticator, WithLogger, WithAgentID, WithCodecs.
type ConnectOption func(*connectConfig)

func WithConnectTimeout(d time.Duration) ConnectOption {
	return func(c *connectConfig) { c.connectTimeout = d }
}

func WithKeepalive(d time.Duration) ConnectOption {
	return func(c *connectConfig) { c.keepalive = d }
}

func WithAuthenticator(a Authenticator, info Dict) ConnectOption {
	return func(c *connectConfig) { c.authn = a; c.authInfo = info }
}

func WithLogger(l *slog.Logger) ConnectOption {
	return func(c *connectConfig) { c.logger = l }
}

// WithAgentID sets the client's self-reported agent string (Hello.Details
// .agent) and the correlation id used in log output. See NewAgentID for a
// UUIDv7-based default.
func WithAgentID(id string) ConnectOption {
	return func(c *connectConfig) { c.agentID = id }
}

// WithCodecs sets the codec preference order advertised during subprotocol
// negotiation. Connect requires at least one codec and fails with a
// CodecError when this option is omitted; it does not pick codecs itself.
func WithCodecs(codecs ...Codec) ConnectOption {
	return func(c *connectConfig) { c.codecs = codecs }
}

// Client is the public facade: one method per operation in the operation
// table, each allocating a request id, registering a pending future, and
// sending the corresponding message under the session's lock.
type Client struct {
	s *Session
}

// Connect dials url, completes the Hello/Welcome (and optional
// Challenge/Authenticate) handshake, and returns a ready-to-use Client. It
// blocks until Welcome arrives, the connect timeout elapses, or the context
// is canceled.
func Connect(ctx context.Context, url string, realm URI, dialer Dialer, opts ...ConnectOption) (*Client, error) {
	cfg := connectConfig{
		connectTimeout: defaultConnectTimeout,
		keepalive:      defaultKeepalive,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.codecs) == 0 {
		// This package can't default to concrete codecs itself (wampjson
		// and wampmsgpack both import wamp, not the other way round); the
		// caller must supply at least one via WithCodecs, binary-first per
		// the reference client's advertisement order.
		return nil, &CodecError{Err: errNoCodecsConfigured}
	}

	subprotocols := make([]string, 0, len(cfg.codecs))
	byProto := make(map[string]Codec, len(cfg.codecs))
	for _, c := range cfg.codecs {
		subprotocols = append(subprotocols, c.Subprotocol())
		byProto[c.Subprotocol()] = c
	}

	sess := newSession(nil, nil, realm, cfg.logger, cfg.connectTimeout, cfg.keepalive, cfg.authn)
	sess.authInfo = cfg.authInfo
	sess.agentID = cfg.agentID
	if cfg.agentID != "" {
		sess.logger = sess.logger.With("agent_id", cfg.agentID)
	}

	transport, negotiated, err := dialer.Dial(ctx, url, subprotocols, sess)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	codec, ok := byProto[negotiated]
	if !ok {
		codec = defaultJSONFallback(cfg.codecs)
		sess.logger.Warn("wamp: router selected no offered subprotocol, falling back", "subprotocol", negotiated, "codec", codec.Subprotocol())
	}
	sess.mu.Lock()
	sess.transport = transport
	sess.codec = codec
	sess.mu.Unlock()

	// Dialer implementations must not call Handler.OnOpen themselves (see
	// wamp.Handler's doc) precisely so this ordering — wire the codec, then
	// send Hello — can never race the transport's read-loop goroutine.
	sess.OnOpen(negotiated)

	fut := sess.connectFuture
	if _, err := fut.Wait(ctx); err != nil {
		_ = transport.Close()
		return nil, err
	}
	return &Client{s: sess}, nil
}

// defaultJSONFallback picks the JSON codec (by subprotocol name) out of the
// configured set, or the first configured codec if none match — mirroring
// the reference behavior of defaulting to JSON with a warning when the
// router's handshake response omits Sec-WebSocket-Protocol.
func defaultJSONFallback(codecs []Codec) Codec {
	for _, c := range codecs {
		if c.Subprotocol() == "wamp.2.json" {
			return c
		}
	}
	if len(codecs) > 0 {
		return codecs[0]
	}
	return nil
}

// SessionID returns the router-assigned WAMP session id established by
// Welcome.
func (c *Client) SessionID() ID {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.sess
}

// IsClosed reports whether the session has begun shutting down or has
// disconnected — the two states in which no facade operation can succeed.
func (c *Client) IsClosed() bool {
	return c.s.IsClosed()
}

// Subscribe asks the router to subscribe the client to topic, delivering
// matching Events to handler until Unsubscribe is called.
func (c *Client) Subscribe(topic URI, policy MatchingPolicy, handler EventHandler) (*Future[*Subscription], error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateConnected {
		return nil, s.stateErrLocked()
	}
	req := s.ids.allocate()
	fut := newFuture[*Subscription]()
	s.pending.subscribe[req] = &subscribeEntry{fut: fut, topic: topic, policy: policy, handler: handler}
	opts := Dict{}
	if policy != "" && policy != MatchExact {
		opts["match"] = string(policy)
	}
	if err := s.send(Subscribe{Request: req, Options: opts, Topic: topic}); err != nil {
		delete(s.pending.subscribe, req)
		return nil, err
	}
	return fut, nil
}

// Unsubscribe cancels a Subscription. The subscription's registry entry is
// removed only once the router confirms with Unsubscribed (dispatcher.go),
// not here — an Event racing in before that confirmation must still reach
// the callback.
func (c *Client) Unsubscribe(sub *Subscription) (*Future[struct{}], error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateConnected {
		return nil, s.stateErrLocked()
	}
	req := s.ids.allocate()
	entry := &unsubscribeEntry{fut: newFuture[struct{}](), subID: sub.ID}
	s.pending.unsubscribe[req] = entry
	if err := s.send(Unsubscribe{Request: req, Subscription: sub.ID}); err != nil {
		delete(s.pending.unsubscribe, req)
		return nil, err
	}
	return entry.fut, nil
}

// Publish sends a fire-and-forget event; no pending-table entry, no
// acknowledgement.
func (c *Client) Publish(topic URI, args List, kwArgs Dict) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateConnected {
		return s.stateErrLocked()
	}
	req := s.ids.allocate()
	return s.send(Publish{Request: req, Options: Dict{}, Topic: topic, Args: args, KwArgs: kwArgs})
}

// PublishAck sends an event and waits for a Published acknowledgement.
func (c *Client) PublishAck(topic URI, args List, kwArgs Dict) (*Future[struct{}], error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateConnected {
		return nil, s.stateErrLocked()
	}
	req := s.ids.allocate()
	fut := newFuture[struct{}]()
	s.pending.publishAck[req] = fut
	opts := Dict{"acknowledge": true}
	if err := s.send(Publish{Request: req, Options: opts, Topic: topic, Args: args, KwArgs: kwArgs}); err != nil {
		delete(s.pending.publishAck, req)
		return nil, err
	}
	return fut, nil
}

// Register asks the router to register procedure, dispatching calls to
// handler.
func (c *Client) Register(procedure URI, policy MatchingPolicy, handler InvocationHandler) (*Future[*Registration], error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateConnected {
		return nil, s.stateErrLocked()
	}
	req := s.ids.allocate()
	fut := newFuture[*Registration]()
	s.pending.register[req] = &registerEntry{fut: fut, procedure: procedure, policy: policy, handler: handler}
	opts := Dict{}
	if policy != "" && policy != MatchExact {
		opts["match"] = string(policy)
	}
	if err := s.send(Register{Request: req, Options: opts, Procedure: procedure}); err != nil {
		delete(s.pending.register, req)
		return nil, err
	}
	return fut, nil
}

// Unregister cancels a Registration. As with Unsubscribe, the registry
// entry is removed on the router's Unregistered confirmation, not here.
func (c *Client) Unregister(reg *Registration) (*Future[struct{}], error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateConnected {
		return nil, s.stateErrLocked()
	}
	req := s.ids.allocate()
	entry := &unregisterEntry{fut: newFuture[struct{}](), regID: reg.ID}
	s.pending.unregister[req] = entry
	if err := s.send(Unregister{Request: req, Registration: reg.ID}); err != nil {
		delete(s.pending.unregister, req)
		return nil, err
	}
	return entry.fut, nil
}

// Call invokes a remote procedure and returns a future for its result.
func (c *Client) Call(procedure URI, args List, kwArgs Dict) (*Future[CallResult], error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateConnected {
		return nil, s.stateErrLocked()
	}
	req := s.ids.allocate()
	fut := newFuture[CallResult]()
	s.pending.call[req] = fut
	if err := s.send(Call{Request: req, Options: Dict{}, Procedure: procedure, Args: args, KwArgs: kwArgs}); err != nil {
		delete(s.pending.call, req)
		return nil, err
	}
	return fut, nil
}

// Shutdown performs the two-phase graceful close: send Goodbye, wait for the
// router's reciprocating Goodbye (or the transport closing), then return.
// Calling Shutdown outside the Connected state is InvalidState, or
// ErrShuttingDown if a shutdown is already in flight.
func (c *Client) Shutdown(ctx context.Context) error {
	s := c.s
	s.mu.Lock()
	if s.state != stateConnected {
		err := s.stateErrLocked()
		s.mu.Unlock()
		return err
	}
	fut := newFuture[struct{}]()
	s.shutdownFuture = fut
	s.state = stateShuttingDown
	err := s.send(Goodbye{Details: Dict{}, Reason: "wamp.close.system_shutdown"})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = fut.Wait(ctx)
	return err
}
