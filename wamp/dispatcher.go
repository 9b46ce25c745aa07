package wamp

import "fmt"

// Compile-time assertion: Session is the Handler a Transport drives.
var _ Handler = (*Session)(nil)

// OnOpen sends Hello as soon as the transport reports the connection (and
// subprotocol negotiation) are ready. Per the resolved Open Question, no
// artificial delay precedes it.
func (s *Session) OnOpen(subprotocol string) {
	s.mu.Lock()
	s.armConnectTimer()
	details := Dict{
		"roles": Dict{
			"subscriber": Dict{},
			"publisher":  Dict{},
			"caller":     Dict{},
			"callee":     Dict{},
		},
	}
	if s.agentID != "" {
		details["agent"] = s.agentID
	}
	if s.authn != nil {
		details["authmethods"] = List{"wampcra", "ticket"}
	}
	s.logger.Info("wamp: sending hello", "realm", s.realm, "subprotocol", subprotocol)
	err := s.send(Hello{Realm: s.realm, Details: details})
	s.mu.Unlock()
	if err != nil {
		s.failConnect(err)
	}
}

// OnFrame rearms the keepalive timer on every inbound frame while the
// session is Connected or ShuttingDown, resetting liveness on any traffic,
// not just fully-parsed messages. Frames that arrive while Connecting do not
// arm it; the connect deadline covers that phase.
func (s *Session) OnFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateConnected || s.state == stateShuttingDown {
		s.armKeepaliveTimer()
	}
}

// OnMessage decodes one frame and dispatches it by current state and
// message kind. A decode failure is logged and the frame dropped; the
// session continues.
func (s *Session) OnMessage(frame []byte) {
	msg, err := s.codec.Decode(frame)
	if err != nil {
		s.logger.Warn("wamp: malformed frame, dropping", "error", fmt.Errorf("%w: %v", ErrMalformedData, err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateConnecting:
		s.dispatchConnecting(msg)
	case stateConnected:
		s.dispatchActive(msg)
	case stateShuttingDown:
		s.dispatchShuttingDown(msg)
	default:
		s.logger.Debug("wamp: message received after disconnect, ignoring", "type", fmt.Sprintf("%T", msg))
	}
}

// dispatchShuttingDown implements the ShuttingDown state's restricted
// acceptance: only Goodbye is legal; everything else is discarded with a
// warning rather than acted on.
func (s *Session) dispatchShuttingDown(msg Message) {
	if gb, ok := msg.(Goodbye); ok {
		s.handlePeerGoodbye(gb)
		return
	}
	s.logger.Warn("wamp: non-goodbye message while shutting down, dropping", "error", ErrUnexpectedMsg, "type", fmt.Sprintf("%T", msg))
}

func (s *Session) dispatchConnecting(msg Message) {
	switch m := msg.(type) {
	case Welcome:
		s.sess = m.Session
		s.state = stateConnected
		s.stopConnectTimer()
		s.armKeepaliveTimer()
		self := s
		fut := s.connectFuture
		s.logger.Info("wamp: session established", "session_id", m.Session)
		// complete outside the lock is unnecessary here since Future.complete
		// never reenters the session; call it directly.
		fut.complete(self)
	case Challenge:
		if s.authn == nil {
			s.logger.Warn("wamp: router sent CHALLENGE but no authenticator configured")
			return
		}
		sig, extra, err := s.authn.Authenticate(s.authInfo, m)
		if err != nil {
			s.logger.Warn("wamp: authenticator failed", "error", err)
			_ = s.transport.Close()
			return
		}
		if err := s.send(Authenticate{Signature: sig, Extra: extra}); err != nil {
			s.failConnectLocked(err)
		}
	case Abort:
		s.stopConnectTimer()
		s.state = stateDisconnected
		fut := s.connectFuture
		fut.fail(&CallError{Reason: m.Reason})
	default:
		s.logger.Warn("wamp: unexpected message while connecting, ignoring", "error", ErrUnexpectedMsg, "type", fmt.Sprintf("%T", msg))
	}
}

func (s *Session) dispatchActive(msg Message) {
	switch m := msg.(type) {
	case Subscribed:
		if e, ok := s.pending.subscribe[m.Request]; ok {
			delete(s.pending.subscribe, m.Request)
			sub := &Subscription{ID: m.Subscription, Topic: e.topic, Policy: e.policy, handler: e.handler}
			s.reg.subscriptions[m.Subscription] = sub
			e.fut.complete(sub)
		}
	case Unsubscribed:
		if e, ok := s.pending.unsubscribe[m.Request]; ok {
			delete(s.pending.unsubscribe, m.Request)
			delete(s.reg.subscriptions, e.subID)
			e.fut.complete(struct{}{})
		}
	case Published:
		if f, ok := s.pending.publishAck[m.Request]; ok {
			delete(s.pending.publishAck, m.Request)
			f.complete(struct{}{})
		}
	case Registered:
		if e, ok := s.pending.register[m.Request]; ok {
			delete(s.pending.register, m.Request)
			reg := &Registration{ID: m.Registration, Procedure: e.procedure, Policy: e.policy, handler: e.handler}
			s.reg.registrations[m.Registration] = reg
			e.fut.complete(reg)
		}
	case Unregistered:
		if e, ok := s.pending.unregister[m.Request]; ok {
			delete(s.pending.unregister, m.Request)
			delete(s.reg.registrations, e.regID)
			e.fut.complete(struct{}{})
		}
	case ResultMsg:
		if f, ok := s.pending.call[m.Request]; ok {
			delete(s.pending.call, m.Request)
			f.complete(CallResult{Args: m.Args, KwArgs: m.KwArgs})
		}
	case Event:
		sub, ok := s.reg.subscriptions[m.Subscription]
		if !ok || sub.handler == nil {
			// No live subscription under this id: the router has already
			// confirmed Unsubscribed (a local Unsubscribe leaves the entry in
			// place until then), or the id was never known. Dropped without
			// a log line.
			return
		}
		s.invokeEventHandler(sub.handler, m)
	case Invocation:
		reg, ok := s.reg.registrations[m.Registration]
		if !ok || reg.handler == nil {
			s.logger.Warn("wamp: invocation for unknown registration, ignoring", "registration", m.Registration)
			return
		}
		s.invokeProcedure(reg, m)
	case ErrorMsg:
		s.dispatchError(m)
	case Goodbye:
		s.handlePeerGoodbye(m)
	default:
		s.logger.Warn("wamp: unexpected message while connected, ignoring", "error", ErrUnexpectedMsg, "type", fmt.Sprintf("%T", msg))
	}
}

// dispatchError routes an ERROR reply to the matching pending table by Kind,
// identified solely by Request id. Unsubscribe's error path removes by
// request id only, not also by subscription id: the live subscription stays
// registered until a success reply says otherwise.
func (s *Session) dispatchError(m ErrorMsg) {
	reason := &CallError{Reason: m.Reason, Args: m.Args, KwArgs: m.KwArgs}
	switch m.Kind {
	case KindSubscribe:
		if e, ok := s.pending.subscribe[m.Request]; ok {
			delete(s.pending.subscribe, m.Request)
			e.fut.fail(reason)
		}
	case KindUnsubscribe:
		if e, ok := s.pending.unsubscribe[m.Request]; ok {
			delete(s.pending.unsubscribe, m.Request)
			e.fut.fail(reason)
		}
	case KindPublish:
		if f, ok := s.pending.publishAck[m.Request]; ok {
			delete(s.pending.publishAck, m.Request)
			f.fail(reason)
		}
	case KindRegister:
		if e, ok := s.pending.register[m.Request]; ok {
			delete(s.pending.register, m.Request)
			e.fut.fail(reason)
		}
	case KindUnregister:
		if e, ok := s.pending.unregister[m.Request]; ok {
			delete(s.pending.unregister, m.Request)
			e.fut.fail(reason)
		}
	case KindCall:
		if f, ok := s.pending.call[m.Request]; ok {
			delete(s.pending.call, m.Request)
			f.fail(reason)
		}
	default:
		s.logger.Warn("wamp: error reply with unrecognized kind, dropping", "kind", m.Kind)
	}
}

// invokeEventHandler calls the user callback under the session lock, as the
// concurrency model specifies; it recovers a panic and logs it rather than
// letting it escape into the network goroutine.
func (s *Session) invokeEventHandler(h EventHandler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("wamp: event handler panicked", "panic", r)
		}
	}()
	h(ev)
}

// invokeProcedure calls the registered InvocationHandler, turns its return
// into a Yield or ErrorMsg, and sends the reply. A panic is contained and
// reported to the caller as a CallError rather than crashing the read loop.
func (s *Session) invokeProcedure(reg *Registration, inv Invocation) {
	result, callErr := s.safeInvoke(reg.handler, inv)
	if callErr != nil {
		_ = s.send(ErrorMsg{
			Kind:    KindInvocation,
			Request: inv.Request,
			Details: Dict{},
			Reason:  callErr.Reason,
			Args:    callErr.Args,
			KwArgs:  callErr.KwArgs,
		})
		return
	}
	_ = s.send(Yield{Request: inv.Request, Options: Dict{}, Args: result.Args, KwArgs: result.KwArgs})
}

func (s *Session) safeInvoke(h InvocationHandler, inv Invocation) (result CallResult, callErr *CallError) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("wamp: invocation handler panicked", "panic", r)
			callErr = &CallError{Reason: "wamp.error.runtime_error"}
		}
	}()
	return h(inv)
}

func (s *Session) handlePeerGoodbye(m Goodbye) {
	if s.state == stateShuttingDown {
		// We initiated; this is the router's reciprocating GOODBYE.
		s.logger.Info("wamp: goodbye acknowledged by router")
		s.stopKeepaliveTimer()
		s.state = stateDisconnected
		s.pending.failAll(ErrConnectionLost)
		_ = s.transport.Close()
		if fut := s.shutdownFuture; fut != nil {
			s.shutdownFuture = nil
			fut.complete(struct{}{})
		}
		return
	}
	s.logger.Info("wamp: router initiated goodbye", "reason", m.Reason)
	_ = s.send(Goodbye{Details: Dict{}, Reason: "wamp.close.goodbye_and_out"})
	s.state = stateShuttingDown
}

// OnClose runs exactly once: fail every pending sink with ErrConnectionLost,
// complete any pending shutdown future, and mark the session terminally
// Disconnected.
func (s *Session) OnClose(err error) {
	s.mu.Lock()
	if s.state == stateDisconnected {
		s.mu.Unlock()
		return
	}
	s.logger.Info("wamp: connection closed", "error", err)
	s.stopConnectTimer()
	s.stopKeepaliveTimer()
	wasConnecting := s.state == stateConnecting
	s.state = stateDisconnected
	s.closeErr = err
	failure := error(ErrConnectionLost)
	if err != nil {
		failure = fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	s.pending.failAll(failure)
	shutdownFut := s.shutdownFuture
	s.shutdownFuture = nil
	connectFut := s.connectFuture
	s.mu.Unlock()

	if shutdownFut != nil {
		shutdownFut.complete(struct{}{})
	}
	if wasConnecting {
		connectFut.fail(failure)
	}
}

// OnError reports a non-fatal transport error; it does not by itself close
// the session.
func (s *Session) OnError(err error) {
	s.logger.Warn("wamp: transport error", "error", err)
}

func (s *Session) failConnect(err error) {
	s.mu.Lock()
	s.failConnectLocked(err)
	s.mu.Unlock()
}

func (s *Session) failConnectLocked(err error) {
	if s.state != stateConnecting {
		return
	}
	s.state = stateDisconnected
	s.stopConnectTimer()
	fut := s.connectFuture
	go fut.fail(&TransportError{Err: err})
}

// send encodes and writes m. Caller must hold s.mu (matches the reference's
// "encode under the same lock as pending-table insert" ordering guarantee).
func (s *Session) send(m Message) error {
	frame, err := s.codec.Encode(m)
	if err != nil {
		return &CodecError{Err: err}
	}
	if err := s.transport.Send(frame); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}
