package wamp

import "time"

// defaultConnectTimeout and defaultKeepalive are sensible LAN-router
// defaults, both overridable via ConnectOptions (see client.go) since a
// fixed 5s liveness window is too rigid for anything but a local router.
const (
	defaultConnectTimeout = 5 * time.Second
	defaultKeepalive      = 5 * time.Second
)

// armConnectTimer starts (or restarts) the connect-deadline timer. Must be
// called with s.mu held.
func (s *Session) armConnectTimer() {
	s.stopConnectTimer()
	s.connectTimer = time.AfterFunc(s.connectTimeout, func() { s.onConnectTimeout() })
}

func (s *Session) stopConnectTimer() {
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
}

// armKeepaliveTimer (re)starts the keepalive/inactivity timer. Called once a
// session becomes Connected and rearmed on every inbound frame (OnFrame),
// so the timer only fires after a genuine gap in router traffic.
func (s *Session) armKeepaliveTimer() {
	s.stopKeepaliveTimer()
	s.keepaliveTimer = time.AfterFunc(s.keepaliveEvery, func() { s.onKeepaliveExpired() })
}

func (s *Session) stopKeepaliveTimer() {
	if s.keepaliveTimer != nil {
		s.keepaliveTimer.Stop()
		s.keepaliveTimer = nil
	}
}

// onConnectTimeout fires if Welcome (or a CHALLENGE/Authenticate round trip)
// doesn't complete within the connect deadline. A no-op if the session has
// already moved past Connecting.
func (s *Session) onConnectTimeout() {
	s.mu.Lock()
	if s.state != stateConnecting {
		s.mu.Unlock()
		return
	}
	s.logger.Warn("wamp: connect timed out", "timeout", s.connectTimeout)
	s.state = stateDisconnected
	fut := s.connectFuture
	_ = s.transport.Close()
	s.mu.Unlock()

	fut.fail(ErrTimeout)
}

// onKeepaliveExpired fires when no inbound frame has arrived within the
// keepalive window. It forces the transport closed; the transport's
// resulting OnClose call does the rest of the teardown.
func (s *Session) onKeepaliveExpired() {
	s.mu.Lock()
	if s.state == stateDisconnected {
		s.mu.Unlock()
		return
	}
	s.logger.Warn("wamp: keepalive expired, closing connection", "interval", s.keepaliveEvery)
	s.mu.Unlock()
	_ = s.transport.Close()
}
