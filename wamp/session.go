package wamp

import (
	"log/slog"
	"sync"
	"time"
)

// state is the session's position in the four-state machine from the data
// model: Connecting -> Connected -> ShuttingDown -> Disconnected. A
// transport failure can also jump straight from Connecting or Connected to
// Disconnected.
type state int

const (
	stateConnecting state = iota
	stateConnected
	stateShuttingDown
	stateDisconnected
)

func (s state) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateShuttingDown:
		return "shutting_down"
	case stateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Authenticator answers a router CHALLENGE during the Hello/Welcome
// handshake. A nil Authenticator means the session expects Welcome to follow
// Hello directly, with no authentication step.
type Authenticator interface {
	Authenticate(extra Dict, challenge Challenge) (signature string, authExtra Dict, err error)
}

// Session is the single mutex-guarded shared-state record the network
// goroutine and user goroutines both operate on. Client wraps a Session
// with the public facade methods.
type Session struct {
	mu sync.Mutex

	state     state
	codec     Codec
	transport Transport
	logger    *slog.Logger

	ids      idAllocator
	pending  *pendingTables
	reg      *registries
	sess     ID  // router-assigned WAMP session id, set on Welcome
	realm    URI
	agentID  string
	authn    Authenticator
	authInfo Dict

	connectFuture  *Future[*Session]
	shutdownFuture *Future[struct{}]

	connectTimer   *time.Timer
	keepaliveTimer *time.Timer
	connectTimeout time.Duration
	keepaliveEvery time.Duration

	closeErr error
}

func newSession(codec Codec, transport Transport, realm URI, logger *slog.Logger, connectTimeout, keepalive time.Duration, authn Authenticator) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		state:          stateConnecting,
		codec:          codec,
		transport:      transport,
		logger:         logger,
		pending:        newPendingTables(),
		reg:            newRegistries(),
		realm:          realm,
		authn:          authn,
		connectFuture:  newFuture[*Session](),
		connectTimeout: connectTimeout,
		keepaliveEvery: keepalive,
	}
}

// IsClosed reports whether the session is ShuttingDown or Disconnected — the
// two states in which no new requests may be issued.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateShuttingDown || s.state == stateDisconnected
}

func (s *Session) currentState() state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// stateErrLocked returns the error a facade method should report for the
// current (non-Connected) state. Caller must hold s.mu. ShuttingDown gets
// its own sentinel since "a Goodbye exchange is in flight" is a more useful
// diagnosis than the generic ErrInvalidState.
func (s *Session) stateErrLocked() error {
	if s.state == stateShuttingDown {
		return ErrShuttingDown
	}
	return ErrInvalidState
}
