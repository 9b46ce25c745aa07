package wamp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hollowoak/wampcore/wamp"
	"github.com/hollowoak/wampcore/wampjson"
)

// fakeTransport is an in-process wamp.Transport double modeled on
// internal/mcp/client_test.go's mockTransport: it captures every frame the
// session sends (decoded back into a Message for easy assertions) and lets
// the test inject inbound frames by driving the Handler directly.
type fakeTransport struct {
	codec   wamp.Codec
	sent    chan wamp.Message
	closeCh chan struct{}
	closed  bool
}

func newFakeTransport(codec wamp.Codec) *fakeTransport {
	return &fakeTransport{codec: codec, sent: make(chan wamp.Message, 64), closeCh: make(chan struct{})}
}

func (f *fakeTransport) Send(frame []byte) error {
	msg, err := f.codec.Decode(frame)
	if err != nil {
		return err
	}
	f.sent <- msg
	return nil
}

func (f *fakeTransport) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.closeCh)
	return nil
}

func (f *fakeTransport) inject(h wamp.Handler, m wamp.Message) {
	frame, err := f.codec.Encode(m)
	if err != nil {
		panic(err)
	}
	h.OnFrame()
	h.OnMessage(frame)
}

func (f *fakeTransport) wantSent(t *testing.T) wamp.Message {
	t.Helper()
	select {
	case m := <-f.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound message")
		return nil
	}
}

// fakeDialer hands back a pre-built fakeTransport, negotiating subprotocol
// unconditionally (tests only ever configure one codec). Per the Dialer
// contract it never calls handler.OnOpen itself.
type fakeDialer struct {
	transport   *fakeTransport
	subprotocol string
	lastHandler wamp.Handler
}

func (d *fakeDialer) Dial(_ context.Context, _ string, _ []string, handler wamp.Handler) (wamp.Transport, string, error) {
	d.lastHandler = handler
	return d.transport, d.subprotocol, nil
}

// connectedFixture dials, answers Hello with Welcome, and returns the ready
// client plus the transport/dialer for further injection.
func connectedFixture(t *testing.T, opts ...wamp.ConnectOption) (*wamp.Client, *fakeTransport, *fakeDialer) {
	t.Helper()
	codec := wampjson.New()
	ft := newFakeTransport(codec)
	fd := &fakeDialer{transport: ft, subprotocol: codec.Subprotocol()}

	allOpts := append([]wamp.ConnectOption{wamp.WithCodecs(codec)}, opts...)

	type result struct {
		client *wamp.Client
		err    error
	}
	done := make(chan result, 1)
	go func() {
		c, err := wamp.Connect(context.Background(), "ws://test.invalid/", "realm1", fd, allOpts...)
		done <- result{c, err}
	}()

	hello := ft.wantSent(t)
	if _, ok := hello.(wamp.Hello); !ok {
		t.Fatalf("first outbound message = %T, want Hello", hello)
	}

	ft.inject(fd.lastHandler, wamp.Welcome{Session: 42, Details: wamp.Dict{}})

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Connect: %v", r.err)
		}
		return r.client, ft, fd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Connect to resolve")
		return nil, nil, nil
	}
}

// S1 — happy subscribe: Subscribed resolves the future, Event invokes the
// callback exactly once.
func TestHappySubscribe(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	var got wamp.Event
	invoked := make(chan struct{}, 1)
	fut, err := client.Subscribe("com.x.topic", wamp.MatchExact, func(ev wamp.Event) {
		got = ev
		invoked <- struct{}{}
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	sent := ft.wantSent(t)
	sub, ok := sent.(wamp.Subscribe)
	if !ok {
		t.Fatalf("sent %T, want Subscribe", sent)
	}
	if sub.Topic != "com.x.topic" {
		t.Errorf("Subscribe.Topic = %q, want com.x.topic", sub.Topic)
	}

	ft.inject(fd.lastHandler, wamp.Subscribed{Request: sub.Request, Subscription: 777})

	subscription, err := fut.Wait(context.Background())
	if err != nil {
		t.Fatalf("subscribe future: %v", err)
	}
	if subscription.ID != 777 {
		t.Errorf("Subscription.ID = %d, want 777", subscription.ID)
	}

	ft.inject(fd.lastHandler, wamp.Event{Subscription: 777, Publication: 1, Details: wamp.Dict{}, Args: wamp.List{float64(42)}})

	select {
	case <-invoked:
	case <-time.After(2 * time.Second):
		t.Fatal("event handler was not invoked")
	}
	if len(got.Args) != 1 || got.Args[0] != float64(42) {
		t.Errorf("event args = %v, want [42]", got.Args)
	}
}

// Two Subscribeds for the same topic with different ids are both honoured —
// topics are never deduplicated client-side.
func TestSubscribe_DuplicateTopicsNotDeduplicated(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	var countA, countB int
	fut1, _ := client.Subscribe("com.x.topic", wamp.MatchExact, func(wamp.Event) { countA++ })
	req1 := ft.wantSent(t).(wamp.Subscribe).Request
	ft.inject(fd.lastHandler, wamp.Subscribed{Request: req1, Subscription: 1})
	if _, err := fut1.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	fut2, _ := client.Subscribe("com.x.topic", wamp.MatchExact, func(wamp.Event) { countB++ })
	req2 := ft.wantSent(t).(wamp.Subscribe).Request
	ft.inject(fd.lastHandler, wamp.Subscribed{Request: req2, Subscription: 2})
	if _, err := fut2.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ft.inject(fd.lastHandler, wamp.Event{Subscription: 1, Publication: 1})
	ft.inject(fd.lastHandler, wamp.Event{Subscription: 2, Publication: 2})

	time.Sleep(50 * time.Millisecond)
	if countA != 1 || countB != 1 {
		t.Errorf("countA=%d countB=%d, want 1,1", countA, countB)
	}
}

// An Event that arrives after local Unsubscribe but before the router's
// Unsubscribed is still delivered: the registry entry isn't removed until
// Unsubscribed completes.
func TestSubscribe_EventRacesLocalUnsubscribe(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	invoked := make(chan struct{}, 1)
	fut, _ := client.Subscribe("com.x.topic", wamp.MatchExact, func(wamp.Event) { invoked <- struct{}{} })
	subReq := ft.wantSent(t).(wamp.Subscribe).Request
	ft.inject(fd.lastHandler, wamp.Subscribed{Request: subReq, Subscription: 5})
	subscription, err := fut.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	unsubFut, err := client.Unsubscribe(subscription)
	if err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	unsubReq := ft.wantSent(t).(wamp.Unsubscribe).Request

	// Event races in after the local Unsubscribe call but before the
	// router's Unsubscribed arrives: the registry entry must still be live.
	ft.inject(fd.lastHandler, wamp.Event{Subscription: 5, Publication: 1})
	select {
	case <-invoked:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight event was dropped before Unsubscribed arrived")
	}

	ft.inject(fd.lastHandler, wamp.Unsubscribed{Request: unsubReq})
	if _, err := unsubFut.Wait(context.Background()); err != nil {
		t.Fatalf("unsubscribe future: %v", err)
	}
}

// S2 — call with error.
func TestCallError(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	fut, err := client.Call("com.x.add", wamp.List{float64(1), float64(2)}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	sent := ft.wantSent(t).(wamp.Call)

	ft.inject(fd.lastHandler, wamp.ErrorMsg{
		Kind:    wamp.KindCall,
		Request: sent.Request,
		Details: wamp.Dict{},
		Reason:  "wamp.error.invalid_argument",
	})

	_, err = fut.Wait(context.Background())
	var callErr *wamp.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error = %v, want *CallError", err)
	}
	if callErr.Reason != "wamp.error.invalid_argument" {
		t.Errorf("Reason = %q, want wamp.error.invalid_argument", callErr.Reason)
	}
}

// S3 — invocation round-trip: a registered procedure's successful return
// becomes a Yield.
func TestInvocationRoundTrip(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	regFut, err := client.Register("com.x.echo", wamp.MatchExact, func(inv wamp.Invocation) (wamp.CallResult, *wamp.CallError) {
		return wamp.CallResult{Args: inv.Args}, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	regReq := ft.wantSent(t).(wamp.Register).Request
	ft.inject(fd.lastHandler, wamp.Registered{Request: regReq, Registration: 55})
	if _, err := regFut.Wait(context.Background()); err != nil {
		t.Fatalf("register future: %v", err)
	}

	ft.inject(fd.lastHandler, wamp.Invocation{Request: 9, Registration: 55, Details: wamp.Dict{}, Args: wamp.List{"hello"}})

	yield := ft.wantSent(t)
	y, ok := yield.(wamp.Yield)
	if !ok {
		t.Fatalf("sent %T, want Yield", yield)
	}
	if y.Request != 9 {
		t.Errorf("Yield.Request = %d, want 9", y.Request)
	}
	if len(y.Args) != 1 || y.Args[0] != "hello" {
		t.Errorf("Yield.Args = %v, want [hello]", y.Args)
	}
}

// A panicking invocation handler surfaces as a protocol ErrorMsg rather than
// crashing the dispatcher.
func TestInvocationHandlerPanicContained(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	regFut, _ := client.Register("com.x.boom", wamp.MatchExact, func(wamp.Invocation) (wamp.CallResult, *wamp.CallError) {
		panic("kaboom")
	})
	regReq := ft.wantSent(t).(wamp.Register).Request
	ft.inject(fd.lastHandler, wamp.Registered{Request: regReq, Registration: 9})
	if _, err := regFut.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ft.inject(fd.lastHandler, wamp.Invocation{Request: 1, Registration: 9, Details: wamp.Dict{}})

	reply := ft.wantSent(t)
	errMsg, ok := reply.(wamp.ErrorMsg)
	if !ok {
		t.Fatalf("sent %T, want ErrorMsg after panicking handler", reply)
	}
	if errMsg.Kind != wamp.KindInvocation {
		t.Errorf("ErrorMsg.Kind = %v, want KindInvocation", errMsg.Kind)
	}
}

// S4 — graceful shutdown.
func TestGracefulShutdown(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- client.Shutdown(context.Background())
	}()

	goodbye := ft.wantSent(t)
	gb, ok := goodbye.(wamp.Goodbye)
	if !ok {
		t.Fatalf("sent %T, want Goodbye", goodbye)
	}
	if gb.Reason != "wamp.close.system_shutdown" {
		t.Errorf("Goodbye.Reason = %q, want wamp.close.system_shutdown", gb.Reason)
	}
	if !client.IsClosed() {
		t.Error("IsClosed() = false after sending Goodbye, want true (ShuttingDown)")
	}

	ft.inject(fd.lastHandler, wamp.Goodbye{Details: wamp.Dict{}, Reason: "wamp.close.goodbye_and_out"})

	select {
	case err := <-shutdownErr:
		if err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Shutdown to resolve")
	}
}

// S5 — abrupt disconnect drains every pending table.
func TestAbruptDisconnectDrainsPending(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	callFut, err := client.Call("com.x.add", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = ft.wantSent(t)

	pubFut, err := client.PublishAck("com.x.topic", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = ft.wantSent(t)

	subFut, err := client.Subscribe("com.x.other", wamp.MatchExact, func(wamp.Event) {})
	if err != nil {
		t.Fatal(err)
	}
	_ = ft.wantSent(t)

	fd.lastHandler.OnClose(errors.New("connection reset"))

	for name, wait := range map[string]func() error{
		"call": func() error {
			_, err := callFut.Wait(context.Background())
			return err
		},
		"publish ack": func() error {
			_, err := pubFut.Wait(context.Background())
			return err
		},
		"subscribe": func() error {
			_, err := subFut.Wait(context.Background())
			return err
		},
	} {
		if err := wait(); err == nil {
			t.Errorf("%s future resolved without error after disconnect", name)
		}
	}

	if !client.IsClosed() {
		t.Error("IsClosed() = false after disconnect, want true")
	}
}

// S6 — connect timeout: the router never answers Hello with Welcome.
func TestConnectTimeout(t *testing.T) {
	codec := wampjson.New()
	ft := newFakeTransport(codec)
	fd := &fakeDialer{transport: ft, subprotocol: codec.Subprotocol()}

	_, err := wamp.Connect(context.Background(), "ws://test.invalid/", "realm1", fd,
		wamp.WithCodecs(codec), wamp.WithConnectTimeout(30*time.Millisecond))

	if !errors.Is(err, wamp.ErrTimeout) {
		t.Fatalf("Connect error = %v, want ErrTimeout", err)
	}
	if !ft.closed {
		t.Error("transport was not closed after connect timeout")
	}
}

// Invariant 6: every facade operation fails fast once the session is
// Disconnected.
func TestStateGuardedFacade(t *testing.T) {
	client, _, fd := connectedFixture(t)
	fd.lastHandler.OnClose(errors.New("bye"))

	if _, err := client.Subscribe("com.x.topic", wamp.MatchExact, func(wamp.Event) {}); !errors.Is(err, wamp.ErrInvalidState) {
		t.Errorf("Subscribe after disconnect = %v, want ErrInvalidState", err)
	}
	if _, err := client.Call("com.x.add", nil, nil); !errors.Is(err, wamp.ErrInvalidState) {
		t.Errorf("Call after disconnect = %v, want ErrInvalidState", err)
	}
	if err := client.Shutdown(context.Background()); !errors.Is(err, wamp.ErrInvalidState) {
		t.Errorf("Shutdown after disconnect = %v, want ErrInvalidState", err)
	}
}

// Invariant 1: request ids allocated across every facade operation are
// strictly increasing.
func TestMonotonicIDs(t *testing.T) {
	client, ft, fd := connectedFixture(t)

	var ids []wamp.ID
	fut1, _ := client.Call("com.x.a", nil, nil)
	ids = append(ids, ft.wantSent(t).(wamp.Call).Request)
	fut2, _ := client.Subscribe("com.x.b", wamp.MatchExact, func(wamp.Event) {})
	ids = append(ids, ft.wantSent(t).(wamp.Subscribe).Request)
	fut3, _ := client.Register("com.x.c", wamp.MatchExact, func(wamp.Invocation) (wamp.CallResult, *wamp.CallError) {
		return wamp.CallResult{}, nil
	})
	ids = append(ids, ft.wantSent(t).(wamp.Register).Request)

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
	}

	fd.lastHandler.OnClose(errors.New("test cleanup"))
	_, _ = fut1.Wait(context.Background())
	_, _ = fut2.Wait(context.Background())
	_, _ = fut3.Wait(context.Background())
}
