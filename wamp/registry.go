package wamp

// EventHandler is invoked for every Event delivered on a subscription. It is
// called under the session's mutex, so it must not call back into the
// Client synchronously.
type EventHandler func(ev Event)

// InvocationHandler serves one RPC call. Its return value becomes a Yield;
// returning a *CallError sends an ERROR instead. A panic inside the handler
// is recovered by the dispatcher and reported as a CallError; it never
// crashes the network goroutine.
type InvocationHandler func(inv Invocation) (result CallResult, callErr *CallError)

// Subscription is a live subscription, returned by Client.Subscribe and kept
// in the session's subscription registry keyed by router-assigned id.
type Subscription struct {
	ID      ID
	Topic   URI
	Policy  MatchingPolicy
	handler EventHandler
}

// Registration is a live procedure registration, returned by Client.Register
// and kept in the session's registration registry keyed by router-assigned
// id.
type Registration struct {
	ID        ID
	Procedure URI
	Policy    MatchingPolicy
	handler   InvocationHandler
}

// registries holds the two router-id-keyed tables (distinct from the
// request-id-keyed pendingTables): live subscriptions and registrations.
type registries struct {
	subscriptions map[ID]*Subscription
	registrations map[ID]*Registration
}

func newRegistries() *registries {
	return &registries{
		subscriptions: make(map[ID]*Subscription),
		registrations: make(map[ID]*Registration),
	}
}
