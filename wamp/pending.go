package wamp

// CallResult is the success value of a Call future: the positional and
// keyword arguments a RESULT message carried.
type CallResult struct {
	Args   List
	KwArgs Dict
}

// subscribeEntry pairs a subscribe future with the topic, matching policy,
// and callback the request was made with, so the dispatcher can populate the
// completed Subscription's fields and install its handler in the
// subscriptions registry under the same lock that processes Subscribed —
// there is never a window where the subscription is live without a handler.
type subscribeEntry struct {
	fut     *Future[*Subscription]
	topic   URI
	policy  MatchingPolicy
	handler EventHandler
}

// registerEntry is subscribeEntry's registration-side twin.
type registerEntry struct {
	fut       *Future[*Registration]
	procedure URI
	policy    MatchingPolicy
	handler   InvocationHandler
}

// unsubscribeEntry pairs an unsubscribe future with the subscription id it
// targets, so the dispatcher can remove exactly that registry entry once the
// router confirms — not eagerly when the user calls Unsubscribe. An Event
// racing in between the local call and the router's Unsubscribed reply must
// still reach the callback, since the subscription was still live in the
// router when that Event was sent.
type unsubscribeEntry struct {
	fut   *Future[struct{}]
	subID ID
}

// unregisterEntry is unsubscribeEntry's registration-side twin.
type unregisterEntry struct {
	fut   *Future[struct{}]
	regID ID
}

// pendingTables holds the six request-id-keyed completion sinks described by
// the data model: one per outstanding Subscribe/Unsubscribe/Register/
// Unregister/Call/acknowledged-Publish. All access happens under the
// session's single mutex; these maps never need their own locking.
type pendingTables struct {
	subscribe   map[ID]*subscribeEntry
	unsubscribe map[ID]*unsubscribeEntry
	register    map[ID]*registerEntry
	unregister  map[ID]*unregisterEntry
	call        map[ID]*Future[CallResult]
	publishAck  map[ID]*Future[struct{}]
}

func newPendingTables() *pendingTables {
	return &pendingTables{
		subscribe:   make(map[ID]*subscribeEntry),
		unsubscribe: make(map[ID]*unsubscribeEntry),
		register:    make(map[ID]*registerEntry),
		unregister:  make(map[ID]*unregisterEntry),
		call:        make(map[ID]*Future[CallResult]),
		publishAck:  make(map[ID]*Future[struct{}]),
	}
}

// failAll fails every pending entry across all six tables with err and
// drains the tables. Called once on disconnect.
func (p *pendingTables) failAll(err error) {
	for id, e := range p.subscribe {
		e.fut.fail(err)
		delete(p.subscribe, id)
	}
	for id, e := range p.unsubscribe {
		e.fut.fail(err)
		delete(p.unsubscribe, id)
	}
	for id, e := range p.register {
		e.fut.fail(err)
		delete(p.register, id)
	}
	for id, e := range p.unregister {
		e.fut.fail(err)
		delete(p.unregister, id)
	}
	for id, f := range p.call {
		f.fail(err)
		delete(p.call, id)
	}
	for id, f := range p.publishAck {
		f.fail(err)
		delete(p.publishAck, id)
	}
}
