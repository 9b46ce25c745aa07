package wamp

// ID is a protocol identifier: either a client-allocated request id or a
// router-assigned subscription/registration/publication/session id.
type ID = uint64

// idAllocator hands out monotonically increasing request ids. It lives in the
// Session and is used only by the Client facade methods while they hold the
// session mutex; the dispatcher never touches it, so it needs no locking of
// its own.
type idAllocator struct {
	next ID
}

// allocate returns the next request id, starting at 1.
func (a *idAllocator) allocate() ID {
	a.next++
	return a.next
}
