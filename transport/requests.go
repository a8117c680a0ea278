package transport

import (
	"github.com/stratastream/stateful/types"

	"github.com/google/uuid"
)

// Requests holds the continuations of outstanding requests, keyed by
// request id. It is not safe for concurrent use, keep it on the event loop.
type Requests struct {
	pending map[string]func(types.Message)
}

func NewRequests() *Requests {
	return &Requests{
		pending: map[string]func(types.Message){},
	}
}

// Add registers cb and returns the request id to send along the request.
func (r *Requests) Add(cb func(types.Message)) string {
	id := uuid.NewString()
	r.pending[id] = cb
	return id
}

// Resolve runs and forgets the continuation of id. It reports false for
// unknown ids, a response to a request dropped by Clear for instance.
func (r *Requests) Resolve(id string, msg types.Message) bool {
	cb, ok := r.pending[id]
	if !ok {
		return false
	}
	delete(r.pending, id)
	cb(msg)
	return true
}

// Forget drops the continuation of id without running it.
func (r *Requests) Forget(id string) {
	delete(r.pending, id)
}

func (r *Requests) Len() int {
	return len(r.pending)
}

// Clear forgets every outstanding request and returns how many there were.
func (r *Requests) Clear() int {
	n := len(r.pending)
	r.pending = map[string]func(types.Message){}
	return n
}
