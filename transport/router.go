package transport

import (
	"context"
	"sync"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/types"

	"github.com/pkg/errors"
)

var ErrUnknownRemote = errors.New("unknown remote")

// RouterEvents is told about connection changes of named remotes.
type RouterEvents interface {
	Connected(name string)
	Disconnected(name string)
}

// Router owns one outbox per named remote and runs them.
type Router struct {
	log    *logging.Logger
	cfg    Config
	from   string
	events RouterEvents

	mu      sync.Mutex
	ctx     context.Context
	remotes map[string]*route
	wg      sync.WaitGroup
}

type route struct {
	*Outbox
	cancel func()
}

type namedEvents struct {
	name   string
	events RouterEvents
}

func (n namedEvents) Connected(string)    { n.events.Connected(n.name) }
func (n namedEvents) Disconnected(string) { n.events.Disconnected(n.name) }

type noRouterEvents struct{}

func (noRouterEvents) Connected(string)    {}
func (noRouterEvents) Disconnected(string) {}

// NewRouter returns a router whose outboxes live until ctx is done.
func NewRouter(ctx context.Context, log *logging.Logger, cfg Config, from string, events RouterEvents) *Router {
	if events == nil {
		events = noRouterEvents{}
	}
	return &Router{
		log:     log.Named(namedLogger).Named("router"),
		cfg:     cfg,
		from:    from,
		events:  events,
		ctx:     ctx,
		remotes: map[string]*route{},
	}
}

// Add starts an outbox to addr under name. An existing outbox with the same
// name and address is kept, one with another address is replaced.
func (r *Router) Add(name, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rt, ok := r.remotes[name]; ok {
		if rt.Addr() == addr {
			return nil
		}
		r.removeLocked(name)
	}

	o, err := NewOutbox(r.log, r.cfg, r.from, addr, namedEvents{name: name, events: r.events})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.remotes[name] = &route{Outbox: o, cancel: cancel}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := o.Run(ctx); err != nil {
			r.log.Error("outbox stopped", logging.String("remote", name), logging.Error(err))
		}
	}()
	return nil
}

func (r *Router) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(name)
}

func (r *Router) removeLocked(name string) {
	rt, ok := r.remotes[name]
	if !ok {
		return
	}
	rt.cancel()
	if err := rt.Close(); err != nil {
		r.log.Debug("error closing outbox", logging.String("remote", name), logging.Error(err))
	}
	delete(r.remotes, name)
}

// RemoveAll closes every outbox.
func (r *Router) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range r.remotes {
		r.removeLocked(name)
	}
}

func (r *Router) Send(name string, msg types.Message) error {
	return r.Request(name, "", msg)
}

func (r *Router) Request(name, requestID string, msg types.Message) error {
	r.mu.Lock()
	rt, ok := r.remotes[name]
	r.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrUnknownRemote, "%s", name)
	}
	return rt.Request(requestID, msg)
}

func (r *Router) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.remotes[name]
	return ok
}

func (r *Router) Connected(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.remotes[name]
	return ok && rt.Connected()
}

// AllConnected reports whether every remote has a connection up. It is true
// when there are no remotes.
func (r *Router) AllConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.remotes {
		if !rt.Connected() {
			return false
		}
	}
	return true
}

// Close removes every remote and waits for their goroutines.
func (r *Router) Close() {
	r.RemoveAll()
	r.wg.Wait()
}
