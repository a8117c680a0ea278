package ckptmgr

import (
	"context"
	"sync"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/transport"
	"github.com/stratastream/stateful/types"
)

// Service exposes a Server on an inbox and sends the responses back to the
// registered worker group. Losing the connection to that worker group ends
// its session.
type Service struct {
	log    *logging.Logger
	inbox  *transport.Inbox
	router *transport.Router

	// guards server, used by the inbox and the router goroutines
	mu     sync.Mutex
	server *Server
}

func NewService(ctx context.Context, log *logging.Logger, cfg Config, tcfg transport.Config, server *Server) (*Service, error) {
	inbox, err := transport.Listen(log, tcfg, cfg.Listen)
	if err != nil {
		return nil, err
	}
	s := &Service{
		log:    log.Named(namedLogger),
		server: server,
		inbox:  inbox,
	}
	s.router = transport.NewRouter(ctx, log, tcfg, "ckptmgr", sessionEvents{s})
	return s, nil
}

// Run serves requests until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	return s.inbox.Receive(ctx, s.handle)
}

func (s *Service) handle(env transport.Envelope, msg types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		resp types.Message
		err  error
	)
	if reg, ok := msg.(types.RegisterWorkerGroup); ok {
		if err := s.router.Add(string(reg.WorkerGroup), reg.Address); err != nil {
			s.log.Error("could not open the response channel",
				logging.WorkerGroupID(reg.WorkerGroup),
				logging.String("address", reg.Address),
				logging.Error(err),
			)
			return
		}
		resp = s.server.Register(reg)
	} else if resp, err = s.server.Handle(msg); err != nil {
		s.log.Warn("ignoring message", logging.String("from", env.From), logging.Error(err))
		return
	}

	if err := s.router.Request(env.From, env.RequestID, resp); err != nil {
		s.log.Warn("could not send response",
			logging.String("to", env.From),
			logging.String("kind", string(resp.Kind())),
			logging.Error(err),
		)
	}
}

// Registered returns the worker group holding the session, if any.
func (s *Service) Registered() types.WorkerGroupID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server.Registered()
}

func (s *Service) Close() error {
	s.router.Close()
	return s.inbox.Close()
}

// sessionEvents closes the session of a worker group whose connection went
// down and did not come back. Closed outboxes report nothing, so the hook
// never runs under the router lock.
type sessionEvents struct {
	s *Service
}

func (sessionEvents) Connected(string) {}

func (e sessionEvents) Disconnected(name string) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if e.s.router.Connected(name) {
		return
	}
	wg := types.WorkerGroupID(name)
	if e.s.server.Registered() == wg {
		e.s.log.Info("lost connection to the registered worker group, closing its session", logging.WorkerGroupID(wg))
	}
	e.s.server.Unregister(wg)
}
