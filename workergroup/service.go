package workergroup

import (
	"context"

	"github.com/stratastream/stateful/barrier"
	"github.com/stratastream/stateful/libs/eventloop"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/restorer"
	"github.com/stratastream/stateful/transport"
	"github.com/stratastream/stateful/types"

	"golang.org/x/sync/errgroup"
)

const (
	controllerRemote        = "controller"
	checkpointManagerRemote = "ckptmgr"
)

// Service runs a WorkerGroup on its own event loop. One router holds the
// controller and checkpoint manager connections, another the peers.
type Service struct {
	log      *logging.Logger
	cfg      Config
	loop     *eventloop.Loop
	inbox    *transport.Inbox
	control  *transport.Router
	peers    *transport.Router
	requests *transport.Requests
	wg       *WorkerGroup
}

func NewService(
	ctx context.Context,
	log *logging.Logger,
	cfg Config,
	tcfg transport.Config,
	gatewayCfg barrier.Config,
	restorerCfg restorer.Config,
	components Components,
) (*Service, error) {
	inbox, err := transport.Listen(log, tcfg, cfg.Listen)
	if err != nil {
		return nil, err
	}
	s := &Service{
		log:      log.Named(namedLogger),
		cfg:      cfg,
		loop:     eventloop.New(),
		inbox:    inbox,
		requests: transport.NewRequests(),
	}
	s.control = transport.NewRouter(ctx, log, tcfg, cfg.ID, controlEvents{s})
	s.peers = transport.NewRouter(ctx, log, tcfg, cfg.ID, peerEvents{s})

	s.wg = New(log, cfg, gatewayCfg, restorerCfg, components,
		controllerClient{log: s.log, router: s.control},
		ckptmgrClient{log: s.log, router: s.control, requests: s.requests},
		routerPeers{log: s.log, self: types.WorkerGroupID(cfg.ID), router: s.peers},
		s.loop,
	)
	return s, nil
}

// Post runs fn on the worker group event loop.
func (s *Service) Post(fn func(*WorkerGroup)) error {
	return s.loop.Post(func() { fn(s.wg) })
}

// Run connects to the controller and the checkpoint manager and serves
// until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop.Run(ctx)
	})
	g.Go(func() error {
		return s.inbox.Receive(ctx, s.handle)
	})
	g.Go(func() error {
		if err := s.control.Add(controllerRemote, s.cfg.Controller); err != nil {
			return err
		}
		if err := s.control.Add(checkpointManagerRemote, s.cfg.CheckpointManager); err != nil {
			return err
		}
		stop := s.loop.Every(s.cfg.SpoutInterval.Get(), s.wg.Tick)
		defer stop()
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

func (s *Service) handle(env transport.Envelope, msg types.Message) {
	err := s.loop.Post(func() {
		if len(env.RequestID) > 0 {
			if !s.requests.Resolve(env.RequestID, msg) {
				s.log.Debug("response to a forgotten request",
					logging.String("kind", string(env.Kind)),
					logging.String("request-id", env.RequestID),
				)
			}
			return
		}
		s.wg.Handle(msg)
	})
	if err != nil {
		s.log.Debug("dropping message, loop stopped", logging.String("kind", string(env.Kind)))
	}
}

func (s *Service) Close() error {
	s.control.Close()
	s.peers.Close()
	return s.inbox.Close()
}

// controlEvents turns controller and checkpoint manager connection changes
// into worker group events.
type controlEvents struct {
	s *Service
}

func (e controlEvents) Connected(name string) {
	_ = e.s.loop.Post(func() {
		switch name {
		case controllerRemote:
			e.s.wg.OnControllerConnected()
		case checkpointManagerRemote:
			e.s.wg.OnCheckpointManagerConnected()
		}
	})
}

func (e controlEvents) Disconnected(name string) {
	_ = e.s.loop.Post(func() {
		switch name {
		case controllerRemote:
			e.s.log.Warn("lost the controller connection")
		case checkpointManagerRemote:
			if n := e.s.requests.Clear(); n > 0 {
				e.s.log.Warn("lost the checkpoint manager connection, dropping requests", logging.Int("requests", n))
			}
			e.s.wg.OnCheckpointManagerDisconnected()
		}
	})
}

// peerEvents reports peer connection changes. Events of an outbox that was
// closed or replaced in the meantime are filtered out on the loop.
type peerEvents struct {
	s *Service
}

func (e peerEvents) Connected(name string) {
	_ = e.s.loop.Post(func() {
		if e.s.peers.Connected(name) {
			e.s.wg.OnPeerConnected()
		}
	})
}

func (e peerEvents) Disconnected(name string) {
	_ = e.s.loop.Post(func() {
		if e.s.peers.Has(name) && !e.s.peers.Connected(name) {
			e.s.log.Warn("lost a peer connection", logging.String("peer", name))
			e.s.wg.OnPeerDisconnected()
		}
	})
}

type controllerClient struct {
	log    *logging.Logger
	router *transport.Router
}

func (c controllerClient) Send(msg types.Message) {
	if err := c.router.Send(controllerRemote, msg); err != nil {
		c.log.Warn("could not send to the controller",
			logging.String("kind", string(msg.Kind())),
			logging.Error(err),
		)
	}
}

type ckptmgrClient struct {
	log      *logging.Logger
	router   *transport.Router
	requests *transport.Requests
}

func (c ckptmgrClient) Request(msg types.Message, cb func(types.Message)) {
	id := c.requests.Add(cb)
	if err := c.router.Request(checkpointManagerRemote, id, msg); err != nil {
		c.requests.Forget(id)
		c.log.Warn("could not send to the checkpoint manager",
			logging.String("kind", string(msg.Kind())),
			logging.Error(err),
		)
	}
}

// routerPeers keeps one outbox per peer of the plan.
type routerPeers struct {
	log    *logging.Logger
	self   types.WorkerGroupID
	router *transport.Router
}

func (p routerPeers) CloseAndClear() {
	p.router.RemoveAll()
}

func (p routerPeers) StartConnections(plan *types.PhysicalPlan) {
	for _, peer := range plan.Peers(p.self) {
		if len(peer.Address) == 0 {
			p.log.Warn("peer has no address yet", logging.WorkerGroupID(peer.ID))
			continue
		}
		if err := p.router.Add(string(peer.ID), peer.Address); err != nil {
			p.log.Error("could not connect to peer",
				logging.WorkerGroupID(peer.ID),
				logging.String("address", peer.Address),
				logging.Error(err),
			)
		}
	}
}

func (p routerPeers) AllConnected() bool {
	return p.router.AllConnected()
}

func (p routerPeers) Send(wg types.WorkerGroupID, msg types.Message) {
	if err := p.router.Send(string(wg), msg); err != nil {
		p.log.Debug("could not send to peer",
			logging.WorkerGroupID(wg),
			logging.String("kind", string(msg.Kind())),
			logging.Error(err),
		)
	}
}
