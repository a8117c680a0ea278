package controller

import (
	"context"
	"time"

	"github.com/stratastream/stateful/checkpoint"
	"github.com/stratastream/stateful/libs/eventloop"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/restore"
	"github.com/stratastream/stateful/transport"
	"github.com/stratastream/stateful/types"

	"golang.org/x/sync/errgroup"
)

// routerBroker sends to worker groups through a transport router.
type routerBroker struct {
	log    *logging.Logger
	router *transport.Router
}

func (b routerBroker) Connect(wg types.WorkerGroupID, addr string) error {
	return b.router.Add(string(wg), addr)
}

func (b routerBroker) Send(wg types.WorkerGroupID, msg types.Message) {
	if err := b.router.Send(string(wg), msg); err != nil {
		b.log.Warn("could not send to worker group",
			logging.WorkerGroupID(wg),
			logging.String("kind", string(msg.Kind())),
			logging.Error(err),
		)
	}
}

// Service runs a Controller on its own event loop, fed by an inbox.
type Service struct {
	log    *logging.Logger
	cfg    Config
	loop   *eventloop.Loop
	inbox  *transport.Inbox
	router *transport.Router
	ctrl   *Controller
	fatal  chan error
}

func NewService(
	ctx context.Context,
	log *logging.Logger,
	cfg Config,
	tcfg transport.Config,
	ckptCfg checkpoint.Config,
	restoreCfg restore.Config,
	plan *types.PhysicalPlan,
	store checkpoint.RecordStore,
) (*Service, error) {
	inbox, err := transport.Listen(log, tcfg, cfg.Listen)
	if err != nil {
		return nil, err
	}
	router := transport.NewRouter(ctx, log, tcfg, "controller", nil)
	broker := routerBroker{log: log.Named(namedLogger), router: router}

	ckpt, err := checkpoint.New(ctx, log, ckptCfg, plan.Topology, uint64(time.Now().Unix()), broker, store)
	if err != nil {
		inbox.Close()
		router.Close()
		return nil, err
	}

	s := &Service{
		log:    log.Named(namedLogger),
		cfg:    cfg,
		loop:   eventloop.New(),
		inbox:  inbox,
		router: router,
		fatal:  make(chan error, 1),
	}
	s.ctrl = New(log, cfg, restoreCfg, plan, broker, ckpt, s.onFatal)
	return s, nil
}

func (s *Service) onFatal(err error) {
	select {
	case s.fatal <- err:
	default:
	}
}

// Post runs fn on the controller event loop.
func (s *Service) Post(fn func(*Controller)) error {
	return s.loop.Post(func() { fn(s.ctrl) })
}

// Run serves until ctx is done or the topology cannot be restored.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop.Run(ctx)
	})
	g.Go(func() error {
		return s.inbox.Receive(ctx, func(env transport.Envelope, msg types.Message) {
			if err := s.loop.Post(func() { s.ctrl.Handle(ctx, msg) }); err != nil {
				s.log.Debug("dropping message, loop stopped", logging.String("kind", string(env.Kind)))
			}
		})
	})
	g.Go(func() error {
		stop := s.loop.Every(s.cfg.TickInterval.Get(), func() { s.ctrl.Tick(time.Now()) })
		defer stop()
		select {
		case <-ctx.Done():
			return nil
		case err := <-s.fatal:
			return err
		}
	})
	return g.Wait()
}

func (s *Service) Close() error {
	s.router.Close()
	return s.inbox.Close()
}
