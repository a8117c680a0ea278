package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/stratastream/stateful/config"
	vgclose "github.com/stratastream/stateful/libs/close"
	vgzap "github.com/stratastream/stateful/libs/zap"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
)

// loadConfig watches the configuration of home. The command line is parsed
// again over every loaded file so flags keep precedence.
func loadConfig(ctx context.Context, log *logging.Logger, home string) (*config.Watcher, error) {
	parseFlagOpt := func(cfg *config.Config) error {
		_, err := flags.NewParser(cfg, flags.Default|flags.IgnoreUnknown).Parse()
		return err
	}
	return config.NewWatcher(ctx, log, home, config.Use(parseFlagOpt))
}

// homePath resolves p against home unless it is absolute.
func homePath(home, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(home, p)
}

func logCloseErr(log *logging.Logger, what string) func(error) {
	return func(err error) {
		log.Error("could not close "+what, logging.Error(err))
	}
}

// process is what every long running sub command shares: the logger built
// from the configuration, the closers run on exit and the metrics server.
type process struct {
	log     *logging.Logger
	conf    config.Config
	watcher *config.Watcher
	closer  *vgclose.Closer
	metrics *metrics.Server
}

func newProcess(ctx context.Context, home string) (*process, error) {
	bootLog := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	watcher, err := loadConfig(ctx, bootLog, home)
	if err != nil {
		bootLog.AtExit()
		return nil, err
	}
	conf := watcher.Get()
	p := &process{
		log:     logging.NewLoggerFromConfig(conf.Logging),
		conf:    conf,
		watcher: watcher,
		closer:  vgclose.NewCloser(),
	}
	p.closer.Add(vgzap.Sync(p.log))

	p.metrics, err = metrics.Start(p.log, conf.Metrics)
	if err != nil {
		p.close()
		return nil, err
	}
	if p.metrics != nil {
		p.closer.AddErr(p.metrics.Stop, logCloseErr(p.log, "metrics server"))
	}
	return p, nil
}

// run runs fn until ctx is done, fn fails or the metrics server stops
// listening.
func (p *process) run(ctx context.Context, fn func(context.Context) error) error {
	var metricsErrs <-chan error
	if p.metrics != nil {
		metricsErrs = p.metrics.Errors()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return fn(ctx)
	})
	g.Go(func() error {
		select {
		case err := <-metricsErrs:
			return err
		case <-ctx.Done():
			return nil
		}
	})
	return g.Wait()
}

func (p *process) close() {
	p.closer.CloseAll()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
