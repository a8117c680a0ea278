package main

import (
	"context"

	"github.com/stratastream/stateful/config"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/workergroup"

	"github.com/jessevdk/go-flags"
)

type WorkerGroupCmd struct {
	config.HomeFlag

	config.Config
}

var workerGroupCmd WorkerGroupCmd

func (cmd *WorkerGroupCmd) Execute(_ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := newProcess(ctx, cmd.Home)
	if err != nil {
		return err
	}
	defer p.close()

	svc, err := workergroup.NewService(ctx, p.log, p.conf.WorkerGroup, p.conf.Transport,
		p.conf.Gateway, p.conf.Restorer, workergroup.WordCount())
	if err != nil {
		return err
	}
	p.closer.AddErr(svc.Close, logCloseErr(p.log, "worker group service"))

	p.watcher.OnConfigUpdate(func(cfg config.Config) {
		err := svc.Post(func(w *workergroup.WorkerGroup) {
			w.ReloadConf(cfg.WorkerGroup)
			w.Gateway().ReloadConf(cfg.Gateway)
			w.Restorer().ReloadConf(cfg.Restorer)
		})
		if err != nil {
			p.log.Debug("configuration update dropped", logging.Error(err))
		}
	})

	p.log.Info("starting worker group",
		logging.String("id", p.conf.WorkerGroup.ID),
		logging.String("topology", p.conf.WorkerGroup.Topology),
		logging.String("listen", p.conf.WorkerGroup.Listen),
	)
	return p.run(ctx, svc.Run)
}

func WorkerGroup(ctx context.Context, parser *flags.Parser) error {
	workerGroupCmd = WorkerGroupCmd{
		Config: config.NewDefaultConfig(),
	}
	cmd, err := parser.AddCommand("workergroup", "Runs a worker group", "Runs the tasks placed on one worker group of the physical plan", &workerGroupCmd)
	if err != nil {
		return err
	}
	nestGroups(cmd)
	return nil
}
