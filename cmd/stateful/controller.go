package main

import (
	"context"

	"github.com/stratastream/stateful/config"
	"github.com/stratastream/stateful/controller"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/statemgr"

	"github.com/jessevdk/go-flags"
)

type ControllerCmd struct {
	config.HomeFlag

	config.Config
}

var controllerCmd ControllerCmd

func (cmd *ControllerCmd) Execute(_ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := newProcess(ctx, cmd.Home)
	if err != nil {
		return err
	}
	defer p.close()

	plan, err := controller.LoadPlan(homePath(cmd.Home, p.conf.Controller.PlanFile))
	if err != nil {
		return err
	}

	store, err := statemgr.NewStore(p.log, p.conf.StateManager, cmd.Home)
	if err != nil {
		return err
	}
	p.closer.AddErr(store.Close, logCloseErr(p.log, "state store"))

	svc, err := controller.NewService(ctx, p.log, p.conf.Controller, p.conf.Transport,
		p.conf.Checkpoint, p.conf.Restore, plan, store)
	if err != nil {
		return err
	}
	p.closer.AddErr(svc.Close, logCloseErr(p.log, "controller service"))

	p.watcher.OnConfigUpdate(func(cfg config.Config) {
		err := svc.Post(func(c *controller.Controller) {
			store.ReloadConf(cfg.StateManager)
			c.ReloadConf(cfg.Controller)
			c.ReloadEnginesConf(cfg.Checkpoint, cfg.Restore)
		})
		if err != nil {
			p.log.Debug("configuration update dropped", logging.Error(err))
		}
	})

	p.log.Info("starting controller",
		logging.String("topology", plan.Topology),
		logging.String("run-id", plan.RunID),
		logging.String("listen", p.conf.Controller.Listen),
	)
	return p.run(ctx, svc.Run)
}

func Controller(ctx context.Context, parser *flags.Parser) error {
	controllerCmd = ControllerCmd{
		Config: config.NewDefaultConfig(),
	}
	cmd, err := parser.AddCommand("controller", "Runs the topology controller", "Runs the controller coordinating checkpoints and restores of a topology", &controllerCmd)
	if err != nil {
		return err
	}
	nestGroups(cmd)
	return nil
}

// nestGroups prints nested groups under their parent's name using `::` as
// the separator.
func nestGroups(cmd *flags.Command) {
	for _, parent := range cmd.Groups() {
		for _, grp := range parent.Groups() {
			grp.ShortDescription = parent.ShortDescription + "::" + grp.ShortDescription
		}
	}
}
