package main

import (
	"context"

	"github.com/stratastream/stateful/ckptmgr"
	"github.com/stratastream/stateful/config"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/storage"

	"github.com/jessevdk/go-flags"
)

type CheckpointManagerCmd struct {
	config.HomeFlag

	config.Config
}

var checkpointManagerCmd CheckpointManagerCmd

// Execute runs the checkpoint manager of the worker group configured in the
// same home. Configuration changes are picked up on restart.
func (cmd *CheckpointManagerCmd) Execute(_ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := newProcess(ctx, cmd.Home)
	if err != nil {
		return err
	}
	defer p.close()

	backend, err := storage.New(p.log, p.conf.Storage, cmd.Home)
	if err != nil {
		return err
	}
	p.closer.AddErr(backend.Close, logCloseErr(p.log, "storage backend"))

	server, err := ckptmgr.NewServer(p.log, p.conf.CheckpointManager,
		p.conf.WorkerGroup.Topology, p.conf.WorkerGroup.RunID, backend)
	if err != nil {
		return err
	}
	svc, err := ckptmgr.NewService(ctx, p.log, p.conf.CheckpointManager, p.conf.Transport, server)
	if err != nil {
		return err
	}
	p.closer.AddErr(svc.Close, logCloseErr(p.log, "checkpoint manager service"))

	p.log.Info("starting checkpoint manager",
		logging.String("topology", p.conf.WorkerGroup.Topology),
		logging.String("storage", p.conf.Storage.Type),
		logging.String("listen", p.conf.CheckpointManager.Listen),
	)
	return p.run(ctx, svc.Run)
}

func CheckpointManager(ctx context.Context, parser *flags.Parser) error {
	checkpointManagerCmd = CheckpointManagerCmd{
		Config: config.NewDefaultConfig(),
	}
	cmd, err := parser.AddCommand("ckptmgr", "Runs a checkpoint manager", "Runs the checkpoint manager storing the instance states of one worker group", &checkpointManagerCmd)
	if err != nil {
		return err
	}
	nestGroups(cmd)
	return nil
}
