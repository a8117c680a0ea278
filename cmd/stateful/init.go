package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/stratastream/stateful/config"
	"github.com/stratastream/stateful/controller"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/types"

	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	config.HomeFlag

	Force        bool `short:"f" long:"force" description:"Erase existing configuration at the specified path"`
	WorkerGroups int  `long:"worker-groups" default:"2" description:"Number of worker groups in the sample plan"`
}

var initCmd InitCmd

func (cmd *InitCmd) Execute(_ []string) error {
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer log.AtExit()

	if cmd.WorkerGroups < 1 {
		return fmt.Errorf("at least one worker group is required, got %d", cmd.WorkerGroups)
	}

	cfg := config.NewDefaultConfig()
	if err := config.Write(cmd.Home, cfg, cmd.Force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("configuration already exists at `%s` please remove it first or re-run using -f", config.Path(cmd.Home))
		}
		return err
	}

	planPath := homePath(cmd.Home, cfg.Controller.PlanFile)
	plan := wordCountPlan(cfg.WorkerGroup.Topology, cfg.WorkerGroup.RunID, cmd.WorkerGroups)
	if err := controller.SavePlan(planPath, plan); err != nil {
		return err
	}

	log.Info("configuration generated successfully",
		logging.String("config", config.Path(cmd.Home)),
		logging.String("plan", planPath),
	)
	return nil
}

// wordCountPlan places one word spout and one counter on each of n worker
// groups. Every counter reads from every spout.
func wordCountPlan(topology, runID string, n int) *types.PhysicalPlan {
	plan := &types.PhysicalPlan{
		Topology:  topology,
		RunID:     runID,
		Upstreams: map[types.TaskID][]types.TaskID{},
	}
	var spouts, counters []types.TaskID
	next := types.TaskID(1)
	for i := 1; i <= n; i++ {
		wg := types.WorkerGroupID(fmt.Sprintf("wg-%d", i))
		plan.WorkerGroups = append(plan.WorkerGroups, types.WorkerGroup{ID: wg})
		plan.Tasks = append(plan.Tasks,
			types.Task{ID: next, Component: "words", WorkerGroup: wg, Spout: true},
			types.Task{ID: next + 1, Component: "count", WorkerGroup: wg},
		)
		spouts = append(spouts, next)
		counters = append(counters, next+1)
		next += 2
	}
	for _, c := range counters {
		plan.Upstreams[c] = append([]types.TaskID{}, spouts...)
	}
	return plan
}

func Init(ctx context.Context, parser *flags.Parser) error {
	initCmd = InitCmd{}
	_, err := parser.AddCommand("init", "Initializes a stateful home", "Generate the configuration and a sample word count physical plan", &initCmd)
	return err
}
