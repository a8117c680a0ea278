// Package controller drives the stateful protocols of a topology: it
// distributes the physical plan, schedules checkpoints and restores the
// topology whenever a worker group (re)joins.
package controller

import (
	"context"
	"time"

	"github.com/stratastream/stateful/checkpoint"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/restore"
	"github.com/stratastream/stateful/types"
)

// Broker reaches the worker groups.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks github.com/stratastream/stateful/controller Broker
type Broker interface {
	Connect(wg types.WorkerGroupID, addr string) error
	Send(wg types.WorkerGroupID, msg types.Message)
}

type Controller struct {
	log    *logging.Logger
	cfg    Config
	broker Broker
	fatal  func(error)

	ckpt    *checkpoint.Coordinator
	restore *restore.Coordinator

	plan        *types.PhysicalPlan
	joined      types.WorkerGroupSet
	distributed bool
	restores    int
}

// New returns a controller for plan. fatal is called when the topology can
// no longer make progress.
func New(
	log *logging.Logger,
	cfg Config,
	restoreCfg restore.Config,
	plan *types.PhysicalPlan,
	broker Broker,
	ckpt *checkpoint.Coordinator,
	fatal func(error),
) *Controller {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	c := &Controller{
		log:    log,
		cfg:    cfg,
		broker: broker,
		fatal:  fatal,
		ckpt:   ckpt,
		plan:   plan.Clone(),
		joined: types.NewWorkerGroupSet(),
	}
	c.restore = restore.New(log, restoreCfg, ckpt.Generation(), broker, ckpt, c.onResumed)
	return c
}

// ReloadConf updates the internal configuration.
func (c *Controller) ReloadConf(cfg Config) {
	c.log.Info("reloading configuration")
	if c.log.GetLevel() != cfg.Level.Get() {
		c.log.Info("updating log level",
			logging.String("old", c.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		c.log.SetLevel(cfg.Level.Get())
	}
	c.cfg = cfg
}

// ReloadEnginesConf updates the configuration of the checkpoint and restore
// coordinators.
func (c *Controller) ReloadEnginesConf(ckptCfg checkpoint.Config, restoreCfg restore.Config) {
	c.ckpt.ReloadConf(ckptCfg)
	c.restore.ReloadConf(restoreCfg)
}

func (c *Controller) RestoreInProgress() bool {
	return c.restore.InProgress()
}

// Plan returns the plan as last distributed, nil before every worker group
// joined.
func (c *Controller) Plan() *types.PhysicalPlan {
	if !c.distributed {
		return nil
	}
	return c.plan.Clone()
}

// Handle dispatches a message from a worker group.
func (c *Controller) Handle(ctx context.Context, msg types.Message) {
	switch m := msg.(type) {
	case types.JoinTopology:
		c.OnJoinTopology(m)
	case types.InstanceStateStored:
		c.OnInstanceStateStored(ctx, m)
	case types.RestoredTopologyState:
		c.OnRestoredTopologyState(m)
	default:
		c.log.Warn("unexpected message", logging.String("kind", string(msg.Kind())))
	}
}

func (c *Controller) OnJoinTopology(m types.JoinTopology) {
	if m.Topology != c.plan.Topology {
		c.log.Error("join request for another topology",
			logging.WorkerGroupID(m.WorkerGroup),
			logging.String("topology", m.Topology),
		)
		return
	}
	if !c.plan.SetAddress(m.WorkerGroup, m.Address) {
		c.log.Error("join request from a worker group that is not in the plan",
			logging.WorkerGroupID(m.WorkerGroup),
		)
		return
	}
	if err := c.broker.Connect(m.WorkerGroup, m.Address); err != nil {
		c.log.Error("could not connect to worker group",
			logging.WorkerGroupID(m.WorkerGroup),
			logging.String("address", m.Address),
			logging.Error(err),
		)
		return
	}
	c.joined.Add(m.WorkerGroup)
	c.log.Info("worker group joined",
		logging.WorkerGroupID(m.WorkerGroup),
		logging.String("address", m.Address),
		logging.Int("joined", len(c.joined)),
		logging.Int("expected", len(c.plan.WorkerGroups)),
	)

	if !c.distributed && len(c.joined) < len(c.plan.WorkerGroups) {
		return
	}
	if c.distributed {
		// a worker group came back without its state, everyone rolls back
		c.log.Info("worker group rejoined, restoring the topology", logging.WorkerGroupID(m.WorkerGroup))
	}
	c.distribute()
}

func (c *Controller) distribute() {
	c.distributed = true
	msg := types.NewPhysicalPlan{Plan: *c.plan.Clone()}
	groups := c.plan.WorkerGroupIDs()
	for _, wg := range groups.Sorted() {
		c.broker.Send(wg, msg)
	}
	c.ckpt.RegisterNewPlan(c.plan)
	c.startRestore(groups)
}

func (c *Controller) startRestore(groups types.WorkerGroupSet) {
	id := c.ckpt.Record().MostRecent
	if c.restores == 0 && bool(c.cfg.IgnorePreviousState) {
		c.log.Info("ignoring previous state, starting from scratch",
			logging.String("most-recent", id.String()),
		)
		id = types.EmptyCheckpointID
	}
	c.restores++
	c.restore.Start(id, groups)
}

func (c *Controller) OnInstanceStateStored(ctx context.Context, m types.InstanceStateStored) {
	if c.restore.InProgress() {
		c.log.Debug("ignoring instance state stored while restoring",
			logging.CheckpointID(m.CheckpointID),
			logging.TaskID(m.Task),
		)
		return
	}
	if err := c.ckpt.OnInstanceStateStored(ctx, m.CheckpointID, m.Task); err != nil {
		// the previous consistent checkpoint still stands
		c.log.Error("could not complete checkpoint", logging.Error(err))
	}
}

func (c *Controller) OnRestoredTopologyState(m types.RestoredTopologyState) {
	if err := c.restore.OnWorkerGroupRestored(m.WorkerGroup, m.CheckpointID, m.TxID, m.Status); err != nil {
		c.log.Error("topology cannot be restored", logging.Error(err))
		c.fatal(err)
	}
}

// Tick starts a checkpoint when one is due. Checkpoints are not taken
// before the plan is distributed nor while restoring.
func (c *Controller) Tick(now time.Time) {
	if !c.ckpt.Due(now) {
		return
	}
	if !c.distributed {
		return
	}
	if c.restore.InProgress() {
		c.log.Info("not starting checkpoint, restore in progress",
			logging.CheckpointID(c.restore.CheckpointID()),
		)
		return
	}
	c.ckpt.StartCheckpoint(c.plan.WorkerGroupIDs())
}

func (c *Controller) onResumed(id types.CheckpointID) {
	c.log.Info("topology resumed processing", logging.CheckpointID(id))
}
