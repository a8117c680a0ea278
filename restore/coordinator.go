// Package restore runs the controller side of the two-phase restore: every
// worker group loads the state of a checkpoint, then all of them resume.
package restore

import (
	"fmt"
	"time"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"
	"github.com/stratastream/stateful/types"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks github.com/stratastream/stateful/restore Broker,Fallbacks

type Broker interface {
	Send(wg types.WorkerGroupID, msg types.Message)
}

// Fallbacks picks the checkpoint to try after one failed to restore.
type Fallbacks interface {
	NextFallbackID(failed types.CheckpointID) (types.CheckpointID, error)
}

type Coordinator struct {
	log       *logging.Logger
	cfg       Config
	broker    Broker
	fallbacks Fallbacks
	onResumed func(types.CheckpointID)

	inProgress bool
	id         types.CheckpointID
	txid       types.TxID
	groups     types.WorkerGroupSet
	unreplied  types.WorkerGroupSet
	started    time.Time
}

// txidSequenceBits is how many restores a controller generation can run
// before its txids reach the next generation.
const txidSequenceBits = 20

// TxIDBase returns the txid a coordinator of generation counts from. Worker
// groups refuse any txid not above the last one they saw, so a restarted
// controller must number its restores past its predecessor.
func TxIDBase(generation uint64) types.TxID {
	return types.TxID(generation) << txidSequenceBits
}

// New returns an idle coordinator numbering its restores from
// TxIDBase(generation). onResumed is called once per completed restore,
// after every worker group was told to resume.
func New(log *logging.Logger, cfg Config, generation uint64, broker Broker, fallbacks Fallbacks, onResumed func(types.CheckpointID)) *Coordinator {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	if onResumed == nil {
		onResumed = func(types.CheckpointID) {}
	}
	return &Coordinator{
		log:       log,
		cfg:       cfg,
		broker:    broker,
		fallbacks: fallbacks,
		onResumed: onResumed,
		txid:      TxIDBase(generation),
	}
}

// ReloadConf updates the internal configuration.
func (c *Coordinator) ReloadConf(cfg Config) {
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

func (c *Coordinator) InProgress() bool {
	return c.inProgress
}

// TxID returns the id of the latest restore transaction.
func (c *Coordinator) TxID() types.TxID {
	return c.txid
}

// CheckpointID returns the checkpoint being restored.
func (c *Coordinator) CheckpointID() types.CheckpointID {
	return c.id
}

// Unreplied returns the worker groups that have not confirmed phase one.
func (c *Coordinator) Unreplied() types.WorkerGroupSet {
	return c.unreplied.Clone()
}

// GotResponse reports whether wg already confirmed the current restore.
func (c *Coordinator) GotResponse(wg types.WorkerGroupID) bool {
	return c.inProgress && !c.unreplied.Has(wg)
}

// Start opens a new restore transaction for id, superseding any restore in
// progress.
func (c *Coordinator) Start(id types.CheckpointID, groups types.WorkerGroupSet) {
	if c.inProgress {
		c.log.Warn("starting a restore while another one is in progress",
			logging.CheckpointID(id),
			logging.String("in-progress", c.id.String()),
			logging.TxID(c.txid),
		)
	} else {
		c.started = time.Now()
	}
	c.inProgress = true
	c.id = id
	c.txid++
	c.groups = groups.Clone()
	c.unreplied = groups.Clone()

	c.log.Info("starting two-phase restore",
		logging.CheckpointID(id),
		logging.TxID(c.txid),
		logging.WorkerGroupIDs("worker-groups", groups),
	)
	metrics.RestoreEventInc(metrics.ScopeController, metrics.RestoreStart)
	metrics.RestoreInProgressSet(metrics.ScopeController, true)
	metrics.PendingSet(metrics.PendingRestoreReplies, len(c.unreplied))

	msg := types.RestoreTopologyState{CheckpointID: id, TxID: c.txid}
	for _, wg := range groups.Sorted() {
		c.broker.Send(wg, msg)
	}
	if len(c.unreplied) == 0 {
		c.finish()
	}
}

// OnWorkerGroupRestored handles the phase one reply of wg. A reply for
// another transaction is ignored. A failure restarts the restore with the
// next fallback checkpoint. The returned error means no fallback is left.
func (c *Coordinator) OnWorkerGroupRestored(wg types.WorkerGroupID, id types.CheckpointID, txid types.TxID, status types.Status) error {
	if !c.inProgress {
		c.log.Warn("restore reply while not restoring, ignoring",
			logging.WorkerGroupID(wg),
			logging.CheckpointID(id),
			logging.TxID(txid),
		)
		metrics.RestoreEventInc(metrics.ScopeController, metrics.RestoreWorkerGroupRepliesIgnored)
		return nil
	}
	if txid != c.txid || id != c.id {
		c.log.Warn("restore reply for another transaction, ignoring",
			logging.WorkerGroupID(wg),
			logging.CheckpointID(id),
			logging.TxID(txid),
			logging.String("current-checkpoint-id", c.id.String()),
			logging.Int64("current-txid", int64(c.txid)),
		)
		metrics.RestoreEventInc(metrics.ScopeController, metrics.RestoreWorkerGroupRepliesIgnored)
		return nil
	}
	metrics.RestoreEventInc(metrics.ScopeController, metrics.RestoreWorkerGroupReplies)

	if !status.IsOK() {
		c.log.Warn("worker group could not restore, falling back",
			logging.WorkerGroupID(wg),
			logging.CheckpointID(id),
			logging.TxID(txid),
			logging.String("reason", status.Message),
		)
		metrics.RestoreEventInc(metrics.ScopeController, metrics.RestoreFailed)
		next, err := c.fallbacks.NextFallbackID(id)
		if err != nil {
			return fmt.Errorf("restore of %s failed on %s: %w", id, wg, err)
		}
		c.Start(next, c.groups)
		return nil
	}

	c.log.Info("worker group restored",
		logging.WorkerGroupID(wg),
		logging.CheckpointID(id),
		logging.TxID(txid),
	)
	c.unreplied.Remove(wg)
	metrics.PendingSet(metrics.PendingRestoreReplies, len(c.unreplied))
	if len(c.unreplied) == 0 {
		c.finish()
	}
	return nil
}

// finish runs phase two.
func (c *Coordinator) finish() {
	c.log.Info("all worker groups restored, resuming processing",
		logging.CheckpointID(c.id),
		logging.TxID(c.txid),
	)
	msg := types.StartStatefulProcessing{CheckpointID: c.id}
	for _, wg := range c.groups.Sorted() {
		c.broker.Send(wg, msg)
	}
	id := c.id
	c.inProgress = false
	c.id = types.EmptyCheckpointID
	metrics.RestoreEventInc(metrics.ScopeController, metrics.RestoreCompleted)
	metrics.RestoreInProgressSet(metrics.ScopeController, false)
	metrics.RestoreDurationObserve(metrics.ScopeController, time.Since(c.started))
	c.onResumed(id)
}
