// Package checkpoint decides when a checkpoint becomes globally
// consistent: every task of the physical plan stored its state for it.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"
	"github.com/stratastream/stateful/types"
)

var (
	// ErrFromScratchFailed is returned when even the empty state could not be
	// restored. There is nothing left to fall back to.
	ErrFromScratchFailed = errors.New("could not restore from the empty state")
	ErrNoPlan            = errors.New("no physical plan registered")
)

// Broker sends controller messages to worker groups.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks github.com/stratastream/stateful/checkpoint Broker
type Broker interface {
	Send(wg types.WorkerGroupID, msg types.Message)
}

// RecordStore persists the consistent checkpoint record of a topology.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/record_store_mock.go -package mocks github.com/stratastream/stateful/checkpoint RecordStore
type RecordStore interface {
	GetRecord(ctx context.Context, topology string) (types.CheckpointRecord, error)
	SetRecord(ctx context.Context, topology string, rec types.CheckpointRecord) error
}

type Coordinator struct {
	log      *logging.Logger
	cfg      Config
	topology string
	broker   Broker
	store    RecordStore

	generation uint64
	sequence   uint32
	lastID     types.CheckpointID

	// tasks of the installed plan
	tasks types.TaskSet

	partial   types.CheckpointID
	remaining types.TaskSet

	record types.CheckpointRecord

	nextCP time.Time
	delta  time.Duration
}

// New loads the consistent record of topology and returns a coordinator
// minting ids in the given generation. The generation is bumped past the
// one of the stored record so new ids always sort after committed ones.
func New(ctx context.Context, log *logging.Logger, cfg Config, topology string, generation uint64, broker Broker, store RecordStore) (*Coordinator, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	rec, err := store.GetRecord(ctx, topology)
	if err != nil {
		return nil, fmt.Errorf("could not load checkpoint record: %w", err)
	}
	if g := rec.MostRecent.Generation(); g >= generation {
		generation = g + 1
	}
	log.Info("loaded consistent checkpoint record",
		logging.String("topology", topology),
		logging.CheckpointID(rec.MostRecent),
		logging.Int("backups", len(rec.Backups)),
		logging.Uint64("generation", generation),
	)
	metrics.ConsistentCheckpointSet(rec.MostRecent.Generation())

	return &Coordinator{
		log:        log,
		cfg:        cfg,
		topology:   topology,
		broker:     broker,
		store:      store,
		generation: generation,
		tasks:      types.TaskSet{},
		record:     rec,
		delta:      cfg.Interval.Get(),
	}, nil
}

// Generation returns the generation ids are currently minted in.
func (c *Coordinator) Generation() uint64 {
	return c.generation
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
	if cfg.Interval.Get() != c.delta {
		c.OnIntervalUpdate(cfg.Interval.Get())
	}
	c.cfg = cfg
}

// RegisterNewPlan installs the tasks that must acknowledge a checkpoint.
// Progress on a partial checkpoint is dropped.
func (c *Coordinator) RegisterNewPlan(plan *types.PhysicalPlan) {
	c.tasks = plan.AllTasks()
	c.partial = types.EmptyCheckpointID
	c.remaining = nil
	metrics.PendingSet(metrics.PendingCheckpointAcks, 0)
}

// Record returns the current consistent record.
func (c *Coordinator) Record() types.CheckpointRecord {
	return c.record.Clone()
}

// Partial returns the checkpoint being acknowledged and the tasks still
// missing.
func (c *Coordinator) Partial() (types.CheckpointID, types.TaskSet) {
	return c.partial, c.remaining.Clone()
}

// Due reports whether a checkpoint should be started at t. The first call
// only schedules the next one.
func (c *Coordinator) Due(t time.Time) bool {
	if c.nextCP.IsZero() {
		c.nextCP = t.Add(c.delta)
		return false
	}
	if c.nextCP.After(t) {
		return false
	}
	c.nextCP = t.Add(c.delta)
	return true
}

func (c *Coordinator) OnIntervalUpdate(d time.Duration) {
	if !c.nextCP.IsZero() {
		c.nextCP = c.nextCP.Add(-c.delta).Add(d)
	}
	c.delta = d
}

// StartCheckpoint mints a new id and asks every worker group to take a
// checkpoint for it. Callers must not start checkpoints while restoring.
func (c *Coordinator) StartCheckpoint(groups types.WorkerGroupSet) types.CheckpointID {
	id := c.nextID()
	c.log.Info("starting checkpoint",
		logging.CheckpointID(id),
		logging.WorkerGroupIDs("worker-groups", groups),
	)
	for _, wg := range groups.Sorted() {
		c.broker.Send(wg, types.StartStatefulCheckpoint{CheckpointID: id})
	}
	metrics.CheckpointEventInc("started")
	return id
}

func (c *Coordinator) nextID() types.CheckpointID {
	for {
		c.sequence++
		if c.sequence == 0 {
			// sequence wrapped, move to the next generation
			c.generation++
		}
		id := types.NewCheckpointID(c.generation, c.sequence)
		if id.Newer(c.lastID) && id.Newer(c.record.MostRecent) {
			c.lastID = id
			return id
		}
	}
}

// OnInstanceStateStored records that task stored its state for id. When
// the last task of the plan did, the id is committed as the most recent
// consistent checkpoint. The returned error reports a failed commit, the
// in-memory record is unchanged in that case.
func (c *Coordinator) OnInstanceStateStored(ctx context.Context, id types.CheckpointID, task types.TaskID) error {
	if len(c.tasks) == 0 {
		return ErrNoPlan
	}
	switch {
	case c.partial.IsEmpty() && !id.Newer(c.record.MostRecent):
		c.log.Debug("acknowledgement for an already committed checkpoint, ignoring",
			logging.CheckpointID(id),
			logging.TaskID(task),
		)
		return nil
	case c.partial.IsEmpty():
		c.log.Debug("first acknowledgement for checkpoint", logging.CheckpointID(id), logging.TaskID(task))
		c.track(id)
	case id.Newer(c.partial):
		c.log.Info("newer checkpoint acknowledged, abandoning partial one",
			logging.CheckpointID(id),
			logging.String("abandoned", c.partial.String()),
			logging.Int("missing", len(c.remaining)),
		)
		metrics.CheckpointEventInc("abandoned")
		c.track(id)
	case id == c.partial:
	default:
		c.log.Debug("acknowledgement for an older checkpoint, ignoring",
			logging.CheckpointID(id),
			logging.TaskID(task),
			logging.String("partial", c.partial.String()),
		)
		return nil
	}
	c.remaining.Remove(task)
	metrics.PendingSet(metrics.PendingCheckpointAcks, len(c.remaining))
	if len(c.remaining) > 0 {
		return nil
	}

	c.partial = types.EmptyCheckpointID
	c.remaining = nil
	return c.commit(ctx, id)
}

func (c *Coordinator) track(id types.CheckpointID) {
	c.partial = id
	c.remaining = c.tasks.Clone()
}

func (c *Coordinator) commit(ctx context.Context, id types.CheckpointID) error {
	rec := c.record.Add(id)
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SaveTimeout.Get())
	defer cancel()
	if err := c.store.SetRecord(ctx, c.topology, rec); err != nil {
		c.log.Error("could not save the new consistent checkpoint",
			logging.CheckpointID(id),
			logging.Error(err),
		)
		metrics.CheckpointEventInc("commit_failed")
		return fmt.Errorf("could not commit checkpoint %s: %w", id, err)
	}
	c.record = rec
	c.log.Info("new globally consistent checkpoint",
		logging.CheckpointID(id),
		logging.Int("backups", len(rec.Backups)),
	)
	metrics.CheckpointEventInc("committed")
	metrics.ConsistentCheckpointSet(id.Generation())
	return nil
}

// NextFallbackID returns the checkpoint to try after failed could not be
// restored. The empty id is both "the chain is exhausted" and "failed is
// not known", restoring from scratch is the answer to both.
func (c *Coordinator) NextFallbackID(failed types.CheckpointID) (types.CheckpointID, error) {
	if failed.IsEmpty() {
		return types.EmptyCheckpointID, ErrFromScratchFailed
	}
	next := c.record.NextFallback(failed)
	c.log.Info("falling back",
		logging.String("failed", failed.String()),
		logging.CheckpointID(next),
	)
	return next, nil
}
