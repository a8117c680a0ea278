// Package restorer brings the tasks of one worker group back to the state
// of a checkpoint, and waits for the connection graph to form again before
// reporting the restore done.
package restorer

import (
	"fmt"
	"time"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"
	"github.com/stratastream/stateful/types"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks github.com/stratastream/stateful/restorer CheckpointManager,LocalTasks,Peers,Buffers

// CheckpointManager fetches instance states. Responses come back through
// OnCheckpointFetched.
type CheckpointManager interface {
	GetInstanceState(task types.TaskID, id types.CheckpointID)
}

// LocalTasks are the task processes connected to this worker group.
type LocalTasks interface {
	AllConnected() bool
	// SendRestoreState hands the state to the task, false if the task is not
	// connected.
	SendRestoreState(task types.TaskID, id types.CheckpointID, state []byte) bool
	ClearCache()
}

// Peers are the connections to the other worker groups.
type Peers interface {
	CloseAndClear()
	StartConnections(plan *types.PhysicalPlan)
	AllConnected() bool
}

// Buffers hold application data in flight inside the worker group.
type Buffers interface {
	Clear()
}

// DoneFunc reports the end of a restore, successful or not.
type DoneFunc func(status types.Status, id types.CheckpointID, txid types.TxID)

type Restorer struct {
	log         *logging.Logger
	cfg         Config
	workerGroup types.WorkerGroupID
	ckptmgr     CheckpointManager
	tasks       LocalTasks
	peers       Peers
	buffers     Buffers
	done        DoneFunc

	inProgress bool
	// highest txid ever seen, 0 before the first restore
	maxTxID types.TxID
	id      types.CheckpointID
	txid    types.TxID
	started time.Time

	localTasks        types.TaskSet
	getStatePending   types.TaskSet
	restoreAckPending types.TaskSet
	peersPending      bool
	localPending      bool
}

func New(
	log *logging.Logger,
	cfg Config,
	workerGroup types.WorkerGroupID,
	ckptmgr CheckpointManager,
	tasks LocalTasks,
	peers Peers,
	buffers Buffers,
	done DoneFunc,
) *Restorer {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Restorer{
		log:               log,
		cfg:               cfg,
		workerGroup:       workerGroup,
		ckptmgr:           ckptmgr,
		tasks:             tasks,
		peers:             peers,
		buffers:           buffers,
		done:              done,
		localTasks:        types.TaskSet{},
		getStatePending:   types.TaskSet{},
		restoreAckPending: types.TaskSet{},
	}
}

// ReloadConf updates the internal configuration.
func (r *Restorer) ReloadConf(cfg Config) {
	r.log.Info("reloading configuration")
	if r.log.GetLevel() != cfg.Level.Get() {
		r.log.Info("updating log level",
			logging.String("old", r.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		r.log.SetLevel(cfg.Level.Get())
	}
	r.cfg = cfg
}

func (r *Restorer) InProgress() bool {
	return r.inProgress
}

func (r *Restorer) CheckpointID() types.CheckpointID {
	return r.id
}

func (r *Restorer) TxID() types.TxID {
	return r.txid
}

// Pending returns a copy of the four indicators the restore waits on.
func (r *Restorer) Pending() (getState, restoreAck types.TaskSet, peers, local bool) {
	return r.getStatePending.Clone(), r.restoreAckPending.Clone(), r.peersPending, r.localPending
}

// StartRestore restores the local tasks of plan to id. txid must be greater
// than every txid seen before, anything else is a bug on the controller.
func (r *Restorer) StartRestore(id types.CheckpointID, txid types.TxID, plan *types.PhysicalPlan) {
	metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreStart)
	if txid <= r.maxTxID {
		r.log.Panic("restore transaction ids went backwards",
			logging.CheckpointID(id),
			logging.TxID(txid),
			logging.Int64("max-txid", int64(r.maxTxID)),
		)
	}
	r.maxTxID = txid

	if r.inProgress {
		r.log.Warn("restore requested while another one is in progress",
			logging.CheckpointID(id),
			logging.TxID(txid),
			logging.String("in-progress", r.id.String()),
			logging.Int64("in-progress-txid", int64(r.txid)),
		)
	} else {
		r.log.Info("starting restore", logging.CheckpointID(id), logging.TxID(txid))
		r.buffers.Clear()
		r.peers.CloseAndClear()
		r.tasks.ClearCache()
		r.started = time.Now()
	}

	r.inProgress = true
	r.id = id
	r.txid = txid
	r.peersPending = true
	r.localPending = true
	r.localTasks = plan.LocalTasks(r.workerGroup)
	r.getStatePending = r.localTasks.Clone()
	r.restoreAckPending = r.localTasks.Clone()
	r.exportPending()
	metrics.RestoreInProgressSet(metrics.ScopeWorkerGroup, true)

	r.fetchStates()

	r.peers.StartConnections(plan)
	if r.peers.AllConnected() {
		// restoring to the same plan, nothing to reconnect
		r.peersPending = false
	}
	if r.tasks.AllConnected() {
		r.localPending = false
	}
	r.checkDone()
}

func (r *Restorer) fetchStates() {
	for _, task := range r.getStatePending.Sorted() {
		r.ckptmgr.GetInstanceState(task, r.id)
		metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreCkptRequests)
	}
}

// OnCheckpointFetched handles the checkpoint manager response for one task.
func (r *Restorer) OnCheckpointFetched(task types.TaskID, id types.CheckpointID, state []byte, status types.Status) {
	metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreCkptResponses)
	if !r.inProgress {
		r.log.Debug("instance state fetched while not restoring, ignoring", logging.TaskID(task), logging.CheckpointID(id))
		metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreCkptResponsesIgnored)
		return
	}
	if id != r.id {
		r.log.Info("instance state fetched for another checkpoint, ignoring",
			logging.TaskID(task),
			logging.CheckpointID(id),
			logging.String("restoring", r.id.String()),
		)
		metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreCkptResponsesIgnored)
		return
	}
	if !status.IsOK() {
		r.log.Error("could not fetch instance state, abandoning restore",
			logging.TaskID(task),
			logging.CheckpointID(id),
			logging.TxID(r.txid),
			logging.String("reason", status.Message),
		)
		metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreCkptResponsesError)
		metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreFailed)
		r.finish(types.NotOK(fmt.Sprintf("task %d: %s", task, status.Message)))
		return
	}
	if r.tasks.SendRestoreState(task, id, state) {
		metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreInstanceRequests)
		r.getStatePending.Remove(task)
	}
	r.checkDone()
}

// OnLocalTaskRestored handles a task confirming it loaded its state.
func (r *Restorer) OnLocalTaskRestored(task types.TaskID, id types.CheckpointID) {
	metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreInstanceResponses)
	if !r.inProgress || id != r.id {
		r.log.Debug("instance restored for another restore, ignoring",
			logging.TaskID(task),
			logging.CheckpointID(id),
		)
		metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreInstanceResponsesIgnored)
		return
	}
	r.restoreAckPending.Remove(task)
	r.checkDone()
}

func (r *Restorer) OnAllPeerConnectionsEstablished() {
	if !r.inProgress {
		return
	}
	r.peersPending = false
	r.checkDone()
}

func (r *Restorer) OnPeerConnectionLost() {
	if !r.inProgress {
		return
	}
	r.peersPending = true
	r.exportPending()
}

// OnAllLocalTasksConnected re-issues the fetches of tasks that reconnected.
func (r *Restorer) OnAllLocalTasksConnected() {
	if !r.inProgress {
		return
	}
	r.localPending = false
	if len(r.getStatePending) > 0 {
		r.fetchStates()
	}
	r.checkDone()
}

func (r *Restorer) OnLocalTaskConnectionLost(task types.TaskID) {
	if !r.inProgress {
		return
	}
	if !r.localTasks.Has(task) {
		r.log.Warn("lost connection to a task that is not part of the plan", logging.TaskID(task))
		return
	}
	r.localPending = true
	r.restoreAckPending.Add(task)
	r.getStatePending.Add(task)
	r.exportPending()
}

// OnCheckpointManagerRestart re-issues every outstanding fetch.
func (r *Restorer) OnCheckpointManagerRestart() {
	if !r.inProgress {
		return
	}
	r.log.Info("checkpoint manager connection restarted, fetching again",
		logging.TaskIDs("tasks", r.getStatePending),
	)
	r.fetchStates()
}

func (r *Restorer) checkDone() {
	r.exportPending()
	if len(r.getStatePending) > 0 || len(r.restoreAckPending) > 0 || r.peersPending || r.localPending {
		return
	}
	r.log.Info("restore done", logging.CheckpointID(r.id), logging.TxID(r.txid))
	metrics.RestoreEventInc(metrics.ScopeWorkerGroup, metrics.RestoreCompleted)
	r.finish(types.OK())
}

func (r *Restorer) finish(status types.Status) {
	r.inProgress = false
	metrics.RestoreInProgressSet(metrics.ScopeWorkerGroup, false)
	metrics.RestoreDurationObserve(metrics.ScopeWorkerGroup, time.Since(r.started))
	r.done(status, r.id, r.txid)
}

func (r *Restorer) exportPending() {
	metrics.PendingSet(metrics.PendingGetState, len(r.getStatePending))
	metrics.PendingSet(metrics.PendingRestoreAcks, len(r.restoreAckPending))
}
