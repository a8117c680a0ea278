// Package workergroup is the process hosting a share of the tasks of a
// topology. It routes tuples and checkpoint markers between its tasks and
// its peers, saves task states through the checkpoint manager and restores
// them when the controller asks.
package workergroup

import (
	"time"

	"github.com/stratastream/stateful/barrier"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/restorer"
	"github.com/stratastream/stateful/types"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks github.com/stratastream/stateful/workergroup Controller,CheckpointManager,Peers

type Controller interface {
	Send(msg types.Message)
}

// CheckpointManager sends a request to the checkpoint manager. cb runs on
// the event loop with the response, and never runs if the connection drops.
type CheckpointManager interface {
	Request(msg types.Message, cb func(types.Message))
}

// Peers are the connections to the other worker groups of the plan.
type Peers interface {
	restorer.Peers
	Send(wg types.WorkerGroupID, msg types.Message)
}

// Scheduler runs closures on the event loop. eventloop.Loop implements it.
type Scheduler interface {
	Post(fn func()) error
	After(d time.Duration, fn func()) (cancel func())
}

type WorkerGroup struct {
	log        *logging.Logger
	cfg        Config
	id         types.WorkerGroupID
	controller Controller
	ckptmgr    CheckpointManager
	peers      Peers
	sched      Scheduler

	gateway  *barrier.Gateway
	restorer *restorer.Restorer
	tasks    *localTasks

	plan       *types.PhysicalPlan
	processing bool
	registered bool
}

func New(
	log *logging.Logger,
	cfg Config,
	gatewayCfg barrier.Config,
	restorerCfg restorer.Config,
	components Components,
	controller Controller,
	ckptmgr CheckpointManager,
	peers Peers,
	sched Scheduler,
) *WorkerGroup {
	named := log.Named(namedLogger)
	named.SetLevel(cfg.Level.Get())
	w := &WorkerGroup{
		log:        named,
		cfg:        cfg,
		id:         types.WorkerGroupID(cfg.ID),
		controller: controller,
		ckptmgr:    ckptmgr,
		peers:      peers,
		sched:      sched,
	}
	w.tasks = newLocalTasks(named, components, sched, w, func() time.Duration { return w.cfg.TaskRestartDelay.Get() })
	w.gateway = barrier.New(log, gatewayCfg, w.tasks, &types.PhysicalPlan{})
	w.restorer = restorer.New(log, restorerCfg, w.id, stateFetcher{w}, w.tasks, peers, w.gateway, w.onRestoreDone)
	return w
}

// ReloadConf updates the internal configuration.
func (w *WorkerGroup) ReloadConf(cfg Config) {
	w.log.Info("reloading configuration")
	if w.log.GetLevel() != cfg.Level.Get() {
		w.log.Info("updating log level",
			logging.String("old", w.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		w.log.SetLevel(cfg.Level.Get())
	}
	w.cfg = cfg
}

func (w *WorkerGroup) ID() types.WorkerGroupID {
	return w.id
}

// Processing reports whether tuples flow, that is the last restore
// completed and the controller said to resume.
func (w *WorkerGroup) Processing() bool {
	return w.processing
}

func (w *WorkerGroup) Plan() *types.PhysicalPlan {
	return w.plan
}

func (w *WorkerGroup) Registered() bool {
	return w.registered
}

// Instance returns the code of a local task, for inspection.
func (w *WorkerGroup) Instance(task types.TaskID) (Task, bool) {
	return w.tasks.Instance(task)
}

func (w *WorkerGroup) Gateway() *barrier.Gateway {
	return w.gateway
}

func (w *WorkerGroup) Restorer() *restorer.Restorer {
	return w.restorer
}

// Handle dispatches a message from the controller or a peer.
func (w *WorkerGroup) Handle(msg types.Message) {
	switch m := msg.(type) {
	case types.NewPhysicalPlan:
		w.OnNewPhysicalPlan(&m.Plan)
	case types.RestoreTopologyState:
		w.OnRestoreTopologyState(m.CheckpointID, m.TxID)
	case types.StartStatefulProcessing:
		w.OnStartStatefulProcessing(m.CheckpointID)
	case types.StartStatefulCheckpoint:
		w.OnStartStatefulCheckpoint(m.CheckpointID)
	case types.Data:
		w.OnData(m)
	case types.CheckpointMarker:
		w.OnCheckpointMarker(m)
	default:
		w.log.Warn("unexpected message", logging.String("kind", string(msg.Kind())))
	}
}

// OnNewPhysicalPlan installs a plan. Tuples stop flowing until the restore
// that always follows a plan completes.
func (w *WorkerGroup) OnNewPhysicalPlan(plan *types.PhysicalPlan) {
	if err := plan.Validate(); err != nil {
		w.log.Error("invalid physical plan, ignoring", logging.Error(err))
		return
	}
	if _, ok := plan.WorkerGroup(w.id); !ok {
		w.log.Error("physical plan does not include this worker group, ignoring",
			logging.WorkerGroupID(w.id),
			logging.String("topology", plan.Topology),
		)
		return
	}
	w.plan = plan.Clone()
	w.processing = false
	if err := w.tasks.Reset(w.plan, w.id); err != nil {
		w.log.Panic("physical plan uses a component this worker group cannot run", logging.Error(err))
	}
	w.gateway.SetUpstreams(w.plan)
	w.log.Info("new physical plan",
		logging.String("topology", w.plan.Topology),
		logging.TaskIDs("local-tasks", w.plan.LocalTasks(w.id)),
	)
}

func (w *WorkerGroup) OnRestoreTopologyState(id types.CheckpointID, txid types.TxID) {
	if w.plan == nil {
		w.log.Warn("restore requested before any physical plan", logging.CheckpointID(id), logging.TxID(txid))
		w.controller.Send(types.RestoredTopologyState{
			WorkerGroup:  w.id,
			CheckpointID: id,
			TxID:         txid,
			Status:       types.NotOK("no physical plan"),
		})
		return
	}
	w.processing = false
	w.restorer.StartRestore(id, txid, w.plan)
}

func (w *WorkerGroup) onRestoreDone(status types.Status, id types.CheckpointID, txid types.TxID) {
	w.controller.Send(types.RestoredTopologyState{
		WorkerGroup:  w.id,
		CheckpointID: id,
		TxID:         txid,
		Status:       status,
	})
}

func (w *WorkerGroup) OnStartStatefulProcessing(id types.CheckpointID) {
	if w.restorer.InProgress() {
		w.log.Warn("told to resume while restoring, ignoring",
			logging.CheckpointID(id),
			logging.String("restoring", w.restorer.CheckpointID().String()),
		)
		return
	}
	if w.plan == nil {
		w.log.Warn("told to resume before any physical plan, ignoring", logging.CheckpointID(id))
		return
	}
	w.log.Info("resuming processing", logging.CheckpointID(id))
	w.processing = true
}

// OnStartStatefulCheckpoint has every local spout save its state and send
// the marker of id downstream.
func (w *WorkerGroup) OnStartStatefulCheckpoint(id types.CheckpointID) {
	if !w.processing {
		w.log.Info("not processing, skipping checkpoint", logging.CheckpointID(id))
		return
	}
	for _, task := range w.plan.LocalSpouts(w.id).Sorted() {
		w.tasks.checkpoint(task, id)
	}
	w.flush()
}

// OnData handles a tuple sent by a peer.
func (w *WorkerGroup) OnData(msg types.Data) {
	if !w.processing {
		w.log.Debug("not processing, dropping tuple", logging.TaskID(msg.Dest))
		return
	}
	if !w.isLocal(msg.Dest) {
		w.log.Warn("tuple for a task this worker group does not host",
			logging.TaskID(msg.Dest),
			logging.Int32("src", int32(msg.Src)),
		)
		return
	}
	w.gateway.Forward(msg.Dest, msg, msg.Size())
	w.flush()
}

// OnCheckpointMarker handles a marker sent by a peer.
func (w *WorkerGroup) OnCheckpointMarker(msg types.CheckpointMarker) {
	if !w.processing {
		w.log.Debug("not processing, dropping marker", logging.TaskID(msg.Dest), logging.CheckpointID(msg.CheckpointID))
		return
	}
	if !w.isLocal(msg.Dest) {
		w.log.Warn("marker for a task this worker group does not host",
			logging.TaskID(msg.Dest),
			logging.CheckpointID(msg.CheckpointID),
		)
		return
	}
	w.gateway.OnUpstreamMarker(msg.Src, msg.Dest, msg.CheckpointID)
	w.flush()
}

// Tick asks every local spout for a tuple.
func (w *WorkerGroup) Tick() {
	if !w.processing {
		return
	}
	for _, task := range w.plan.LocalSpouts(w.id).Sorted() {
		w.tasks.next(task)
	}
	w.flush()
}

func (w *WorkerGroup) isLocal(task types.TaskID) bool {
	t, ok := w.plan.Task(task)
	return ok && t.WorkerGroup == w.id
}

// flush routes what the tasks emitted, in emission order. Routing to a local
// task may make it emit more, which is routed in the same pass.
func (w *WorkerGroup) flush() {
	for {
		o, ok := w.tasks.pop()
		if !ok {
			return
		}
		w.route(o)
	}
}

func (w *WorkerGroup) route(o outgoing) {
	for _, dest := range w.plan.Downstream(o.src) {
		t, _ := w.plan.Task(dest)
		local := t.WorkerGroup == w.id
		if o.marker.IsEmpty() {
			msg := types.Data{Src: o.src, Dest: dest, Payload: o.payload}
			if local {
				w.gateway.Forward(dest, msg, msg.Size())
			} else {
				w.peers.Send(t.WorkerGroup, msg)
			}
			continue
		}
		if local {
			w.gateway.OnUpstreamMarker(o.src, dest, o.marker)
		} else {
			w.peers.Send(t.WorkerGroup, types.CheckpointMarker{Src: o.src, Dest: dest, CheckpointID: o.marker})
		}
	}
}

// stateTaken saves the state a task took for id and tells the controller
// once it is stored.
func (w *WorkerGroup) stateTaken(task types.Task, id types.CheckpointID, state []byte) {
	if !w.registered {
		w.log.Warn("checkpoint manager session not open, dropping state",
			logging.TaskID(task.ID),
			logging.CheckpointID(id),
		)
		return
	}
	req := types.SaveInstanceState{
		Instance: types.InstanceCheckpoint{CheckpointID: id, Task: task.ID, Component: task.Component},
		State:    state,
	}
	w.ckptmgr.Request(req, func(msg types.Message) {
		resp, ok := msg.(types.SaveInstanceStateResponse)
		if !ok {
			w.log.Warn("unexpected response to a save", logging.String("kind", string(msg.Kind())))
			return
		}
		if !resp.Status.IsOK() {
			w.log.Warn("checkpoint manager could not save state",
				logging.TaskID(task.ID),
				logging.CheckpointID(id),
				logging.String("reason", resp.Status.Message),
			)
			return
		}
		w.controller.Send(types.InstanceStateStored{CheckpointID: id, Task: task.ID})
	})
}

func (w *WorkerGroup) taskRestored(task types.TaskID, id types.CheckpointID) {
	w.restorer.OnLocalTaskRestored(task, id)
}

func (w *WorkerGroup) taskLost(task types.TaskID) {
	w.restorer.OnLocalTaskConnectionLost(task)
}

func (w *WorkerGroup) taskReconnected() {
	if w.tasks.AllConnected() {
		w.restorer.OnAllLocalTasksConnected()
	}
}

// OnControllerConnected joins the topology, again after every reconnection.
func (w *WorkerGroup) OnControllerConnected() {
	w.log.Info("joining topology", logging.String("topology", w.cfg.Topology))
	w.controller.Send(types.JoinTopology{
		Topology:    w.cfg.Topology,
		WorkerGroup: w.id,
		Address:     w.cfg.Listen,
	})
}

// OnCheckpointManagerConnected opens the checkpoint manager session.
func (w *WorkerGroup) OnCheckpointManagerConnected() {
	w.register()
}

// OnCheckpointManagerDisconnected closes the session. Requests in flight
// are lost, the fetches of a restore are sent again once registered.
func (w *WorkerGroup) OnCheckpointManagerDisconnected() {
	w.registered = false
}

func (w *WorkerGroup) register() {
	req := types.RegisterWorkerGroup{
		Topology:    w.cfg.Topology,
		RunID:       w.cfg.RunID,
		WorkerGroup: w.id,
		Address:     w.cfg.Listen,
	}
	w.ckptmgr.Request(req, func(msg types.Message) {
		resp, ok := msg.(types.RegisterWorkerGroupResponse)
		if !ok {
			w.log.Warn("unexpected response to a registration", logging.String("kind", string(msg.Kind())))
			return
		}
		if !resp.Status.IsOK() {
			w.log.Warn("checkpoint manager refused the session, retrying",
				logging.String("reason", resp.Status.Message),
				logging.Duration("retry-in", w.cfg.RegisterRetryInterval.Get()),
			)
			w.sched.After(w.cfg.RegisterRetryInterval.Get(), w.register)
			return
		}
		w.log.Info("registered with the checkpoint manager")
		w.registered = true
		w.restorer.OnCheckpointManagerRestart()
	})
}

// OnPeerConnected is called when a peer connection comes up.
func (w *WorkerGroup) OnPeerConnected() {
	if w.peers.AllConnected() {
		w.restorer.OnAllPeerConnectionsEstablished()
	}
}

func (w *WorkerGroup) OnPeerDisconnected() {
	w.restorer.OnPeerConnectionLost()
}

// stateFetcher serves the restorer fetches through the checkpoint manager
// session.
type stateFetcher struct {
	w *WorkerGroup
}

func (f stateFetcher) GetInstanceState(task types.TaskID, id types.CheckpointID) {
	w := f.w
	if !w.registered {
		w.log.Debug("checkpoint manager session not open, fetch deferred", logging.TaskID(task), logging.CheckpointID(id))
		return
	}
	t, _ := w.plan.Task(task)
	req := types.GetInstanceState{
		Instance: types.InstanceCheckpoint{CheckpointID: id, Task: task, Component: t.Component},
	}
	w.ckptmgr.Request(req, func(msg types.Message) {
		resp, ok := msg.(types.GetInstanceStateResponse)
		if !ok {
			w.log.Warn("unexpected response to a fetch", logging.String("kind", string(msg.Kind())))
			return
		}
		w.restorer.OnCheckpointFetched(resp.Instance.Task, resp.Instance.CheckpointID, resp.State, resp.Status)
	})
}
