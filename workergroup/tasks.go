package workergroup

import (
	"time"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/types"
)

// localTaskEvents is how the tasks report back to the worker group. Every
// call happens on the event loop.
type localTaskEvents interface {
	taskRestored(task types.TaskID, id types.CheckpointID)
	taskLost(task types.TaskID)
	taskReconnected()
	stateTaken(task types.Task, id types.CheckpointID, state []byte)
}

// outgoing is a tuple or a marker emitted by a local task and not yet
// routed. A non empty marker makes it a checkpoint marker.
type outgoing struct {
	src     types.TaskID
	payload []byte
	marker  types.CheckpointID
}

// localTasks runs the instances of the tasks the plan puts on this worker
// group. Emissions are cached and routed by the worker group once the
// current event is handled, so the gateway is never entered twice.
type localTasks struct {
	log        *logging.Logger
	components Components
	sched      Scheduler
	events     localTaskEvents
	restartIn  func() time.Duration

	planned   map[types.TaskID]types.Task
	instances map[types.TaskID]Task
	cache     []outgoing
}

func newLocalTasks(log *logging.Logger, components Components, sched Scheduler, events localTaskEvents, restartIn func() time.Duration) *localTasks {
	return &localTasks{
		log:        log,
		components: components,
		sched:      sched,
		events:     events,
		restartIn:  restartIn,
		planned:    map[types.TaskID]types.Task{},
		instances:  map[types.TaskID]Task{},
	}
}

// Reset builds a fresh instance for every task of plan hosted by wg.
func (l *localTasks) Reset(plan *types.PhysicalPlan, wg types.WorkerGroupID) error {
	planned := map[types.TaskID]types.Task{}
	instances := map[types.TaskID]Task{}
	for _, t := range plan.Tasks {
		if t.WorkerGroup != wg {
			continue
		}
		inst, err := l.components.Build(t)
		if err != nil {
			return err
		}
		planned[t.ID] = t
		instances[t.ID] = inst
	}
	l.planned = planned
	l.instances = instances
	l.cache = nil
	return nil
}

func (l *localTasks) Instance(task types.TaskID) (Task, bool) {
	inst, ok := l.instances[task]
	return inst, ok
}

func (l *localTasks) AllConnected() bool {
	return len(l.instances) == len(l.planned)
}

// SendRestoreState loads state into the task. A task that cannot load it is
// torn down and rebuilt later, as a task process would be restarted.
func (l *localTasks) SendRestoreState(task types.TaskID, id types.CheckpointID, state []byte) bool {
	inst, ok := l.instances[task]
	if !ok {
		return false
	}
	if err := inst.Restore(state); err != nil {
		l.log.Error("task could not load its state, restarting it",
			logging.TaskID(task),
			logging.CheckpointID(id),
			logging.Error(err),
		)
		delete(l.instances, task)
		_ = l.sched.Post(func() { l.events.taskLost(task) })
		l.sched.After(l.restartIn(), func() { l.restart(task) })
		return false
	}
	_ = l.sched.Post(func() { l.events.taskRestored(task, id) })
	return true
}

func (l *localTasks) restart(task types.TaskID) {
	t, ok := l.planned[task]
	if !ok {
		return
	}
	if _, ok := l.instances[task]; ok {
		// a new plan already rebuilt it
		return
	}
	inst, err := l.components.Build(t)
	if err != nil {
		l.log.Error("could not rebuild task", logging.TaskID(task), logging.Error(err))
		return
	}
	l.instances[task] = inst
	l.log.Info("task restarted", logging.TaskID(task))
	l.events.taskReconnected()
}

func (l *localTasks) ClearCache() {
	l.cache = nil
}

// Deliver hands one tuple to its task.
func (l *localTasks) Deliver(task types.TaskID, msg types.Data) {
	inst, ok := l.instances[task]
	if !ok {
		l.log.Debug("no instance for task, dropping tuple", logging.TaskID(task))
		return
	}
	inst.Process(msg.Src, msg.Payload, l.emitter(task))
}

// InitiateCheckpoint is called once every upstream marker of task arrived.
func (l *localTasks) InitiateCheckpoint(task types.TaskID, id types.CheckpointID) {
	l.checkpoint(task, id)
}

// checkpoint saves the state of task and sends the marker after whatever
// the task emitted before it.
func (l *localTasks) checkpoint(task types.TaskID, id types.CheckpointID) {
	inst, ok := l.instances[task]
	if !ok {
		l.log.Warn("no instance for task, skipping checkpoint", logging.TaskID(task), logging.CheckpointID(id))
		return
	}
	state, err := inst.Snapshot()
	if err != nil {
		l.log.Error("task could not take its state",
			logging.TaskID(task),
			logging.CheckpointID(id),
			logging.Error(err),
		)
	} else {
		l.events.stateTaken(l.planned[task], id, state)
	}
	l.cache = append(l.cache, outgoing{src: task, marker: id})
}

// next asks a spout for one tuple.
func (l *localTasks) next(task types.TaskID) {
	spout, ok := l.instances[task].(Spout)
	if !ok {
		return
	}
	spout.Next(l.emitter(task))
}

func (l *localTasks) emitter(task types.TaskID) Emitter {
	return func(payload []byte) {
		l.cache = append(l.cache, outgoing{src: task, payload: payload})
	}
}

func (l *localTasks) pop() (outgoing, bool) {
	if len(l.cache) == 0 {
		return outgoing{}, false
	}
	o := l.cache[0]
	l.cache = l.cache[1:]
	return o, true
}
