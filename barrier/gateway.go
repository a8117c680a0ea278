// Package barrier aligns checkpoint markers in front of the tasks of a
// worker group, so that a task takes its checkpoint at a consistent cut of
// its input streams.
package barrier

import (
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/metrics"
	"github.com/stratastream/stateful/types"

	"github.com/dustin/go-humanize"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/downstream_mock.go -package mocks github.com/stratastream/stateful/barrier Downstream,UpstreamResolver

// Downstream receives whatever the gateway lets through, in delivery order.
type Downstream interface {
	Deliver(task types.TaskID, msg types.Data)
	InitiateCheckpoint(task types.TaskID, id types.CheckpointID)
}

// UpstreamResolver returns the producers feeding a task. The physical plan
// implements it.
type UpstreamResolver interface {
	Upstream(task types.TaskID) types.TaskSet
}

// Gateway holds back the input of a local task between the first and the
// last checkpoint marker of its upstream producers.
type Gateway struct {
	log        *logging.Logger
	cfg        Config
	downstream Downstream
	upstreams  UpstreamResolver

	states   map[types.TaskID]*alignment
	bufBytes uint64
}

func New(log *logging.Logger, cfg Config, downstream Downstream, upstreams UpstreamResolver) *Gateway {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Gateway{
		log:        log,
		cfg:        cfg,
		downstream: downstream,
		upstreams:  upstreams,
		states:     map[types.TaskID]*alignment{},
	}
}

// ReloadConf updates the internal configuration.
func (g *Gateway) ReloadConf(cfg Config) {
	g.log.Info("reloading configuration")
	if g.log.GetLevel() != cfg.Level.Get() {
		g.log.Info("updating log level",
			logging.String("old", g.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		g.log.SetLevel(cfg.Level.Get())
	}
	g.cfg = cfg
}

// SetUpstreams installs the upstream sets of a new physical plan. Buffered
// messages are dropped: a plan change is always followed by a restore.
func (g *Gateway) SetUpstreams(upstreams UpstreamResolver) {
	g.Clear()
	g.upstreams = upstreams
}

// BufferedBytes returns the bytes held back across all tasks.
func (g *Gateway) BufferedBytes() uint64 {
	return g.bufBytes
}

// Active returns the checkpoint the task is aligning on, if any.
func (g *Gateway) Active(task types.TaskID) types.CheckpointID {
	if st, ok := g.states[task]; ok {
		return st.active
	}
	return types.EmptyCheckpointID
}

// Pending returns the producers of task whose marker is still expected.
func (g *Gateway) Pending(task types.TaskID) types.TaskSet {
	if st, ok := g.states[task]; ok && !st.active.IsEmpty() {
		return st.pending.Clone()
	}
	return types.TaskSet{}
}

// Forward routes a data message to a local task, or buffers it when the
// producer is already past the barrier of the checkpoint in flight.
func (g *Gateway) Forward(task types.TaskID, msg types.Data, size uint64) {
	if g.bufBytes > g.cfg.DrainThreshold.Get() {
		g.log.Warn("buffered data over threshold, abandoning in-flight alignments",
			logging.String("buffered", humanize.IBytes(g.bufBytes)),
			logging.String("threshold", g.cfg.DrainThreshold.String()),
		)
		g.ForceDrain()
	}
	st := g.state(task)
	if st.admit(msg) {
		g.downstream.Deliver(task, msg)
		return
	}
	st.push(msg, size)
	g.bufBytes += size
	metrics.GatewayBufferedBytesSet(g.bufBytes)
}

// OnUpstreamMarker records that src has passed the barrier of id on its way
// to dest.
func (g *Gateway) OnUpstreamMarker(src, dest types.TaskID, id types.CheckpointID) {
	st := g.state(dest)
	if !st.all.Has(src) {
		g.log.Warn("marker from a task that is not upstream, ignoring",
			logging.TaskID(src),
			logging.Int32("dest", int32(dest)),
			logging.CheckpointID(id),
		)
		return
	}
	if !id.Newer(st.done) {
		g.log.Debug("marker of an initiated checkpoint, ignoring",
			logging.TaskID(dest),
			logging.Int32("src", int32(src)),
			logging.CheckpointID(id),
		)
		return
	}

	switch {
	case id == st.active:
		st.pending.Remove(src)
	case st.active.IsEmpty():
		g.log.Debug("first marker seen, aligning",
			logging.TaskID(dest),
			logging.CheckpointID(id),
		)
		st.active = id
		st.pending.Remove(src)
	case id.Newer(st.active):
		g.log.Info("newer marker seen mid-alignment, resetting",
			logging.TaskID(dest),
			logging.CheckpointID(id),
			logging.String("abandoned", st.active.String()),
		)
		g.drain(dest, st.reset())
		metrics.GatewayEventInc("reset")
		st.active = id
		st.pending.Remove(src)
	default:
		g.log.Warn("discarding older marker",
			logging.TaskID(dest),
			logging.Int32("src", int32(src)),
			logging.CheckpointID(id),
			logging.String("active", st.active.String()),
		)
		return
	}

	if len(st.pending) == 0 {
		g.log.Debug("all markers received",
			logging.TaskID(dest),
			logging.CheckpointID(id),
			logging.Int("backlog", len(st.queue)),
		)
		backlog := st.reset()
		st.done = id
		g.downstream.InitiateCheckpoint(dest, id)
		g.drain(dest, backlog)
		metrics.GatewayEventInc("aligned")
	}
	metrics.GatewayBufferedBytesSet(g.bufBytes)
}

// ForceDrain flushes every buffer in arrival order and abandons every
// alignment in flight. No checkpoint is initiated.
func (g *Gateway) ForceDrain() {
	drained := false
	for _, task := range g.tasks() {
		st := g.states[task]
		if st.active.IsEmpty() && len(st.queue) == 0 {
			continue
		}
		g.drain(task, st.reset())
		drained = true
	}
	g.bufBytes = 0
	if drained {
		metrics.GatewayEventInc("force_drain")
	}
	metrics.GatewayBufferedBytesSet(0)
}

// Clear drops every buffered message and alignment.
func (g *Gateway) Clear() {
	g.log.Debug("clearing buffered data", logging.String("buffered", humanize.IBytes(g.bufBytes)))
	g.states = map[types.TaskID]*alignment{}
	g.bufBytes = 0
	metrics.GatewayBufferedBytesSet(0)
}

func (g *Gateway) drain(task types.TaskID, backlog []buffered) {
	for _, b := range backlog {
		g.bufBytes -= b.size
		g.downstream.Deliver(task, b.msg)
	}
}

func (g *Gateway) state(task types.TaskID) *alignment {
	st, ok := g.states[task]
	if !ok {
		st = newAlignment(g.upstreams.Upstream(task))
		g.states[task] = st
	}
	return st
}

// tasks returns the known tasks in id order, so a force drain is
// deterministic.
func (g *Gateway) tasks() []types.TaskID {
	s := make(types.TaskSet, len(g.states))
	for task := range g.states {
		s.Add(task)
	}
	return s.Sorted()
}
