package barrier

import "github.com/stratastream/stateful/types"

type buffered struct {
	msg  types.Data
	size uint64
}

// alignment tracks the markers of one local task. done is the last
// checkpoint initiated on the task, markers up to it are late duplicates.
type alignment struct {
	active  types.CheckpointID
	done    types.CheckpointID
	all     types.TaskSet
	pending types.TaskSet
	queue   []buffered
}

func newAlignment(upstream types.TaskSet) *alignment {
	return &alignment{
		all:     upstream,
		pending: upstream.Clone(),
	}
}

// admit reports whether msg can go straight through. A message from a
// producer whose marker is still expected precedes the barrier.
func (a *alignment) admit(msg types.Data) bool {
	if a.active.IsEmpty() {
		return true
	}
	return a.pending.Has(msg.Src)
}

func (a *alignment) push(msg types.Data, size uint64) {
	a.queue = append(a.queue, buffered{msg: msg, size: size})
}

// reset returns the buffered messages in arrival order and leaves the
// alignment inactive.
func (a *alignment) reset() []buffered {
	out := a.queue
	a.queue = nil
	a.active = types.EmptyCheckpointID
	a.pending = a.all.Clone()
	return out
}
