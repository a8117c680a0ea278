package workergroup

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stratastream/stateful/types"

	"golang.org/x/exp/maps"
)

var ErrUnknownComponent = errors.New("unknown component")

// Emitter hands a payload to every downstream task of the emitting task.
type Emitter func(payload []byte)

// Task is the user code of one task. It only ever runs on the worker group
// event loop.
type Task interface {
	Process(src types.TaskID, payload []byte, emit Emitter)
	// Snapshot returns the state to save for a checkpoint.
	Snapshot() ([]byte, error)
	// Restore replaces the state, nil being the empty state.
	Restore(state []byte) error
}

// Spout is a task producing tuples on its own.
type Spout interface {
	Task
	Next(emit Emitter)
}

type Factory func(task types.Task) Task

// Components maps component names of the plan to their code.
type Components map[string]Factory

func (c Components) Build(task types.Task) (Task, error) {
	f, ok := c[task.Component]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, task.Component)
	}
	return f(task), nil
}

var sentences = []string{
	"the cow jumped over the moon",
	"an apple a day keeps the doctor away",
	"four score and seven years ago",
	"snow white and the seven dwarfs",
}

// WordCount returns the components of the word count topology: a "words"
// spout cycling through a fixed text and a "count" bolt.
func WordCount() Components {
	return Components{
		"words": func(types.Task) Task { return NewWordSpout(sentences) },
		"count": func(types.Task) Task { return NewCounter() },
	}
}

// WordSpout emits the words of its text one at a time, forever. Its state is
// the position in the text.
type WordSpout struct {
	words  []string
	offset uint64
}

func NewWordSpout(text []string) *WordSpout {
	return &WordSpout{words: strings.Fields(strings.Join(text, " "))}
}

func (s *WordSpout) Next(emit Emitter) {
	if len(s.words) == 0 {
		return
	}
	emit([]byte(s.words[s.offset%uint64(len(s.words))]))
	s.offset++
}

func (s *WordSpout) Process(types.TaskID, []byte, Emitter) {}

func (s *WordSpout) Offset() uint64 {
	return s.offset
}

func (s *WordSpout) Snapshot() ([]byte, error) {
	return json.Marshal(s.offset)
}

func (s *WordSpout) Restore(state []byte) error {
	if len(state) == 0 {
		s.offset = 0
		return nil
	}
	return json.Unmarshal(state, &s.offset)
}

// Counter counts the words it receives.
type Counter struct {
	counts map[string]uint64
}

func NewCounter() *Counter {
	return &Counter{counts: map[string]uint64{}}
}

func (c *Counter) Process(_ types.TaskID, payload []byte, _ Emitter) {
	c.counts[string(payload)]++
}

// Counts returns a copy of the counts.
func (c *Counter) Counts() map[string]uint64 {
	return maps.Clone(c.counts)
}

func (c *Counter) Snapshot() ([]byte, error) {
	return json.Marshal(c.counts)
}

func (c *Counter) Restore(state []byte) error {
	counts := map[string]uint64{}
	if len(state) > 0 {
		if err := json.Unmarshal(state, &counts); err != nil {
			return err
		}
	}
	c.counts = counts
	return nil
}
