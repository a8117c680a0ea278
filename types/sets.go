package types

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// TaskSet is an unordered set of tasks. Iterate with Sorted when the order
// ends up on the wire or in a log line.
type TaskSet map[TaskID]struct{}

func NewTaskSet(ids ...TaskID) TaskSet {
	s := make(TaskSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s TaskSet) Add(id TaskID) {
	s[id] = struct{}{}
}

// Remove deletes id and reports whether it was present.
func (s TaskSet) Remove(id TaskID) bool {
	if _, ok := s[id]; !ok {
		return false
	}
	delete(s, id)
	return true
}

func (s TaskSet) Has(id TaskID) bool {
	_, ok := s[id]
	return ok
}

func (s TaskSet) Clone() TaskSet {
	if s == nil {
		return TaskSet{}
	}
	return maps.Clone(s)
}

func (s TaskSet) Sorted() []TaskID {
	out := make([]TaskID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Int32s is used by the logging field helpers.
func (s TaskSet) Int32s() []int32 {
	out := make([]int32, 0, len(s))
	for _, id := range s.Sorted() {
		out = append(out, int32(id))
	}
	return out
}

type WorkerGroupSet map[WorkerGroupID]struct{}

func NewWorkerGroupSet(ids ...WorkerGroupID) WorkerGroupSet {
	s := make(WorkerGroupSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s WorkerGroupSet) Add(id WorkerGroupID) {
	s[id] = struct{}{}
}

func (s WorkerGroupSet) Remove(id WorkerGroupID) bool {
	if _, ok := s[id]; !ok {
		return false
	}
	delete(s, id)
	return true
}

func (s WorkerGroupSet) Has(id WorkerGroupID) bool {
	_, ok := s[id]
	return ok
}

func (s WorkerGroupSet) Clone() WorkerGroupSet {
	if s == nil {
		return WorkerGroupSet{}
	}
	return maps.Clone(s)
}

func (s WorkerGroupSet) Sorted() []WorkerGroupID {
	out := make([]WorkerGroupID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s WorkerGroupSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, id := range s.Sorted() {
		out = append(out, string(id))
	}
	return out
}
