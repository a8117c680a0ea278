package types

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

var (
	ErrPlanNoTopology       = errors.New("physical plan has no topology name")
	ErrPlanDuplicateTask    = errors.New("physical plan has duplicate task")
	ErrPlanUnknownGroup     = errors.New("physical plan task references unknown worker group")
	ErrPlanUnknownUpstream  = errors.New("physical plan upstream references unknown task")
	ErrPlanDuplicateGroupID = errors.New("physical plan has duplicate worker group")
)

// WorkerGroup is one process of the topology and where to reach it.
type WorkerGroup struct {
	ID      WorkerGroupID `json:"id"`
	Address string        `json:"address"`
}

// Task is one instance of one component.
type Task struct {
	ID          TaskID        `json:"id"`
	Component   string        `json:"component"`
	WorkerGroup WorkerGroupID `json:"worker_group"`
	Spout       bool          `json:"spout,omitempty"`
}

// PhysicalPlan maps tasks onto worker groups. Upstreams lists, for every
// task, the tasks that send data to it.
type PhysicalPlan struct {
	Topology     string             `json:"topology"`
	RunID        string             `json:"run_id"`
	WorkerGroups []WorkerGroup      `json:"worker_groups"`
	Tasks        []Task             `json:"tasks"`
	Upstreams    map[TaskID][]TaskID `json:"upstreams,omitempty"`
}

// Validate checks the plan references are consistent.
func (p *PhysicalPlan) Validate() error {
	if len(p.Topology) == 0 {
		return ErrPlanNoTopology
	}
	groups := NewWorkerGroupSet()
	for _, wg := range p.WorkerGroups {
		if groups.Has(wg.ID) {
			return fmt.Errorf("%w: %s", ErrPlanDuplicateGroupID, wg.ID)
		}
		groups.Add(wg.ID)
	}
	tasks := NewTaskSet()
	for _, t := range p.Tasks {
		if tasks.Has(t.ID) {
			return fmt.Errorf("%w: %d", ErrPlanDuplicateTask, t.ID)
		}
		if !groups.Has(t.WorkerGroup) {
			return fmt.Errorf("%w: task %d on %s", ErrPlanUnknownGroup, t.ID, t.WorkerGroup)
		}
		tasks.Add(t.ID)
	}
	for dest, srcs := range p.Upstreams {
		if !tasks.Has(dest) {
			return fmt.Errorf("%w: %d", ErrPlanUnknownUpstream, dest)
		}
		for _, src := range srcs {
			if !tasks.Has(src) {
				return fmt.Errorf("%w: %d -> %d", ErrPlanUnknownUpstream, src, dest)
			}
		}
	}
	return nil
}

// AllTasks returns every task of the plan.
func (p *PhysicalPlan) AllTasks() TaskSet {
	s := make(TaskSet, len(p.Tasks))
	for _, t := range p.Tasks {
		s.Add(t.ID)
	}
	return s
}

// LocalTasks returns the tasks hosted by wg.
func (p *PhysicalPlan) LocalTasks(wg WorkerGroupID) TaskSet {
	s := TaskSet{}
	for _, t := range p.Tasks {
		if t.WorkerGroup == wg {
			s.Add(t.ID)
		}
	}
	return s
}

// LocalSpouts returns the source tasks hosted by wg.
func (p *PhysicalPlan) LocalSpouts(wg WorkerGroupID) TaskSet {
	s := TaskSet{}
	for _, t := range p.Tasks {
		if t.WorkerGroup == wg && t.Spout {
			s.Add(t.ID)
		}
	}
	return s
}

// Peers returns every worker group of the plan except wg.
func (p *PhysicalPlan) Peers(wg WorkerGroupID) []WorkerGroup {
	out := make([]WorkerGroup, 0, len(p.WorkerGroups))
	for _, g := range p.WorkerGroups {
		if g.ID != wg {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b WorkerGroup) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (p *PhysicalPlan) WorkerGroupIDs() WorkerGroupSet {
	s := make(WorkerGroupSet, len(p.WorkerGroups))
	for _, g := range p.WorkerGroups {
		s.Add(g.ID)
	}
	return s
}

// Upstream returns the tasks feeding task.
func (p *PhysicalPlan) Upstream(task TaskID) TaskSet {
	return NewTaskSet(p.Upstreams[task]...)
}

// Downstream returns the tasks task feeds.
func (p *PhysicalPlan) Downstream(task TaskID) []TaskID {
	var out []TaskID
	for dest, srcs := range p.Upstreams {
		if slices.Contains(srcs, task) {
			out = append(out, dest)
		}
	}
	slices.Sort(out)
	return out
}

// Task looks up a task by id.
func (p *PhysicalPlan) Task(id TaskID) (Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

func (p *PhysicalPlan) WorkerGroup(id WorkerGroupID) (WorkerGroup, bool) {
	for _, g := range p.WorkerGroups {
		if g.ID == id {
			return g, true
		}
	}
	return WorkerGroup{}, false
}

// Clone returns a deep copy of the plan.
func (p *PhysicalPlan) Clone() *PhysicalPlan {
	c := &PhysicalPlan{
		Topology:     p.Topology,
		RunID:        p.RunID,
		WorkerGroups: slices.Clone(p.WorkerGroups),
		Tasks:        slices.Clone(p.Tasks),
	}
	if p.Upstreams != nil {
		c.Upstreams = make(map[TaskID][]TaskID, len(p.Upstreams))
		for dest, srcs := range p.Upstreams {
			c.Upstreams[dest] = slices.Clone(srcs)
		}
	}
	return c
}

// SetAddress records where wg listens. It reports false if wg is not part
// of the plan.
func (p *PhysicalPlan) SetAddress(wg WorkerGroupID, addr string) bool {
	for i := range p.WorkerGroups {
		if p.WorkerGroups[i].ID == wg {
			p.WorkerGroups[i].Address = addr
			return true
		}
	}
	return false
}
