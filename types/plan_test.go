package types_test

import (
	"testing"

	"github.com/stratastream/stateful/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan() *types.PhysicalPlan {
	return &types.PhysicalPlan{
		Topology: "word-count",
		RunID:    "run-1",
		WorkerGroups: []types.WorkerGroup{
			{ID: "wg-b", Address: "tcp://127.0.0.1:7002"},
			{ID: "wg-a", Address: "tcp://127.0.0.1:7001"},
		},
		Tasks: []types.Task{
			{ID: 1, Component: "words", WorkerGroup: "wg-a", Spout: true},
			{ID: 2, Component: "words", WorkerGroup: "wg-b", Spout: true},
			{ID: 3, Component: "count", WorkerGroup: "wg-a"},
			{ID: 4, Component: "count", WorkerGroup: "wg-b"},
		},
		Upstreams: map[types.TaskID][]types.TaskID{
			3: {1, 2},
			4: {1, 2},
		},
	}
}

func TestPhysicalPlan(t *testing.T) {
	p := newTestPlan()
	require.NoError(t, p.Validate())

	assert.Equal(t, []types.TaskID{1, 2, 3, 4}, p.AllTasks().Sorted())
	assert.Equal(t, []types.TaskID{1, 3}, p.LocalTasks("wg-a").Sorted())
	assert.Equal(t, []types.TaskID{2}, p.LocalSpouts("wg-b").Sorted())
	assert.Equal(t, []types.TaskID{1, 2}, p.Upstream(3).Sorted())
	assert.Empty(t, p.Upstream(1))
	assert.Equal(t, []types.TaskID{3, 4}, p.Downstream(1))

	peers := p.Peers("wg-a")
	require.Len(t, peers, 1)
	assert.Equal(t, types.WorkerGroupID("wg-b"), peers[0].ID)

	task, ok := p.Task(4)
	require.True(t, ok)
	assert.Equal(t, "count", task.Component)
	_, ok = p.Task(99)
	assert.False(t, ok)
}

func TestPhysicalPlanValidate(t *testing.T) {
	p := newTestPlan()
	p.Tasks = append(p.Tasks, types.Task{ID: 1, Component: "words", WorkerGroup: "wg-a"})
	assert.ErrorIs(t, p.Validate(), types.ErrPlanDuplicateTask)

	p = newTestPlan()
	p.Tasks[0].WorkerGroup = "wg-z"
	assert.ErrorIs(t, p.Validate(), types.ErrPlanUnknownGroup)

	p = newTestPlan()
	p.Upstreams[3] = append(p.Upstreams[3], 42)
	assert.ErrorIs(t, p.Validate(), types.ErrPlanUnknownUpstream)

	p = newTestPlan()
	p.Topology = ""
	assert.ErrorIs(t, p.Validate(), types.ErrPlanNoTopology)
}

func TestPhysicalPlanClone(t *testing.T) {
	p := newTestPlan()
	c := p.Clone()
	assert.Equal(t, p, c)

	require.True(t, c.SetAddress("wg-a", "tcp://10.0.0.1:7001"))
	c.Upstreams[3][0] = 4
	wg, _ := p.WorkerGroup("wg-a")
	assert.Equal(t, "tcp://127.0.0.1:7001", wg.Address)
	assert.Equal(t, []types.TaskID{1, 2}, p.Upstreams[3])

	assert.False(t, c.SetAddress("wg-z", "tcp://10.0.0.1:7009"))
}
