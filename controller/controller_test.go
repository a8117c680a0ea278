package controller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stratastream/stateful/checkpoint"
	ckptmocks "github.com/stratastream/stateful/checkpoint/mocks"
	"github.com/stratastream/stateful/controller"
	"github.com/stratastream/stateful/controller/mocks"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/restore"
	"github.com/stratastream/stateful/types"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topology = "word-count"

type sent struct {
	to  types.WorkerGroupID
	msg types.Message
}

type testController struct {
	*controller.Controller
	broker *mocks.MockBroker
	store  *ckptmocks.MockRecordStore
	sent   []sent
	fatal  []error
}

func testPlan() *types.PhysicalPlan {
	return &types.PhysicalPlan{
		Topology: topology,
		RunID:    "run-1",
		WorkerGroups: []types.WorkerGroup{
			{ID: "wg-a"},
			{ID: "wg-b"},
		},
		Tasks: []types.Task{
			{ID: 1, Component: "words", WorkerGroup: "wg-a", Spout: true},
			{ID: 2, Component: "count", WorkerGroup: "wg-b"},
		},
		Upstreams: map[types.TaskID][]types.TaskID{2: {1}},
	}
}

func getTestController(t *testing.T, rec types.CheckpointRecord, cfg controller.Config) *testController {
	t.Helper()
	ctrl := gomock.NewController(t)
	tc := &testController{
		broker: mocks.NewMockBroker(ctrl),
		store:  ckptmocks.NewMockRecordStore(ctrl),
	}
	tc.broker.EXPECT().Connect(gomock.Any(), gomock.Any()).AnyTimes().Return(nil)
	tc.broker.EXPECT().Send(gomock.Any(), gomock.Any()).AnyTimes().Do(func(wg types.WorkerGroupID, msg types.Message) {
		tc.sent = append(tc.sent, sent{to: wg, msg: msg})
	})
	tc.store.EXPECT().GetRecord(gomock.Any(), topology).Return(rec, nil)

	log := logging.NewTestLogger()
	ckpt, err := checkpoint.New(context.Background(), log, checkpoint.NewDefaultConfig(), topology, 1, tc.broker, tc.store)
	require.NoError(t, err)
	tc.Controller = controller.New(log, cfg, restore.NewDefaultConfig(), testPlan(), tc.broker, ckpt, func(err error) {
		tc.fatal = append(tc.fatal, err)
	})
	return tc
}

// tx is the nth restore txid of the controller under test.
func tx(n int64) types.TxID {
	return restore.TxIDBase(1) + types.TxID(n)
}

// messages returns the sent messages of type T, oldest first.
func messages[T types.Message](tc *testController) []sent {
	var out []sent
	for _, s := range tc.sent {
		if _, ok := s.msg.(T); ok {
			out = append(out, s)
		}
	}
	return out
}

func (tc *testController) joinAll() {
	tc.OnJoinTopology(types.JoinTopology{Topology: topology, WorkerGroup: "wg-a", Address: "inproc://wg-a"})
	tc.OnJoinTopology(types.JoinTopology{Topology: topology, WorkerGroup: "wg-b", Address: "inproc://wg-b"})
}

func (tc *testController) restoredAll(id types.CheckpointID, txid types.TxID) {
	for _, wg := range []types.WorkerGroupID{"wg-a", "wg-b"} {
		tc.OnRestoredTopologyState(types.RestoredTopologyState{WorkerGroup: wg, CheckpointID: id, TxID: txid, Status: types.OK()})
	}
}

func TestController(t *testing.T) {
	t.Run("plan is distributed once every worker group joined", testDistribution)
	t.Run("previous state can be ignored", testIgnorePreviousState)
	t.Run("checkpoints are suppressed while restoring", testCheckpointSuppressed)
	t.Run("acknowledgements are ignored while restoring", testAcksIgnoredWhileRestoring)
	t.Run("rejoining worker group restarts the restore", testRejoin)
	t.Run("failed restore falls back", testRestoreFallback)
	t.Run("exhausted fallback is fatal", testRestoreFatal)
	t.Run("strangers are turned away", testStrangers)
}

func testDistribution(t *testing.T) {
	tc := getTestController(t, types.CheckpointRecord{MostRecent: "ck9"}, controller.NewDefaultConfig())
	tc.OnJoinTopology(types.JoinTopology{Topology: topology, WorkerGroup: "wg-a", Address: "inproc://wg-a"})
	assert.Empty(t, tc.sent)
	assert.Nil(t, tc.Plan())

	tc.OnJoinTopology(types.JoinTopology{Topology: topology, WorkerGroup: "wg-b", Address: "inproc://wg-b"})
	plans := messages[types.NewPhysicalPlan](tc)
	require.Len(t, plans, 2)
	plan := plans[0].msg.(types.NewPhysicalPlan).Plan
	wg, _ := plan.WorkerGroup("wg-b")
	assert.Equal(t, "inproc://wg-b", wg.Address)

	restores := messages[types.RestoreTopologyState](tc)
	require.Len(t, restores, 2)
	assert.Equal(t, types.RestoreTopologyState{CheckpointID: "ck9", TxID: tx(1)}, restores[0].msg)
	assert.True(t, tc.RestoreInProgress())

	tc.restoredAll("ck9", tx(1))
	assert.False(t, tc.RestoreInProgress())
	assert.Len(t, messages[types.StartStatefulProcessing](tc), 2)
}

func testIgnorePreviousState(t *testing.T) {
	cfg := controller.NewDefaultConfig()
	cfg.IgnorePreviousState = true
	tc := getTestController(t, types.CheckpointRecord{MostRecent: "ck9"}, cfg)
	tc.joinAll()
	restores := messages[types.RestoreTopologyState](tc)
	require.Len(t, restores, 2)
	assert.Equal(t, types.RestoreTopologyState{CheckpointID: types.EmptyCheckpointID, TxID: tx(1)}, restores[0].msg)

	// only the first restore ignores the record
	tc.restoredAll(types.EmptyCheckpointID, tx(1))
	tc.OnJoinTopology(types.JoinTopology{Topology: topology, WorkerGroup: "wg-a", Address: "inproc://wg-a"})
	restores = messages[types.RestoreTopologyState](tc)
	assert.Equal(t, types.RestoreTopologyState{CheckpointID: "ck9", TxID: tx(2)}, restores[len(restores)-1].msg)
}

func testCheckpointSuppressed(t *testing.T) {
	tc := getTestController(t, types.CheckpointRecord{}, controller.NewDefaultConfig())
	now := time.Unix(1000, 0)
	tc.Tick(now)
	tc.joinAll()

	tc.Tick(now.Add(time.Minute))
	assert.Empty(t, messages[types.StartStatefulCheckpoint](tc))

	tc.restoredAll(types.EmptyCheckpointID, tx(1))
	tc.Tick(now.Add(2 * time.Minute))
	starts := messages[types.StartStatefulCheckpoint](tc)
	require.Len(t, starts, 2)
	assert.Equal(t, types.WorkerGroupID("wg-a"), starts[0].to)
	assert.Equal(t, types.WorkerGroupID("wg-b"), starts[1].to)
}

func testAcksIgnoredWhileRestoring(t *testing.T) {
	tc := getTestController(t, types.CheckpointRecord{}, controller.NewDefaultConfig())
	ctx := context.Background()
	tc.joinAll()

	// no SetRecord expected while restoring
	tc.OnInstanceStateStored(ctx, types.InstanceStateStored{CheckpointID: "ck1", Task: 1})
	tc.OnInstanceStateStored(ctx, types.InstanceStateStored{CheckpointID: "ck1", Task: 2})

	tc.restoredAll(types.EmptyCheckpointID, tx(1))
	tc.store.EXPECT().SetRecord(gomock.Any(), topology, types.CheckpointRecord{MostRecent: "ck2"}).Times(1).Return(nil)
	tc.Handle(ctx, types.InstanceStateStored{CheckpointID: "ck2", Task: 1})
	tc.Handle(ctx, types.InstanceStateStored{CheckpointID: "ck2", Task: 2})
}

func testRejoin(t *testing.T) {
	tc := getTestController(t, types.CheckpointRecord{MostRecent: "ck9"}, controller.NewDefaultConfig())
	tc.joinAll()
	tc.restoredAll("ck9", tx(1))

	tc.OnJoinTopology(types.JoinTopology{Topology: topology, WorkerGroup: "wg-b", Address: "inproc://wg-b2"})
	assert.True(t, tc.RestoreInProgress())
	plans := messages[types.NewPhysicalPlan](tc)
	require.Len(t, plans, 4)
	wg, _ := tc.Plan().WorkerGroup("wg-b")
	assert.Equal(t, "inproc://wg-b2", wg.Address)

	restores := messages[types.RestoreTopologyState](tc)
	assert.Equal(t, types.RestoreTopologyState{CheckpointID: "ck9", TxID: tx(2)}, restores[len(restores)-1].msg)
}

func testRestoreFallback(t *testing.T) {
	tc := getTestController(t, types.CheckpointRecord{MostRecent: "ck9", Backups: []types.CheckpointID{"ck8"}}, controller.NewDefaultConfig())
	tc.joinAll()
	tc.OnRestoredTopologyState(types.RestoredTopologyState{WorkerGroup: "wg-a", CheckpointID: "ck9", TxID: tx(1), Status: types.NotOK("missing")})

	restores := messages[types.RestoreTopologyState](tc)
	assert.Equal(t, types.RestoreTopologyState{CheckpointID: "ck8", TxID: tx(2)}, restores[len(restores)-1].msg)
	assert.Empty(t, tc.fatal)
}

func testRestoreFatal(t *testing.T) {
	tc := getTestController(t, types.CheckpointRecord{}, controller.NewDefaultConfig())
	tc.joinAll()
	tc.OnRestoredTopologyState(types.RestoredTopologyState{WorkerGroup: "wg-a", CheckpointID: types.EmptyCheckpointID, TxID: tx(1), Status: types.NotOK("corrupt")})
	require.Len(t, tc.fatal, 1)
	assert.True(t, errors.Is(tc.fatal[0], checkpoint.ErrFromScratchFailed))
}

func testStrangers(t *testing.T) {
	tc := getTestController(t, types.CheckpointRecord{}, controller.NewDefaultConfig())
	tc.OnJoinTopology(types.JoinTopology{Topology: "other", WorkerGroup: "wg-a", Address: "inproc://wg-a"})
	tc.OnJoinTopology(types.JoinTopology{Topology: topology, WorkerGroup: "wg-z", Address: "inproc://wg-z"})
	tc.OnJoinTopology(types.JoinTopology{Topology: topology, WorkerGroup: "wg-a", Address: "inproc://wg-a"})
	assert.Empty(t, tc.sent)
	assert.Nil(t, tc.Plan())
}
