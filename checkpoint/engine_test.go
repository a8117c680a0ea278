package checkpoint_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stratastream/stateful/checkpoint"
	"github.com/stratastream/stateful/checkpoint/mocks"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/types"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topology = "word-count"

type testCoordinator struct {
	*checkpoint.Coordinator
	ctrl   *gomock.Controller
	broker *mocks.MockBroker
	store  *mocks.MockRecordStore
}

func getTestCoordinator(t *testing.T, rec types.CheckpointRecord) *testCoordinator {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	store := mocks.NewMockRecordStore(ctrl)
	store.EXPECT().GetRecord(gomock.Any(), topology).Times(1).Return(rec, nil)

	c, err := checkpoint.New(context.Background(), logging.NewTestLogger(), checkpoint.NewDefaultConfig(), topology, 7, broker, store)
	require.NoError(t, err)
	c.RegisterNewPlan(&types.PhysicalPlan{
		Topology: topology,
		Tasks:    []types.Task{{ID: 1}, {ID: 2}, {ID: 3}},
	})
	return &testCoordinator{
		Coordinator: c,
		ctrl:        ctrl,
		broker:      broker,
		store:       store,
	}
}

func TestStartCheckpoint(t *testing.T) {
	t.Run("ids strictly increase and reach every worker group", testStartCheckpointBroadcast)
	t.Run("ids sort after the stored record", testStartCheckpointAfterRecord)
	t.Run("due follows the interval", testDue)
}

func TestInstanceStateStored(t *testing.T) {
	t.Run("newer checkpoint abandons the partial one", testQuorumNewerAbandons)
	t.Run("all acknowledgements commit exactly once", testQuorumCommit)
	t.Run("older acknowledgements are ignored", testQuorumOlderIgnored)
	t.Run("failed save keeps the previous record", testCommitFailure)
	t.Run("backup chain stays bounded", testBackupChainBound)
	t.Run("no plan is an error", testNoPlan)
}

func TestFallback(t *testing.T) {
	t.Run("fallback walks the backup chain", testFallbackChain)
	t.Run("from-scratch failure is unrecoverable", testFallbackFromScratch)
}

func testStartCheckpointBroadcast(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{})
	var sent []types.WorkerGroupID
	tc.broker.EXPECT().Send(gomock.Any(), gomock.Any()).Times(4).Do(func(wg types.WorkerGroupID, msg types.Message) {
		sent = append(sent, wg)
		_, ok := msg.(types.StartStatefulCheckpoint)
		assert.True(t, ok)
	})
	groups := types.NewWorkerGroupSet("wg-b", "wg-a")
	first := tc.StartCheckpoint(groups)
	second := tc.StartCheckpoint(groups)
	assert.True(t, second.Newer(first))
	assert.Equal(t, uint64(7), first.Generation())
	assert.Equal(t, []types.WorkerGroupID{"wg-a", "wg-b", "wg-a", "wg-b"}, sent)
}

func testStartCheckpointAfterRecord(t *testing.T) {
	committed := types.NewCheckpointID(42, 3)
	tc := getTestCoordinator(t, types.CheckpointRecord{MostRecent: committed})
	tc.broker.EXPECT().Send(gomock.Any(), gomock.Any()).Times(1)
	id := tc.StartCheckpoint(types.NewWorkerGroupSet("wg-a"))
	assert.True(t, id.Newer(committed))
	assert.Equal(t, uint64(43), id.Generation())
}

func testDue(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{})
	now := time.Unix(1000, 0)
	assert.False(t, tc.Due(now))
	assert.False(t, tc.Due(now.Add(10*time.Second)))
	assert.True(t, tc.Due(now.Add(30*time.Second)))
	assert.False(t, tc.Due(now.Add(31*time.Second)))

	tc.OnIntervalUpdate(5 * time.Second)
	assert.True(t, tc.Due(now.Add(36*time.Second)))
}

func testQuorumNewerAbandons(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{})
	ctx := context.Background()
	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck1", 1))
	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck1", 2))
	id, remaining := tc.Partial()
	assert.Equal(t, types.CheckpointID("ck1"), id)
	assert.Equal(t, []types.TaskID{3}, remaining.Sorted())

	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck2", 1))
	id, remaining = tc.Partial()
	assert.Equal(t, types.CheckpointID("ck2"), id)
	assert.Equal(t, []types.TaskID{2, 3}, remaining.Sorted())

	// the last ack for ck1 can no longer complete it
	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck1", 3))
	assert.True(t, tc.Record().IsEmpty())
}

func testQuorumCommit(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{MostRecent: "ck0"})
	ctx := context.Background()
	tc.store.EXPECT().SetRecord(gomock.Any(), topology, types.CheckpointRecord{
		MostRecent: "ck1",
		Backups:    []types.CheckpointID{"ck0"},
	}).Times(1).Return(nil)

	for _, task := range []types.TaskID{3, 1, 1, 2} {
		require.NoError(t, tc.OnInstanceStateStored(ctx, "ck1", task))
	}
	assert.Equal(t, types.CheckpointID("ck1"), tc.Record().MostRecent)
	id, _ := tc.Partial()
	assert.True(t, id.IsEmpty())

	// a late duplicate does not start tracking ck1 again
	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck1", 2))
	id, _ = tc.Partial()
	assert.True(t, id.IsEmpty())
}

func testQuorumOlderIgnored(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{})
	ctx := context.Background()
	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck2", 1))
	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck1", 2))
	id, remaining := tc.Partial()
	assert.Equal(t, types.CheckpointID("ck2"), id)
	assert.Equal(t, []types.TaskID{2, 3}, remaining.Sorted())
}

func testCommitFailure(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{MostRecent: "ck0"})
	ctx := context.Background()
	tc.store.EXPECT().SetRecord(gomock.Any(), topology, gomock.Any()).Times(1).Return(errors.New("disk full"))

	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck1", 1))
	require.NoError(t, tc.OnInstanceStateStored(ctx, "ck1", 2))
	err := tc.OnInstanceStateStored(ctx, "ck1", 3)
	require.Error(t, err)
	assert.Equal(t, types.CheckpointRecord{MostRecent: "ck0"}, tc.Record())

	// the next checkpoint commits normally
	tc.store.EXPECT().SetRecord(gomock.Any(), topology, gomock.Any()).Times(1).Return(nil)
	for _, task := range []types.TaskID{1, 2, 3} {
		require.NoError(t, tc.OnInstanceStateStored(ctx, "ck2", task))
	}
	assert.Equal(t, types.CheckpointRecord{
		MostRecent: "ck2",
		Backups:    []types.CheckpointID{"ck0"},
	}, tc.Record())
}

func testBackupChainBound(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{})
	ctx := context.Background()
	tc.store.EXPECT().SetRecord(gomock.Any(), topology, gomock.Any()).AnyTimes().Return(nil)
	tc.broker.EXPECT().Send(gomock.Any(), gomock.Any()).AnyTimes()

	var ids []types.CheckpointID
	for i := 0; i < 8; i++ {
		id := tc.StartCheckpoint(types.NewWorkerGroupSet("wg-a"))
		ids = append(ids, id)
		for _, task := range []types.TaskID{1, 2, 3} {
			require.NoError(t, tc.OnInstanceStateStored(ctx, id, task))
		}
	}
	rec := tc.Record()
	assert.Equal(t, ids[7], rec.MostRecent)
	assert.Equal(t, []types.CheckpointID{ids[6], ids[5], ids[4], ids[3], ids[2]}, rec.Backups)
}

func testNoPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRecordStore(ctrl)
	store.EXPECT().GetRecord(gomock.Any(), topology).Return(types.CheckpointRecord{}, nil)
	c, err := checkpoint.New(context.Background(), logging.NewTestLogger(), checkpoint.NewDefaultConfig(), topology, 1, mocks.NewMockBroker(ctrl), store)
	require.NoError(t, err)
	assert.ErrorIs(t, c.OnInstanceStateStored(context.Background(), "ck1", 1), checkpoint.ErrNoPlan)
}

func testFallbackChain(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{
		MostRecent: "ckC",
		Backups:    []types.CheckpointID{"ckB", "ckA"},
	})
	for failed, want := range map[types.CheckpointID]types.CheckpointID{
		"ckC":     "ckB",
		"ckB":     "ckA",
		"ckA":     types.EmptyCheckpointID,
		"unknown": types.EmptyCheckpointID,
	} {
		next, err := tc.NextFallbackID(failed)
		require.NoError(t, err)
		assert.Equal(t, want, next, string(failed))
	}
}

func testFallbackFromScratch(t *testing.T) {
	tc := getTestCoordinator(t, types.CheckpointRecord{MostRecent: "ckA"})
	_, err := tc.NextFallbackID(types.EmptyCheckpointID)
	assert.ErrorIs(t, err, checkpoint.ErrFromScratchFailed)
}
