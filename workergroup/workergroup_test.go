package workergroup_test

import (
	"testing"
	"time"

	"github.com/stratastream/stateful/barrier"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/restorer"
	"github.com/stratastream/stateful/types"
	"github.com/stratastream/stateful/workergroup"
	"github.com/stratastream/stateful/workergroup/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timer struct {
	d  time.Duration
	fn func()
}

// fakeScheduler queues posted closures until run is called.
type fakeScheduler struct {
	posted []func()
	timers []timer
}

func (s *fakeScheduler) Post(fn func()) error {
	s.posted = append(s.posted, fn)
	return nil
}

func (s *fakeScheduler) After(d time.Duration, fn func()) func() {
	s.timers = append(s.timers, timer{d: d, fn: fn})
	return func() {}
}

func (s *fakeScheduler) run() {
	for len(s.posted) > 0 {
		fn := s.posted[0]
		s.posted = s.posted[1:]
		fn()
	}
}

func (s *fakeScheduler) fire() {
	timers := s.timers
	s.timers = nil
	for _, t := range timers {
		t.fn()
	}
	s.run()
}

type request struct {
	msg types.Message
	cb  func(types.Message)
}

type peerMessage struct {
	to  types.WorkerGroupID
	msg types.Message
}

type testWorkerGroup struct {
	*workergroup.WorkerGroup
	sched *fakeScheduler

	peersConnected bool
	toController   []types.Message
	toPeers        []peerMessage
	requests       []request
}

func testPlan() *types.PhysicalPlan {
	return &types.PhysicalPlan{
		Topology: "word-count",
		RunID:    "run-1",
		WorkerGroups: []types.WorkerGroup{
			{ID: "wg-a", Address: "tcp://127.0.0.1:7001"},
			{ID: "wg-b", Address: "tcp://127.0.0.1:7002"},
		},
		Tasks: []types.Task{
			{ID: 1, Component: "words", WorkerGroup: "wg-a", Spout: true},
			{ID: 2, Component: "count", WorkerGroup: "wg-a"},
			{ID: 3, Component: "count", WorkerGroup: "wg-b"},
			{ID: 4, Component: "words", WorkerGroup: "wg-b", Spout: true},
		},
		Upstreams: map[types.TaskID][]types.TaskID{
			2: {1, 4},
			3: {1},
		},
	}
}

func testConfig() workergroup.Config {
	cfg := workergroup.NewDefaultConfig()
	cfg.ID = "wg-a"
	return cfg
}

func getTestWorkerGroup(t *testing.T) *testWorkerGroup {
	t.Helper()
	ctrl := gomock.NewController(t)
	controller := mocks.NewMockController(ctrl)
	ckptmgr := mocks.NewMockCheckpointManager(ctrl)
	peers := mocks.NewMockPeers(ctrl)

	tw := &testWorkerGroup{
		sched:          &fakeScheduler{},
		peersConnected: true,
	}
	controller.EXPECT().Send(gomock.Any()).AnyTimes().Do(func(msg types.Message) {
		tw.toController = append(tw.toController, msg)
	})
	ckptmgr.EXPECT().Request(gomock.Any(), gomock.Any()).AnyTimes().Do(func(msg types.Message, cb func(types.Message)) {
		tw.requests = append(tw.requests, request{msg: msg, cb: cb})
	})
	peers.EXPECT().Send(gomock.Any(), gomock.Any()).AnyTimes().Do(func(wg types.WorkerGroupID, msg types.Message) {
		tw.toPeers = append(tw.toPeers, peerMessage{to: wg, msg: msg})
	})
	peers.EXPECT().AllConnected().AnyTimes().DoAndReturn(func() bool { return tw.peersConnected })
	peers.EXPECT().CloseAndClear().AnyTimes()
	peers.EXPECT().StartConnections(gomock.Any()).AnyTimes()

	tw.WorkerGroup = workergroup.New(logging.NewTestLogger(), testConfig(),
		barrier.NewDefaultConfig(), restorer.NewDefaultConfig(), workergroup.WordCount(),
		controller, ckptmgr, peers, tw.sched)
	return tw
}

// reply answers every outstanding request of kind, oldest first.
func (tw *testWorkerGroup) reply(t *testing.T, kind types.Kind, answer func(types.Message) types.Message) []types.Message {
	t.Helper()
	var (
		answered []types.Message
		rest     []request
	)
	pending := tw.requests
	tw.requests = nil
	for _, r := range pending {
		if r.msg.Kind() != kind {
			rest = append(rest, r)
			continue
		}
		answered = append(answered, r.msg)
		r.cb(answer(r.msg))
	}
	tw.requests = append(rest, tw.requests...)
	tw.sched.run()
	require.NotEmpty(t, answered, "no %s request outstanding", kind)
	return answered
}

func (tw *testWorkerGroup) register(t *testing.T) {
	t.Helper()
	tw.OnCheckpointManagerConnected()
	tw.reply(t, types.KindRegisterWorkerGroup, func(types.Message) types.Message {
		return types.RegisterWorkerGroupResponse{Status: types.OK()}
	})
}

func (tw *testWorkerGroup) replyFetches(t *testing.T, states map[types.TaskID]string) []types.Message {
	t.Helper()
	return tw.reply(t, types.KindGetInstanceState, func(msg types.Message) types.Message {
		req := msg.(types.GetInstanceState)
		return types.GetInstanceStateResponse{
			Status:   types.OK(),
			Instance: req.Instance,
			State:    []byte(states[req.Instance.Task]),
		}
	})
}

func (tw *testWorkerGroup) replySaves(t *testing.T, status types.Status) []types.Message {
	t.Helper()
	return tw.reply(t, types.KindSaveInstanceState, func(msg types.Message) types.Message {
		return types.SaveInstanceStateResponse{Status: status, Instance: msg.(types.SaveInstanceState).Instance}
	})
}

// restoreAndResume takes the worker group through a full restore of id.
func (tw *testWorkerGroup) restoreAndResume(t *testing.T, id types.CheckpointID, txid types.TxID, states map[types.TaskID]string) {
	t.Helper()
	tw.Handle(types.NewPhysicalPlan{Plan: *testPlan()})
	tw.register(t)
	tw.Handle(types.RestoreTopologyState{CheckpointID: id, TxID: txid})
	tw.replyFetches(t, states)
	require.Contains(t, tw.toController, types.RestoredTopologyState{
		WorkerGroup:  "wg-a",
		CheckpointID: id,
		TxID:         txid,
		Status:       types.OK(),
	})
	tw.Handle(types.StartStatefulProcessing{CheckpointID: id})
	require.True(t, tw.Processing())
	tw.toController = nil
	tw.toPeers = nil
}

func counts(t *testing.T, tw *testWorkerGroup, task types.TaskID) map[string]uint64 {
	t.Helper()
	inst, ok := tw.Instance(task)
	require.True(t, ok)
	return inst.(*workergroup.Counter).Counts()
}

var restoredStates = map[types.TaskID]string{
	1: "3",
	2: `{"the":2}`,
}

func TestRestore(t *testing.T) {
	t.Run("restore loads every local task and reports to the controller", testRestoreLoadsTasks)
	t.Run("fetches wait for the checkpoint manager session", testFetchWaitsForSession)
	t.Run("task failing to load its state is rebuilt and fetched again", testTaskRestart)
	t.Run("restore before any plan is refused", testRestoreWithoutPlan)
	t.Run("resume while restoring is ignored", testResumeWhileRestoring)
	t.Run("new plan keeps the transaction id watermark", testNewPlanKeepsTxID)
	t.Run("lost peer delays the restore", testPeerLost)
}

func TestProcessing(t *testing.T) {
	t.Run("tuples reach local and remote tasks", testTuplesFlow)
	t.Run("checkpoint aligns markers and saves every task", testCheckpoint)
	t.Run("failed save is not reported", testSaveFailure)
	t.Run("nothing flows before processing resumes", testNotProcessing)
}

func TestSessions(t *testing.T) {
	t.Run("controller connection joins the topology", testJoinTopology)
	t.Run("refused registration is retried", testRegisterRetry)
}

func testRestoreLoadsTasks(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.restoreAndResume(t, "ck1", 1, restoredStates)

	inst, ok := tw.Instance(1)
	require.True(t, ok)
	assert.Equal(t, uint64(3), inst.(*workergroup.WordSpout).Offset())
	assert.Equal(t, map[string]uint64{"the": 2}, counts(t, tw, 2))

	_, ok = tw.Instance(3)
	assert.False(t, ok, "task of another worker group")
}

func testFetchWaitsForSession(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.Handle(types.NewPhysicalPlan{Plan: *testPlan()})
	tw.Handle(types.RestoreTopologyState{CheckpointID: "ck1", TxID: 1})
	assert.Empty(t, tw.requests)

	tw.register(t)
	fetched := tw.replyFetches(t, restoredStates)
	require.Len(t, fetched, 2)
	assert.Equal(t, types.InstanceCheckpoint{CheckpointID: "ck1", Task: 1, Component: "words"}, fetched[0].(types.GetInstanceState).Instance)
	assert.Equal(t, types.InstanceCheckpoint{CheckpointID: "ck1", Task: 2, Component: "count"}, fetched[1].(types.GetInstanceState).Instance)
	assert.Len(t, tw.toController, 1)
}

func testTaskRestart(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.Handle(types.NewPhysicalPlan{Plan: *testPlan()})
	tw.register(t)
	tw.Handle(types.RestoreTopologyState{CheckpointID: "ck1", TxID: 1})
	tw.replyFetches(t, map[types.TaskID]string{1: "3", 2: "not json"})
	assert.Empty(t, tw.toController)
	_, ok := tw.Instance(2)
	assert.False(t, ok)
	getState, restoreAck, _, local := tw.Restorer().Pending()
	assert.True(t, local, "torn down task is a lost local connection")
	assert.Equal(t, []types.TaskID{2}, getState.Sorted())
	assert.Equal(t, []types.TaskID{2}, restoreAck.Sorted())
	require.Len(t, tw.sched.timers, 1)
	cfg := testConfig()
	assert.Equal(t, cfg.TaskRestartDelay.Get(), tw.sched.timers[0].d)

	tw.sched.fire()
	_, _, _, local = tw.Restorer().Pending()
	assert.False(t, local)
	fetched := tw.replyFetches(t, restoredStates)
	require.Len(t, fetched, 1)
	assert.Equal(t, types.TaskID(2), fetched[0].(types.GetInstanceState).Instance.Task)

	require.Len(t, tw.toController, 1)
	assert.True(t, tw.toController[0].(types.RestoredTopologyState).Status.IsOK())
	assert.Equal(t, map[string]uint64{"the": 2}, counts(t, tw, 2))
}

func testRestoreWithoutPlan(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.Handle(types.RestoreTopologyState{CheckpointID: "ck1", TxID: 1})
	require.Len(t, tw.toController, 1)
	resp := tw.toController[0].(types.RestoredTopologyState)
	assert.False(t, resp.Status.IsOK())
	assert.Equal(t, types.TxID(1), resp.TxID)
}

func testResumeWhileRestoring(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.Handle(types.NewPhysicalPlan{Plan: *testPlan()})
	tw.Handle(types.RestoreTopologyState{CheckpointID: "ck1", TxID: 1})
	tw.Handle(types.StartStatefulProcessing{CheckpointID: "ck1"})
	assert.False(t, tw.Processing())
}

func testNewPlanKeepsTxID(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.restoreAndResume(t, "ck1", 5, restoredStates)
	tw.Handle(types.NewPhysicalPlan{Plan: *testPlan()})
	assert.Panics(t, func() {
		tw.Handle(types.RestoreTopologyState{CheckpointID: "ck1", TxID: 5})
	})
}

func testPeerLost(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.Handle(types.NewPhysicalPlan{Plan: *testPlan()})
	tw.register(t)
	tw.peersConnected = false
	tw.Handle(types.RestoreTopologyState{CheckpointID: "ck1", TxID: 1})
	tw.replyFetches(t, restoredStates)
	assert.Empty(t, tw.toController)

	// another peer coming up is not enough while one is still down
	tw.OnPeerConnected()
	assert.Empty(t, tw.toController)

	tw.peersConnected = true
	tw.OnPeerConnected()
	require.Len(t, tw.toController, 1)
}

func testTuplesFlow(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.restoreAndResume(t, "ck1", 1, restoredStates)

	tw.Tick()
	tw.Tick()
	assert.Equal(t, map[string]uint64{"the": 3, "over": 1}, counts(t, tw, 2))
	assert.Equal(t, []peerMessage{
		{to: "wg-b", msg: types.Data{Src: 1, Dest: 3, Payload: []byte("over")}},
		{to: "wg-b", msg: types.Data{Src: 1, Dest: 3, Payload: []byte("the")}},
	}, tw.toPeers)

	tw.Handle(types.Data{Src: 4, Dest: 2, Payload: []byte("moon")})
	assert.Equal(t, uint64(1), counts(t, tw, 2)["moon"])

	// not ours
	tw.Handle(types.Data{Src: 1, Dest: 3, Payload: []byte("moon")})
	assert.Len(t, tw.toPeers, 2)
}

func testCheckpoint(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.restoreAndResume(t, "ck1", 1, restoredStates)

	tw.Tick()
	tw.Handle(types.StartStatefulCheckpoint{CheckpointID: "ck2"})
	assert.Equal(t, types.CheckpointID("ck2"), tw.Gateway().Active(2))
	assert.Equal(t, []types.TaskID{4}, tw.Gateway().Pending(2).Sorted())

	// task 1 is past the barrier, its tuples wait for the marker of task 4
	tw.Tick()
	assert.Equal(t, map[string]uint64{"the": 2, "over": 1}, counts(t, tw, 2))

	tw.Handle(types.CheckpointMarker{Src: 4, Dest: 2, CheckpointID: "ck2"})
	assert.Equal(t, map[string]uint64{"the": 3, "over": 1}, counts(t, tw, 2))
	assert.True(t, tw.Gateway().Active(2).IsEmpty())

	assert.Equal(t, []peerMessage{
		{to: "wg-b", msg: types.Data{Src: 1, Dest: 3, Payload: []byte("over")}},
		{to: "wg-b", msg: types.CheckpointMarker{Src: 1, Dest: 3, CheckpointID: "ck2"}},
		{to: "wg-b", msg: types.Data{Src: 1, Dest: 3, Payload: []byte("the")}},
	}, tw.toPeers)

	saves := tw.replySaves(t, types.OK())
	require.Len(t, saves, 2)
	spout := saves[0].(types.SaveInstanceState)
	assert.Equal(t, types.InstanceCheckpoint{CheckpointID: "ck2", Task: 1, Component: "words"}, spout.Instance)
	assert.Equal(t, "4", string(spout.State))
	counter := saves[1].(types.SaveInstanceState)
	assert.Equal(t, types.TaskID(2), counter.Instance.Task)
	assert.JSONEq(t, `{"the":2,"over":1}`, string(counter.State))

	assert.Equal(t, []types.Message{
		types.InstanceStateStored{CheckpointID: "ck2", Task: 1},
		types.InstanceStateStored{CheckpointID: "ck2", Task: 2},
	}, tw.toController)
}

func testSaveFailure(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.restoreAndResume(t, "ck1", 1, restoredStates)
	tw.Handle(types.StartStatefulCheckpoint{CheckpointID: "ck2"})
	tw.replySaves(t, types.NotOK("disk full"))
	assert.Empty(t, tw.toController)
}

func testNotProcessing(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.Handle(types.NewPhysicalPlan{Plan: *testPlan()})
	tw.register(t)

	tw.Tick()
	tw.Handle(types.Data{Src: 4, Dest: 2, Payload: []byte("moon")})
	tw.Handle(types.StartStatefulCheckpoint{CheckpointID: "ck2"})
	tw.Handle(types.CheckpointMarker{Src: 4, Dest: 2, CheckpointID: "ck2"})

	assert.Empty(t, counts(t, tw, 2))
	assert.Empty(t, tw.toPeers)
	assert.Empty(t, tw.requests)
}

func testJoinTopology(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.OnControllerConnected()
	tw.OnControllerConnected()
	join := types.JoinTopology{
		Topology:    "word-count",
		WorkerGroup: "wg-a",
		Address:     testConfig().Listen,
	}
	assert.Equal(t, []types.Message{join, join}, tw.toController)
}

func testRegisterRetry(t *testing.T) {
	tw := getTestWorkerGroup(t)
	tw.OnCheckpointManagerConnected()
	regs := tw.reply(t, types.KindRegisterWorkerGroup, func(types.Message) types.Message {
		return types.RegisterWorkerGroupResponse{Status: types.NotOK("a session was already open")}
	})
	assert.Equal(t, types.RegisterWorkerGroup{
		Topology:    "word-count",
		RunID:       "run-1",
		WorkerGroup: "wg-a",
		Address:     testConfig().Listen,
	}, regs[0])
	assert.False(t, tw.Registered())
	require.Len(t, tw.sched.timers, 1)

	tw.sched.fire()
	tw.reply(t, types.KindRegisterWorkerGroup, func(types.Message) types.Message {
		return types.RegisterWorkerGroupResponse{Status: types.OK()}
	})
	assert.True(t, tw.Registered())

	tw.OnCheckpointManagerDisconnected()
	assert.False(t, tw.Registered())
}
