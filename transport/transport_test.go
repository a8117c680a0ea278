package transport_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/transport"
	"github.com/stratastream/stateful/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	env transport.Envelope
	msg types.Message
}

type events struct {
	mu           sync.Mutex
	connected    []string
	disconnected []string
}

func (e *events) Connected(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = append(e.connected, name)
}

func (e *events) Disconnected(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnected = append(e.disconnected, name)
}

func (e *events) counts() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.connected), len(e.disconnected)
}

func listen(t *testing.T, ctx context.Context, addr string) <-chan received {
	t.Helper()
	in, err := transport.Listen(logging.NewTestLogger(), transport.NewDefaultConfig(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { in.Close() })

	ch := make(chan received, 16)
	go in.Receive(ctx, func(env transport.Envelope, msg types.Message) {
		ch <- received{env: env, msg: msg}
	})
	return ch
}

func waitFor(t *testing.T, ch <-chan received) received {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
		return received{}
	}
}

func TestOutboxToInbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := listen(t, ctx, "inproc://outbox-to-inbox")

	out, err := transport.NewOutbox(logging.NewTestLogger(), transport.NewDefaultConfig(), "wg-a", "inproc://outbox-to-inbox", nil)
	require.NoError(t, err)
	defer out.Close()
	go out.Run(ctx)

	require.NoError(t, out.Send(types.InstanceStateStored{CheckpointID: "ck1", Task: 4}))
	r := waitFor(t, ch)
	assert.Equal(t, "wg-a", r.env.From)
	assert.Equal(t, types.InstanceStateStored{CheckpointID: "ck1", Task: 4}, r.msg)

	require.NoError(t, out.Request("req-1", types.GetInstanceState{Instance: types.InstanceCheckpoint{CheckpointID: "ck1", Task: 4, Component: "count"}}))
	r = waitFor(t, ch)
	assert.Equal(t, "req-1", r.env.RequestID)
	assert.Equal(t, types.KindGetInstanceState, r.env.Kind)
	assert.True(t, out.Connected())
}

func TestRouter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chA := listen(t, ctx, "inproc://router-a")
	chB := listen(t, ctx, "inproc://router-b")

	ev := &events{}
	r := transport.NewRouter(ctx, logging.NewTestLogger(), transport.NewDefaultConfig(), "controller", ev)
	defer r.Close()
	assert.True(t, r.AllConnected())

	require.NoError(t, r.Add("wg-b", "inproc://router-b"))
	require.NoError(t, r.Add("wg-a", "inproc://router-a"))
	assert.True(t, r.Has("wg-a"))
	assert.True(t, r.Has("wg-b"))

	require.NoError(t, r.Send("wg-a", types.StartStatefulCheckpoint{CheckpointID: "ck1"}))
	require.NoError(t, r.Send("wg-b", types.StartStatefulCheckpoint{CheckpointID: "ck2"}))
	assert.Equal(t, types.StartStatefulCheckpoint{CheckpointID: "ck1"}, waitFor(t, chA).msg)
	assert.Equal(t, types.StartStatefulCheckpoint{CheckpointID: "ck2"}, waitFor(t, chB).msg)

	require.Eventually(t, r.AllConnected, 5*time.Second, 10*time.Millisecond)
	connected, _ := ev.counts()
	assert.Equal(t, 2, connected)

	assert.ErrorIs(t, r.Send("wg-c", types.StartStatefulCheckpoint{}), transport.ErrUnknownRemote)

	r.Remove("wg-b")
	assert.False(t, r.Has("wg-b"))
	assert.True(t, r.Has("wg-a"))

	// a removed remote is not a lost connection
	require.NoError(t, r.Add("wg-a", "inproc://router-b"))
	_, disconnected := ev.counts()
	assert.Zero(t, disconnected)
}

func TestCodec(t *testing.T) {
	t.Run("messages keep their concrete type", func(t *testing.T) {
		plan := types.NewPhysicalPlan{Plan: types.PhysicalPlan{
			Topology:     "word-count",
			WorkerGroups: []types.WorkerGroup{{ID: "wg-a", Address: "tcp://127.0.0.1:7001"}},
			Tasks: []types.Task{
				{ID: 1, Component: "words", WorkerGroup: "wg-a", Spout: true},
				{ID: 2, Component: "count", WorkerGroup: "wg-a"},
			},
			Upstreams: map[types.TaskID][]types.TaskID{2: {1}},
		}}
		buf, err := transport.Encode("controller", "", plan)
		require.NoError(t, err)
		env, msg, err := transport.Decode(buf)
		require.NoError(t, err)
		assert.Equal(t, "controller", env.From)
		assert.Equal(t, plan, msg)
	})

	t.Run("unknown kinds are refused", func(t *testing.T) {
		_, _, err := transport.Decode([]byte(`{"kind":"gossip","from":"x","payload":{}}`))
		assert.ErrorIs(t, err, transport.ErrUnknownKind)
	})

	t.Run("garbage is refused", func(t *testing.T) {
		_, _, err := transport.Decode([]byte(`not json`))
		assert.Error(t, err)
	})
}

func TestRequests(t *testing.T) {
	reqs := transport.NewRequests()
	var got []types.Message
	id := reqs.Add(func(m types.Message) { got = append(got, m) })
	other := reqs.Add(func(types.Message) { t.Fatal("cleared continuation called") })
	assert.NotEqual(t, id, other)
	assert.Equal(t, 2, reqs.Len())

	resp := types.SaveInstanceStateResponse{Status: types.OK()}
	assert.True(t, reqs.Resolve(id, resp))
	assert.False(t, reqs.Resolve(id, resp))
	assert.Equal(t, []types.Message{resp}, got)

	assert.Equal(t, 1, reqs.Clear())
	assert.False(t, reqs.Resolve(other, resp))

	forgotten := reqs.Add(func(types.Message) { t.Fatal("forgotten continuation called") })
	reqs.Forget(forgotten)
	assert.Equal(t, 0, reqs.Len())
	assert.False(t, reqs.Resolve(forgotten, resp))
}
