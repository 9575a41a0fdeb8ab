package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func drain(t *testing.T, s *Session) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case frame, ok := <-s.Outbox():
			if !ok {
				return out
			}
			var env Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func eventNames(envs []Envelope) []string {
	names := make([]string, 0, len(envs))
	for _, e := range envs {
		names = append(names, e.Event)
	}
	return names
}

func TestHub_PublishTargetsSubjectOnly(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(testLogger())

	bob := NewSession("bob-1", 8)
	bobTab := NewSession("bob-2", 8)
	carol := NewSession("carol-1", 8)
	for _, s := range []*Session{bob, bobTab, carol} {
		hub.Register(s)
	}
	hub.Subscribe("bob", bob)
	hub.Subscribe("bob", bobTab)
	hub.Subscribe("carol", carol)

	require.NoError(t, hub.Publish(ctx, "bob", EventAssignmentNotification, map[string]string{"id": "t1"}))

	for _, s := range []*Session{bob, bobTab} {
		got := drain(t, s)
		require.Len(t, got, 1)
		assert.Equal(t, EventAssignmentNotification, got[0].Event)
		assert.JSONEq(t, `{"id":"t1"}`, string(got[0].Data))
	}
	assert.Empty(t, drain(t, carol))
}

func TestHub_PublishToSubjectWithoutSessions(t *testing.T) {
	hub := NewHub(testLogger())

	assert.NoError(t, hub.Publish(context.Background(), "nobody", EventTaskUpdate, "x"))
}

func TestHub_BroadcastReachesEverySession(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(testLogger())

	joined := NewSession("joined", 8)
	anonymous := NewSession("anonymous", 8)
	hub.Register(joined)
	hub.Register(anonymous)
	hub.Subscribe("alice", joined)

	require.NoError(t, hub.Broadcast(ctx, EventTaskDeleted, TaskDeletedPayload{ID: "t1"}))

	for _, s := range []*Session{joined, anonymous} {
		got := drain(t, s)
		require.Len(t, got, 1)
		assert.Equal(t, EventTaskDeleted, got[0].Event)
		assert.JSONEq(t, `{"id":"t1"}`, string(got[0].Data))
	}
}

func TestHub_PreservesPublishOrderPerSession(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(testLogger())
	s := NewSession("s", 8)
	hub.Register(s)
	hub.Subscribe("bob", s)

	require.NoError(t, hub.Publish(ctx, "bob", EventAssignmentNotification, 1))
	require.NoError(t, hub.Broadcast(ctx, EventTaskUpdate, 2))
	require.NoError(t, hub.Broadcast(ctx, EventTaskDeleted, 3))

	assert.Equal(t,
		[]string{EventAssignmentNotification, EventTaskUpdate, EventTaskDeleted},
		eventNames(drain(t, s)))
}

func TestHub_FullOutboxDropsOnlyForThatSession(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(testLogger())

	slow := NewSession("slow", 1)
	fast := NewSession("fast", 8)
	hub.Register(slow)
	hub.Register(fast)

	require.NoError(t, hub.Broadcast(ctx, EventTaskUpdate, "first"))
	require.NoError(t, hub.Broadcast(ctx, EventTaskUpdate, "second"))

	slowGot := drain(t, slow)
	require.Len(t, slowGot, 1)
	assert.JSONEq(t, `"first"`, string(slowGot[0].Data))
	assert.Len(t, drain(t, fast), 2)
}

func TestHub_UnregisterRemovesFromAllGroups(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(testLogger())
	s := NewSession("s", 8)
	hub.Register(s)
	hub.Subscribe("alice", s)
	hub.Subscribe("bob", s)
	require.Equal(t, 1, hub.GroupSize("alice"))

	hub.Unregister(s)

	assert.Equal(t, 0, hub.GroupSize("alice"))
	assert.Equal(t, 0, hub.GroupSize("bob"))
	assert.Equal(t, 0, hub.SessionCount())
	assert.True(t, s.Closed())

	// a closed session silently misses later events
	assert.NoError(t, hub.Publish(ctx, "alice", EventTaskUpdate, "x"))
	assert.NoError(t, hub.Broadcast(ctx, EventTaskUpdate, "x"))
	assert.Empty(t, drain(t, s))
}

func TestHub_SubscribeRequiresRegistration(t *testing.T) {
	hub := NewHub(testLogger())
	s := NewSession("s", 8)

	hub.Subscribe("alice", s)
	assert.Equal(t, 0, hub.GroupSize("alice"))

	hub.Register(s)
	hub.Subscribe("", s)
	assert.Equal(t, 0, hub.GroupSize(""))
}

func TestHub_EncodeError(t *testing.T) {
	hub := NewHub(testLogger())

	err := hub.Broadcast(context.Background(), EventTaskUpdate, make(chan int))

	assert.Error(t, err)
}

func TestHub_Close(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(testLogger())
	s := NewSession("s", 8)
	hub.Register(s)

	hub.Close()
	hub.Close()

	assert.True(t, s.Closed())
	assert.ErrorIs(t, hub.Broadcast(ctx, EventTaskUpdate, "x"), ErrHubClosed)
	assert.ErrorIs(t, hub.Publish(ctx, "alice", EventTaskUpdate, "x"), ErrHubClosed)

	late := NewSession("late", 8)
	hub.Register(late)
	assert.True(t, late.Closed())
	assert.Equal(t, 0, hub.SessionCount())
}
