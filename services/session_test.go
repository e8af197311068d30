package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	s := store.Create()

	got, ok := store.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())

	view := s.Snapshot()
	assert.Equal(t, s.ID(), view.SessionID)
	assert.Equal(t, StatusIdle, view.Status)
	assert.NotNil(t, view.Flights)
	assert.NotNil(t, view.Messages)
}

func TestSession_SubmitLifecycle(t *testing.T) {
	s := NewSessionStore().Create()

	require.NoError(t, s.beginSubmit())
	assert.Equal(t, StatusSubmitting, s.Snapshot().Status)
	assert.ErrorIs(t, s.beginSubmit(), ErrBusy)

	s.failSubmit(&Notification{Level: "error", Message: "boom"})
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
	assert.Empty(t, s.Snapshot().Plan)

	require.NoError(t, s.beginSubmit())
	s.finishSubmit("plan", sampleFlights(2), nil)
	view := s.Snapshot()
	assert.Equal(t, "plan", view.Plan)
	assert.Len(t, view.Flights, 2)
	assert.Nil(t, view.Notification)
}

func TestSession_StaleReplyIsDropped(t *testing.T) {
	s := NewSessionStore().Create()
	s.finishSubmit("plan one", nil, nil)

	turn, err := s.beginChat("question about plan one")
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Chatting)

	s.finishSubmit("plan two", nil, nil)
	turn.resolve("answer about plan one")

	view := s.Snapshot()
	assert.Equal(t, "plan two", view.Plan)
	assert.Empty(t, view.Messages)
	assert.False(t, view.Chatting)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	s := NewSessionStore().Create()
	s.finishSubmit("plan", sampleFlights(1), &Notification{Level: "success", Message: "ok"})

	view := s.Snapshot()
	view.Flights[0].Airline.Name = "changed"
	view.Notification.Message = "changed"

	again := s.Snapshot()
	assert.Equal(t, "Air France", again.Flights[0].Airline.Name)
	assert.Equal(t, "ok", again.Notification.Message)
}

func TestSession_ConcurrentChatsOnlyOneWins(t *testing.T) {
	s := NewSessionStore().Create()
	s.finishSubmit("plan", nil, nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.beginChat("q"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Len(t, s.Snapshot().Messages, 1)
}

func TestSessionStore_Resume(t *testing.T) {
	store := NewSessionStore()
	id := "6f1c2b9e-3d4a-4e5f-8a7b-9c0d1e2f3a4b"

	s, ok := store.Resume(id)
	require.True(t, ok)
	assert.Equal(t, id, s.ID())
	assert.Equal(t, StatusIdle, s.Snapshot().Status)

	again, ok := store.Resume(id)
	require.True(t, ok)
	assert.Same(t, s, again)

	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = store.Resume("../../etc/passwd")
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())
}
