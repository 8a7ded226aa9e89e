package hub

import (
	"testing"
	"time"

	"github.com/chess-vn/livematch/internal/app/hub/hubtest"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, id, name string) (*Client, *hubtest.Recorder) {
	rec := &hubtest.Recorder{}
	c := NewClient(entities.User{Id: id, Username: name}, rec)
	h.Register(c)
	return c, rec
}

func TestRegisterJoinsUserRoom(t *testing.T) {
	h := New()
	c, rec := newTestClient(h, "u-1", "alice")

	assert.True(t, h.IsOnline("u-1"))
	assert.False(t, h.IsOnline("u-2"))
	assert.True(t, c.InRoom(UserRoom("u-1")))

	h.Publish(UserRoom("u-1"), dtos.NewMessage("ping", nil))
	c.Flush()
	require.Len(t, rec.Messages(), 1)
	assert.Equal(t, "ping", rec.Messages()[0].Type)
}

func TestJoinIsReentrant(t *testing.T) {
	h := New()
	c, _ := newTestClient(h, "u-1", "alice")

	assert.True(t, c.Join(MatchRoom("m-1")))
	assert.False(t, c.Join(MatchRoom("m-1")))
	assert.Equal(t, []string{"u-1"}, h.Members(MatchRoom("m-1")))
}

func TestInLobby(t *testing.T) {
	h := New()
	c, _ := newTestClient(h, "u-1", "alice")
	assert.False(t, h.InLobby("u-1"))

	c.Join(LobbyRoom)
	assert.True(t, h.InLobby("u-1"))

	c.Leave(LobbyRoom)
	assert.False(t, h.InLobby("u-1"))
}

func TestInLobbyWithSecondConnection(t *testing.T) {
	h := New()
	newTestClient(h, "u-1", "alice")
	second, _ := newTestClient(h, "u-1", "alice")
	second.Join(LobbyRoom)

	assert.True(t, h.InLobby("u-1"))
}

func TestUnregisterLeavesEveryRoom(t *testing.T) {
	h := New()
	c, rec := newTestClient(h, "u-1", "alice")
	c.Join(LobbyRoom)
	c.Join(MatchRoom("m-1"))

	h.Unregister(c)

	assert.False(t, h.IsOnline("u-1"))
	assert.False(t, h.InLobby("u-1"))
	assert.Empty(t, h.Members(MatchRoom("m-1")))
	assert.Equal(t, 0, h.Clients())
	assert.True(t, rec.Closed())
	assert.ErrorIs(t, c.Send(dtos.NewMessage("ping", nil)), ErrClientClosed)

	h.Publish(MatchRoom("m-1"), dtos.NewMessage("ping", nil))
	assert.Empty(t, rec.Messages())
}

func TestPublishOnlyReachesRoom(t *testing.T) {
	h := New()
	a, recA := newTestClient(h, "u-1", "alice")
	b, recB := newTestClient(h, "u-2", "bob")
	a.Join(MatchRoom("m-1"))

	h.Publish(MatchRoom("m-1"), dtos.NewMessage("validMove", nil))
	a.Flush()
	b.Flush()

	assert.Len(t, recA.OfType("validMove"), 1)
	assert.Empty(t, recB.OfType("validMove"))
}

func TestMessagesKeepOrder(t *testing.T) {
	h := New()
	c, rec := newTestClient(h, "u-1", "alice")

	for _, event := range []string{"a", "b", "c"} {
		h.Publish(UserRoom("u-1"), dtos.NewMessage(event, nil))
	}
	c.Flush()

	var got []string
	for _, msg := range rec.Messages() {
		got = append(got, msg.Type)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestStalledClientDoesNotBlockPublish(t *testing.T) {
	h := New()
	stalled := hubtest.NewStalled()
	slow := NewClient(entities.User{Id: "u-1", Username: "alice"}, stalled)
	h.Register(slow)
	fast, rec := newTestClient(h, "u-2", "bob")
	slow.Join(MatchRoom("m-1"))

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < sendBufferSize+2; i++ {
			h.Publish(MatchRoom("m-1"), dtos.NewMessage("updateClock", nil))
		}
	}()
	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a stalled connection")
	}

	// The stalled client overflowed its queue and was closed.
	select {
	case <-slow.Closed():
	case <-time.After(5 * time.Second):
		t.Fatal("stalled client was not closed")
	}
	assert.True(t, stalled.IsClosed())
	assert.Error(t, slow.Send(dtos.NewMessage("updateClock", nil)))

	h.Publish(UserRoom("u-2"), dtos.NewMessage("updateClock", nil))
	fast.Flush()
	assert.Len(t, rec.OfType("updateClock"), 1)
}

func TestFlushReturnsOnClosedClient(t *testing.T) {
	h := New()
	stalled := hubtest.NewStalled()
	c := NewClient(entities.User{Id: "u-1", Username: "alice"}, stalled)
	h.Register(c)
	require.NoError(t, c.Send(dtos.NewMessage("ping", nil)))
	require.Eventually(t, stalled.Blocked, 5*time.Second, time.Millisecond)

	flushed := make(chan struct{})
	go func() {
		c.Flush()
		close(flushed)
	}()
	h.Unregister(c)

	select {
	case <-flushed:
	case <-time.After(5 * time.Second):
		t.Fatal("flush did not return after close")
	}
}
