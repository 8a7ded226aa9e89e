package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = entities.User{Id: "u-alice", Username: "alice"}
	bob   = entities.User{Id: "u-bob", Username: "bob"}
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.CreateUser(context.Background(), alice))
	require.NoError(t, s.CreateUser(context.Background(), bob))
	return s
}

func finishedGame(id string, outcome entities.Outcome, method entities.Method) entities.FinishedGame {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return entities.FinishedGame{
		MatchId:   id,
		White:     alice,
		Black:     bob,
		Pgn:       `[Result "` + string(outcome) + `"]`,
		Outcome:   outcome,
		Method:    method,
		Plies:     12,
		StartedAt: started,
		EndedAt:   started.Add(5 * time.Minute),
	}
}

func TestUserLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetUserById(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	got, err = s.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob, got)

	_, err = s.GetUserById(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	_, err = s.GetUserByUsername(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestDuplicateUsernameRejected(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateUser(context.Background(), entities.User{Id: "u-other", Username: "alice"})
	assert.Error(t, err)
}

func TestSaveFinishedGameUpdatesTallies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFinishedGame(ctx, finishedGame("m1", entities.WhiteWon, entities.Checkmate)))
	require.NoError(t, s.SaveFinishedGame(ctx, finishedGame("m2", entities.Draw, entities.DrawAgreement)))
	require.NoError(t, s.SaveFinishedGame(ctx, finishedGame("m3", entities.BlackWon, entities.Timeout)))

	aliceTally, err := s.GetTally(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, entities.Tally{UserId: alice.Id, Wins: 1, Losses: 1, Draws: 1}, aliceTally)

	bobTally, err := s.GetTally(ctx, bob.Id)
	require.NoError(t, err)
	assert.Equal(t, entities.Tally{UserId: bob.Id, Wins: 1, Losses: 1, Draws: 1}, bobTally)

	var links int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM player_matches WHERE match_id = 'm1'`).Scan(&links))
	assert.Equal(t, 2, links)
}

func TestSaveFinishedGameIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFinishedGame(ctx, finishedGame("m1", entities.WhiteWon, entities.Resignation)))
	// Same match id again: the insert fails and nothing else may change.
	assert.Error(t, s.SaveFinishedGame(ctx, finishedGame("m1", entities.WhiteWon, entities.Resignation)))

	tally, err := s.GetTally(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Wins)

	// Unknown player: the foreign key rejects the whole game.
	game := finishedGame("m2", entities.BlackWon, entities.Checkmate)
	game.Black = entities.User{Id: "ghost", Username: "ghost"}
	assert.Error(t, s.SaveFinishedGame(ctx, game))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&count))
	assert.Equal(t, 1, count)
	tally, err = s.GetTally(ctx, alice.Id)
	require.NoError(t, err)
	assert.Zero(t, tally.Losses)
}
