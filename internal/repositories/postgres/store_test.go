package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyQuery(t *testing.T) {
	assert.Contains(t, tallyQuery(1), "SET wins = profile.wins + 1")
	assert.Contains(t, tallyQuery(0), "SET losses = profile.losses + 1")
	assert.Contains(t, tallyQuery(0.5), "SET draws = profile.draws + 1")
}

// TestStore runs against a real database when POSTGRES_TEST_URL is set.
func TestStore(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Connect(ctx, url)
	require.NoError(t, err)
	defer s.Close()

	suffix := time.Now().Format("150405.000000")
	white := entities.User{Id: "w-" + suffix, Username: "white-" + suffix}
	black := entities.User{Id: "b-" + suffix, Username: "black-" + suffix}
	for _, u := range []entities.User{white, black} {
		_, err := s.pool.Exec(ctx, `INSERT INTO player (user_id, username) VALUES ($1, $2)`, u.Id, u.Username)
		require.NoError(t, err)
	}

	got, err := s.GetUserByUsername(ctx, white.Username)
	require.NoError(t, err)
	assert.Equal(t, white, got)
	_, err = s.GetUserById(ctx, "missing-"+suffix)
	assert.ErrorIs(t, err, errs.ErrUserNotFound)

	game := entities.FinishedGame{
		MatchId:   "m-" + suffix,
		White:     white,
		Black:     black,
		Pgn:       "1. e4 1-0",
		Outcome:   entities.WhiteWon,
		Method:    entities.Resignation,
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
	}
	require.NoError(t, s.SaveFinishedGame(ctx, game))
	assert.Error(t, s.SaveFinishedGame(ctx, game))

	var wins, losses int
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT wins FROM profile WHERE user_id = $1`, white.Id).Scan(&wins))
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT losses FROM profile WHERE user_id = $1`, black.Id).Scan(&losses))
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
}
