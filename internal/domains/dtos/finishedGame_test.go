package dtos

import (
	"testing"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/stretchr/testify/assert"
)

func TestFinishedGameRequestKeepsColorOrder(t *testing.T) {
	endedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	game := entities.FinishedGame{
		MatchId: "m-1",
		White:   entities.User{Id: "u-1", Username: "alice"},
		Black:   entities.User{Id: "u-2", Username: "bob"},
		Pgn:     "1. f3 e5 2. g4 Qh4# 0-1",
		Outcome: entities.BlackWon,
		Method:  entities.Checkmate,
		Plies:   4,
		EndedAt: endedAt,
	}

	req := FinishedGameToRequest(game)
	assert.Equal(t, "u-1", req.Players[0].Id)
	assert.Equal(t, "u-2", req.Players[1].Id)
	assert.Equal(t, "0-1", req.Outcome)

	assert.Equal(t, game, FinishedGameRequestToEntity(req))
}

func TestFinishedGameRequestWithoutPlayers(t *testing.T) {
	game := FinishedGameRequestToEntity(FinishedGameRequest{MatchId: "m-2"})
	assert.Empty(t, game.White.Id)
	assert.Empty(t, game.Black.Id)
}
