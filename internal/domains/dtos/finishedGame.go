package dtos

import (
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
)

type PlayerRequest struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

// FinishedGameRequest is the payload sent to the EndGame function.
type FinishedGameRequest struct {
	MatchId   string          `json:"matchId"`
	Players   []PlayerRequest `json:"players"`
	Pgn       string          `json:"pgn"`
	Outcome   string          `json:"outcome"`
	Method    string          `json:"method"`
	Plies     int             `json:"plies"`
	FinalFen  string          `json:"finalFen"`
	StartedAt time.Time       `json:"startedAt"`
	EndedAt   time.Time       `json:"endedAt"`
}

func FinishedGameToRequest(game entities.FinishedGame) FinishedGameRequest {
	return FinishedGameRequest{
		MatchId: game.MatchId,
		Players: []PlayerRequest{
			{Id: game.White.Id, Username: game.White.Username},
			{Id: game.Black.Id, Username: game.Black.Username},
		},
		Pgn:       game.Pgn,
		Outcome:   string(game.Outcome),
		Method:    string(game.Method),
		Plies:     game.Plies,
		FinalFen:  game.FinalFen,
		StartedAt: game.StartedAt,
		EndedAt:   game.EndedAt,
	}
}

func FinishedGameRequestToEntity(req FinishedGameRequest) entities.FinishedGame {
	game := entities.FinishedGame{
		MatchId:   req.MatchId,
		Pgn:       req.Pgn,
		Outcome:   entities.Outcome(req.Outcome),
		Method:    entities.Method(req.Method),
		Plies:     req.Plies,
		FinalFen:  req.FinalFen,
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
	}
	if len(req.Players) == 2 {
		game.White = entities.User{Id: req.Players[0].Id, Username: req.Players[0].Username}
		game.Black = entities.User{Id: req.Players[1].Id, Username: req.Players[1].Username}
	}
	return game
}
