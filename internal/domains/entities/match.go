package entities

import (
	"fmt"
	"time"
)

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// String returns the long form used in startMatch events.
func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Short returns the single letter form used in clock and resign events.
func (c Color) Short() string {
	if c == White {
		return "w"
	}
	return "b"
}

func (c Color) Wins() Outcome {
	if c == White {
		return WhiteWon
	}
	return BlackWon
}

type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI renders the move in long algebraic form, e.g. e7e8q.
func (m Move) UCI() string {
	return fmt.Sprintf("%s%s%s", m.From, m.To, m.Promotion)
}

type Outcome string

const (
	NoOutcome Outcome = "*"
	WhiteWon  Outcome = "1-0"
	BlackWon  Outcome = "0-1"
	Draw      Outcome = "1/2-1/2"
)

// Score returns the point each side earned, white first.
func (o Outcome) Score() (float64, float64) {
	switch o {
	case WhiteWon:
		return 1, 0
	case BlackWon:
		return 0, 1
	case Draw:
		return 0.5, 0.5
	}
	return 0, 0
}

type Method string

const (
	Checkmate     Method = "checkmate"
	Stalemate     Method = "stalemate"
	Repetition    Method = "repetition"
	DrawByRule    Method = "draw"
	DrawAgreement Method = "draw-agreement"
	Resignation   Method = "resignation"
	Timeout       Method = "timeout"
)

type Result struct {
	Outcome Outcome
	Method  Method
}

func (r Result) IsSet() bool {
	return r.Outcome != "" && r.Outcome != NoOutcome
}

type FinishedGame struct {
	MatchId   string    `dynamodbav:"MatchId"`
	White     User      `dynamodbav:"White"`
	Black     User      `dynamodbav:"Black"`
	Pgn       string    `dynamodbav:"Pgn"`
	Outcome   Outcome   `dynamodbav:"Outcome"`
	Method    Method    `dynamodbav:"Method"`
	Plies     int       `dynamodbav:"Plies"`
	FinalFen  string    `dynamodbav:"FinalFen"`
	StartedAt time.Time `dynamodbav:"StartedAt"`
	EndedAt   time.Time `dynamodbav:"EndedAt"`
}
