package rules

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/notnil/chess"
)

var ErrIllegalMove = errors.New("illegal move")

type Verdict uint8

const (
	Ongoing Verdict = iota
	Check
	Checkmate
	Stalemate
	Draw
	Repetition
)

// Status is the move status string broadcast with every accepted move.
func (v Verdict) Status() string {
	switch v {
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	case Repetition:
		return "threefold"
	default:
		return "none"
	}
}

func (v Verdict) Terminal() bool {
	return v >= Checkmate
}

// Method maps a terminal verdict onto the result cause.
func (v Verdict) Method() entities.Method {
	switch v {
	case Checkmate:
		return entities.Checkmate
	case Stalemate:
		return entities.Stalemate
	case Repetition:
		return entities.Repetition
	default:
		return entities.DrawByRule
	}
}

type Game struct {
	game   *chess.Game
	result entities.Result
}

func NewGame(white, black entities.User, createdAt time.Time) *Game {
	g := chess.NewGame()
	g.AddTagPair("Event", "Casual game")
	g.AddTagPair("Site", "livematch")
	g.AddTagPair("Date", createdAt.Format("2006.01.02"))
	g.AddTagPair("White", white.Username)
	g.AddTagPair("Black", black.Username)
	return &Game{game: g}
}

func (g *Game) Turn() entities.Color {
	if g.game.Position().Turn() == chess.White {
		return entities.White
	}
	return entities.Black
}

// Move applies m for the side to move. Claimable draws (threefold
// repetition, fifty-move rule) are claimed immediately.
func (g *Game) Move(m entities.Move) (v Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = Ongoing, fmt.Errorf("%w: %v", ErrIllegalMove, r)
		}
	}()
	if g.game.Outcome() != chess.NoOutcome {
		return Ongoing, fmt.Errorf("%w: game is over", ErrIllegalMove)
	}
	// Moves arrive as UCI but the record keeps SAN.
	move, err := chess.UCINotation{}.Decode(g.game.Position(), m.UCI())
	if err != nil {
		return Ongoing, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	if err := g.game.Move(move); err != nil {
		return Ongoing, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}

	if g.game.Outcome() != chess.NoOutcome {
		switch g.game.Method() {
		case chess.Checkmate:
			return Checkmate, nil
		case chess.Stalemate:
			return Stalemate, nil
		case chess.FivefoldRepetition:
			return Repetition, nil
		default:
			return Draw, nil
		}
	}

	for _, method := range g.game.EligibleDraws() {
		switch method {
		case chess.ThreefoldRepetition:
			if err := g.game.Draw(method); err == nil {
				return Repetition, nil
			}
		case chess.FiftyMoveRule:
			if err := g.game.Draw(method); err == nil {
				return Draw, nil
			}
		}
	}

	moves := g.game.Moves()
	if len(moves) > 0 && moves[len(moves)-1].HasTag(chess.Check) {
		return Check, nil
	}
	return Ongoing, nil
}

// Conclude records the final result in the game record. Results reached by
// the board itself are left untouched apart from the tags.
func (g *Game) Conclude(result entities.Result) {
	if g.game.Outcome() == chess.NoOutcome {
		switch result.Method {
		case entities.Resignation:
			if result.Outcome == entities.WhiteWon {
				g.game.Resign(chess.Black)
			} else {
				g.game.Resign(chess.White)
			}
		case entities.DrawAgreement:
			g.game.Draw(chess.DrawOffer)
		}
	}
	g.result = result
	g.game.AddTagPair("Result", string(result.Outcome))
	g.game.AddTagPair("Termination", termination(result.Method))
}

// PortableRecord renders the game as PGN. The board knows nothing of flag
// falls, so a concluded game without a board outcome gets its movetext
// terminator from the recorded result.
func (g *Game) PortableRecord() string {
	record := g.game.String()
	if g.game.Outcome() != chess.NoOutcome || !g.result.IsSet() {
		return record
	}
	body := strings.TrimRight(record, " \n")
	if !strings.HasSuffix(body, string(chess.NoOutcome)) {
		return record
	}
	return strings.TrimSuffix(body, string(chess.NoOutcome)) + string(g.result.Outcome) + record[len(body):]
}

func (g *Game) FEN() string {
	return g.game.FEN()
}

func termination(method entities.Method) string {
	switch method {
	case entities.Timeout:
		return "time forfeit"
	case entities.Resignation:
		return "resignation"
	case entities.DrawAgreement:
		return "agreement"
	default:
		return "normal"
	}
}
