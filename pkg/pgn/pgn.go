package pgn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/freeeve/pgn.v1"
)

var ErrNoGame = errors.New("no game found in pgn")

// Summary describes the position sequence of the first game of a record.
type Summary struct {
	Fens []string
}

func (s Summary) Plies() int {
	return len(s.Fens)
}

func (s Summary) FinalFen() string {
	if len(s.Fens) == 0 {
		return ""
	}
	return s.Fens[len(s.Fens)-1]
}

func ParseString(pgnString string) (Summary, error) {
	return Parse(strings.NewReader(pgnString))
}

func ParseFile(filePath string) (Summary, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to open pgn file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse replays the first game in r and returns the FEN after every move.
func Parse(r io.Reader) (Summary, error) {
	ps := pgn.NewPGNScanner(r)
	if !ps.Next() {
		return Summary{}, ErrNoGame
	}
	game, err := ps.Scan()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to scan game: %w", err)
	}

	b := pgn.NewBoard()
	fens := make([]string, 0, len(game.Moves))
	for _, move := range game.Moves {
		b.MakeMove(move)
		fens = append(fens, b.String())
	}
	return Summary{Fens: fens}, nil
}
