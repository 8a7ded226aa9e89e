package pgn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foolsMate = `[Event "Casual game"]
[White "alice"]
[Black "bob"]
[Result "0-1"]

1. f3 e5 2. g4 Qh4# 0-1
`

func TestParseStringCountsPlies(t *testing.T) {
	summary, err := ParseString(foolsMate)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Plies())
	assert.Contains(t, summary.FinalFen(), "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR")
}

func TestParseStringEmpty(t *testing.T) {
	_, err := ParseString("")
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestSummaryWithoutMoves(t *testing.T) {
	var s Summary
	assert.Equal(t, 0, s.Plies())
	assert.Equal(t, "", s.FinalFen())
}
