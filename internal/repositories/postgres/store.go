// Package postgres stores users, finished games and player tallies in
// PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/chess-vn/livematch/pkg/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS player (
	user_id  TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS profile (
	user_id TEXT PRIMARY KEY REFERENCES player(user_id),
	wins    INTEGER NOT NULL DEFAULT 0,
	losses  INTEGER NOT NULL DEFAULT 0,
	draws   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS matches (
	match_id   TEXT PRIMARY KEY,
	white_id   TEXT NOT NULL REFERENCES player(user_id),
	black_id   TEXT NOT NULL REFERENCES player(user_id),
	pgn        TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	method     TEXT NOT NULL,
	plies      INTEGER NOT NULL DEFAULT 0,
	final_fen  TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	ended_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS player_matches (
	user_id  TEXT NOT NULL REFERENCES player(user_id),
	match_id TEXT NOT NULL REFERENCES matches(match_id),
	PRIMARY KEY (user_id, match_id)
);
`

type Store struct {
	pool *pgxpool.Pool
}

// Connect retries until the database answers a ping or ctx expires, then
// applies the schema.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.MaxConns = 10

	var pool *pgxpool.Pool
	for {
		attemptCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		pool, err = pgxpool.NewWithConfig(attemptCtx, cfg)
		if err == nil {
			if err = pool.Ping(attemptCtx); err == nil {
				cancel()
				break
			}
			pool.Close()
		}
		cancel()

		logging.Warn("database not ready", zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect db: %w", err)
		case <-time.After(time.Second):
		}
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) GetUserById(ctx context.Context, userId string) (entities.User, error) {
	return s.getUser(ctx, `SELECT user_id, username FROM player WHERE user_id = $1`, userId)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (entities.User, error) {
	return s.getUser(ctx, `SELECT user_id, username FROM player WHERE username = $1`, username)
}

func (s *Store) getUser(ctx context.Context, query, arg string) (entities.User, error) {
	var user entities.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&user.Id, &user.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.User{}, errs.ErrUserNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// SaveFinishedGame stores the game, links it to both players and updates
// their tallies in one transaction.
func (s *Store) SaveFinishedGame(ctx context.Context, game entities.FinishedGame) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(
			`INSERT INTO matches (match_id, white_id, black_id, pgn, outcome, method, plies, final_fen, started_at, ended_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			game.MatchId, game.White.Id, game.Black.Id, game.Pgn,
			string(game.Outcome), string(game.Method), game.Plies, game.FinalFen,
			game.StartedAt, game.EndedAt,
		)
		for _, userId := range []string{game.White.Id, game.Black.Id} {
			batch.Queue(`INSERT INTO player_matches (user_id, match_id) VALUES ($1, $2)`, userId, game.MatchId)
		}
		whiteScore, blackScore := game.Outcome.Score()
		batch.Queue(tallyQuery(whiteScore), game.White.Id)
		batch.Queue(tallyQuery(blackScore), game.Black.Id)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save finished game: %w", err)
		}
		return nil
	})
}

func tallyColumn(score float64) string {
	switch score {
	case 1:
		return "wins"
	case 0:
		return "losses"
	}
	return "draws"
}

func tallyQuery(score float64) string {
	return fmt.Sprintf(
		`INSERT INTO profile (user_id, %[1]s) VALUES ($1, 1)
		 ON CONFLICT (user_id) DO UPDATE SET %[1]s = profile.%[1]s + 1`,
		tallyColumn(score),
	)
}
