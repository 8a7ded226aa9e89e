// Package sqlite stores users, finished games and player tallies in a
// local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
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
		started_at TEXT NOT NULL,
		ended_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS player_matches (
		user_id  TEXT NOT NULL REFERENCES player(user_id),
		match_id TEXT NOT NULL REFERENCES matches(match_id),
		PRIMARY KEY (user_id, match_id)
	);
	CREATE INDEX IF NOT EXISTS idx_player_matches_match ON player_matches(match_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateUser registers a player with an empty profile.
func (s *Store) CreateUser(ctx context.Context, user entities.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO player (user_id, username) VALUES (?, ?)`,
		user.Id, user.Username,
	); err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profile (user_id) VALUES (?)`,
		user.Id,
	); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return tx.Commit()
}

func (s *Store) GetUserById(ctx context.Context, userId string) (entities.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, username FROM player WHERE user_id = ?`, userId,
	)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (entities.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, username FROM player WHERE username = ?`, username,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (entities.User, error) {
	var user entities.User
	if err := row.Scan(&user.Id, &user.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.User{}, errs.ErrUserNotFound
		}
		return entities.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func (s *Store) GetTally(ctx context.Context, userId string) (entities.Tally, error) {
	tally := entities.Tally{UserId: userId}
	err := s.db.QueryRowContext(ctx,
		`SELECT wins, losses, draws FROM profile WHERE user_id = ?`, userId,
	).Scan(&tally.Wins, &tally.Losses, &tally.Draws)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Tally{}, errs.ErrUserNotFound
	}
	if err != nil {
		return entities.Tally{}, fmt.Errorf("scan tally: %w", err)
	}
	return tally, nil
}

// SaveFinishedGame stores the game, links it to both players and updates
// their tallies in one transaction.
func (s *Store) SaveFinishedGame(ctx context.Context, game entities.FinishedGame) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matches (match_id, white_id, black_id, pgn, outcome, method, plies, final_fen, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.MatchId, game.White.Id, game.Black.Id, game.Pgn,
		string(game.Outcome), string(game.Method), game.Plies, game.FinalFen,
		game.StartedAt.UTC().Format(time.RFC3339Nano),
		game.EndedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	for _, userId := range []string{game.White.Id, game.Black.Id} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_matches (user_id, match_id) VALUES (?, ?)`,
			userId, game.MatchId,
		); err != nil {
			return fmt.Errorf("insert player match: %w", err)
		}
	}

	whiteScore, blackScore := game.Outcome.Score()
	if err := addResult(ctx, tx, game.White.Id, whiteScore); err != nil {
		return err
	}
	if err := addResult(ctx, tx, game.Black.Id, blackScore); err != nil {
		return err
	}
	return tx.Commit()
}

func addResult(ctx context.Context, tx *sql.Tx, userId string, score float64) error {
	column := "draws"
	switch score {
	case 1:
		column = "wins"
	case 0:
		column = "losses"
	}
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(
			`INSERT INTO profile (user_id, %[1]s) VALUES (?, 1)
			 ON CONFLICT(user_id) DO UPDATE SET %[1]s = %[1]s + 1`,
			column,
		),
		userId,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return nil
}
