package interfaces

import (
	"context"

	"github.com/chess-vn/livematch/internal/domains/entities"
)

type (
	// UserDirectory resolves the users known to the persistence layer.
	UserDirectory interface {
		GetUserById(ctx context.Context, userId string) (entities.User, error)
		GetUserByUsername(ctx context.Context, username string) (entities.User, error)
	}

	// GameRecorder stores a finished game and updates both players'
	// tallies as one unit.
	GameRecorder interface {
		SaveFinishedGame(ctx context.Context, game entities.FinishedGame) error
	}

	Repository interface {
		UserDirectory
		GameRecorder
		Close() error
	}
)
