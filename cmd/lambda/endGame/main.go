package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chess-vn/livematch/internal/aws/storage"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/interfaces"
	"github.com/chess-vn/livematch/pkg/logging"
	"go.uber.org/zap"
)

var recorder interfaces.GameRecorder

func init() {
	cfg, _ := config.LoadDefaultConfig(context.TODO())
	recorder = storage.NewClient(
		dynamodb.NewFromConfig(cfg),
		storage.NewConfig(
			os.Getenv("USERS_TABLE"),
			os.Getenv("FINISHED_GAMES_TABLE"),
			os.Getenv("TALLIES_TABLE"),
		),
	)
}

func handler(ctx context.Context, event json.RawMessage) error {
	var req dtos.FinishedGameRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return fmt.Errorf("failed to unmarshal request: %w", err)
	}
	if len(req.Players) != 2 {
		return fmt.Errorf("invalid player count: %d", len(req.Players))
	}

	game := dtos.FinishedGameRequestToEntity(req)
	if err := recorder.SaveFinishedGame(ctx, game); err != nil {
		return err
	}
	logging.Info("finished game saved",
		zap.String("match_id", game.MatchId),
		zap.String("outcome", string(game.Outcome)),
	)
	return nil
}

func main() {
	lambda.Start(handler)
}
