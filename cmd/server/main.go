package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/chess-vn/livematch/internal/app/match"
	"github.com/chess-vn/livematch/internal/app/server"
	"github.com/chess-vn/livematch/internal/aws/auth"
	"github.com/chess-vn/livematch/internal/aws/compute"
	"github.com/chess-vn/livematch/internal/aws/function"
	"github.com/chess-vn/livematch/internal/aws/storage"
	"github.com/chess-vn/livematch/internal/domains/interfaces"
	"github.com/chess-vn/livematch/internal/repositories/postgres"
	"github.com/chess-vn/livematch/internal/repositories/sqlite"
	"github.com/chess-vn/livematch/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	defer logging.Sync()

	cfg, err := server.NewConfig()
	if err != nil {
		logging.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, recorder, err := openRepository(ctx, cfg)
	if err != nil {
		logging.Fatal("failed to open storage", zap.Error(err))
	}
	defer repo.Close()

	authenticator, err := newAuthenticator(cfg, repo)
	if err != nil {
		logging.Fatal("failed to set up auth", zap.Error(err))
	}

	var matchOpts []match.Option
	var protector *compute.Protector
	if cfg.TaskProtection {
		protector, err = newProtector(ctx, cfg)
		if err != nil {
			logging.Fatal("failed to set up task protection", zap.Error(err))
		}
		matchOpts = append(matchOpts, match.WithObserver(protector.Observe))
	}

	srv, err := server.NewServer(cfg, repo, recorder, authenticator, matchOpts...)
	if err != nil {
		logging.Fatal("failed to create server", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error("failed to shut down", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		logging.Fatal("game server exited", zap.Error(err))
	}
	if protector != nil {
		protector.Wait()
	}
}

// openRepository returns the user directory and the recorder finished
// games go to. With the lambda driver games are recorded asynchronously by
// the EndGame function while users are still read from DynamoDB.
func openRepository(ctx context.Context, cfg server.Config) (interfaces.Repository, interfaces.GameRecorder, error) {
	switch cfg.StorageDriver {
	case server.StorageSqlite:
		store, err := sqlite.New(cfg.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	case server.StoragePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		store, err := postgres.Connect(connectCtx, cfg.PostgresUrl)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	case server.StorageDynamoDB, server.StorageLambda:
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AwsRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		client := storage.NewClient(
			dynamodb.NewFromConfig(awsCfg),
			storage.NewConfig(cfg.UsersTable, cfg.FinishedGamesTable, cfg.TalliesTable),
		)
		if cfg.StorageDriver == server.StorageLambda {
			return client, function.NewClient(lambda.NewFromConfig(awsCfg), cfg.EndGameFunction), nil
		}
		return client, client, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func newAuthenticator(cfg server.Config, directory interfaces.UserDirectory) (server.Authenticator, error) {
	if cfg.JwksUrl == "" {
		return server.NewHmacAuthenticator(cfg.JwtSecret, cfg.Issuer, directory), nil
	}
	keys, err := auth.LoadPublicKeys(cfg.JwksUrl)
	if err != nil {
		return nil, err
	}
	logging.Info("public keys loaded", zap.Int("count", len(keys)))
	return server.NewRsaAuthenticator(keys, cfg.Issuer, directory), nil
}

func newProtector(ctx context.Context, cfg server.Config) (*compute.Protector, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AwsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := compute.NewClient(ecs.NewFromConfig(awsCfg), compute.Config{})
	if _, err := client.LoadTaskMetadata(ctx); err != nil {
		return nil, err
	}
	return compute.NewProtector(client, 10*time.Second), nil
}
