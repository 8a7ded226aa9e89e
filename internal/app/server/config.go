package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/chess-vn/livematch/internal/app/match"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageSqlite   = "sqlite"
	StoragePostgres = "postgres"
	StorageDynamoDB = "dynamodb"
	StorageLambda   = "lambda"
)

type Config struct {
	Port       string
	Match      match.Config
	MaxMatches int32
	InviteTTL  time.Duration
	// StatsInterval is how often the scheduler logs registry sizes.
	StatsInterval time.Duration

	JwtSecret string
	JwksUrl   string
	Issuer    string

	StorageDriver string
	SqlitePath    string
	PostgresUrl   string

	AwsRegion          string
	UsersTable         string
	FinishedGamesTable string
	TalliesTable       string
	EndGameFunction    string
	TaskProtection     bool
}

// NewConfig reads ./configs/server/config.yaml or ./config.yaml when
// present. Environment variables override file values, with dots in keys
// replaced by underscores (MATCH_DURATION for match.duration). A .env file
// is loaded into the environment first.
func NewConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs/server")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("fatal error config file: %w", err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	def := match.DefaultConfig()
	v.SetDefault("server.port", "7202")
	v.SetDefault("match.duration", def.MatchDuration)
	v.SetDefault("match.decrementInterval", def.DecrementInterval)
	v.SetDefault("match.pollInterval", def.PollInterval)
	v.SetDefault("match.expiryFloor", def.ExpiryFloor)
	v.SetDefault("match.persistTimeout", def.PersistTimeout)
	v.SetDefault("match.formingTTL", time.Duration(0))
	v.SetDefault("match.maxMatches", 100)
	v.SetDefault("invite.ttl", time.Duration(0))
	v.SetDefault("stats.interval", time.Minute)
	v.SetDefault("storage.driver", StorageSqlite)
	v.SetDefault("storage.sqlitePath", "livematch.db")
	v.SetDefault("aws.usersTable", "Users")
	v.SetDefault("aws.finishedGamesTable", "FinishedGames")
	v.SetDefault("aws.tallyTable", "Tallies")
	v.SetDefault("aws.endGameFunction", "EndGame")
	v.SetDefault("aws.taskProtection", false)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port: v.GetString("server.port"),
		Match: match.Config{
			MatchDuration:     v.GetDuration("match.duration"),
			DecrementInterval: v.GetDuration("match.decrementInterval"),
			PollInterval:      v.GetDuration("match.pollInterval"),
			ExpiryFloor:       v.GetDuration("match.expiryFloor"),
			PersistTimeout:    v.GetDuration("match.persistTimeout"),
			FormingTTL:        v.GetDuration("match.formingTTL"),
		},
		MaxMatches:    v.GetInt32("match.maxMatches"),
		InviteTTL:     v.GetDuration("invite.ttl"),
		StatsInterval: v.GetDuration("stats.interval"),

		JwtSecret: v.GetString("auth.jwtSecret"),
		JwksUrl:   v.GetString("auth.jwksUrl"),
		Issuer:    v.GetString("auth.issuer"),

		StorageDriver: strings.ToLower(v.GetString("storage.driver")),
		SqlitePath:    v.GetString("storage.sqlitePath"),
		PostgresUrl:   v.GetString("storage.postgresUrl"),

		AwsRegion:          v.GetString("aws.region"),
		UsersTable:         v.GetString("aws.usersTable"),
		FinishedGamesTable: v.GetString("aws.finishedGamesTable"),
		TalliesTable:       v.GetString("aws.tallyTable"),
		EndGameFunction:    v.GetString("aws.endGameFunction"),
		TaskProtection:     v.GetBool("aws.taskProtection"),
	}

	switch cfg.StorageDriver {
	case StorageSqlite, StoragePostgres, StorageDynamoDB, StorageLambda:
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver == StoragePostgres && cfg.PostgresUrl == "" {
		return Config{}, fmt.Errorf("storage.postgresUrl is required for postgres")
	}
	if cfg.JwtSecret == "" && cfg.JwksUrl == "" {
		return Config{}, fmt.Errorf("one of auth.jwtSecret or auth.jwksUrl is required")
	}
	return cfg, nil
}
