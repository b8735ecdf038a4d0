package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort uint16 `env:"REDIS_PORT" envDefault:"6379" validate:"min=1,max=65535"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"auction_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"auction_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"auction_db"`

	// StoreBackend selects the durable store implementation.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres" validate:"oneof=postgres memory"`

	// BidLockWaitMs bounds how long a submission may wait for an
	// auction's exclusive section before failing as retryable.
	BidLockWaitMs int `env:"BID_LOCK_WAIT_MS" envDefault:"2000" validate:"min=1"`
	// CommitMaxAttempts bounds decide-and-commit reruns after a store
	// conflict.
	CommitMaxAttempts int `env:"COMMIT_MAX_ATTEMPTS" envDefault:"3" validate:"min=1"`
	// ResolvePollMs is the deadline watcher interval.
	ResolvePollMs int `env:"RESOLVE_POLL_MS" envDefault:"500" validate:"min=50"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
