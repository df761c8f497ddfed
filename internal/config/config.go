package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	SweepIntervalS int `env:"SWEEP_INTERVAL_S" envDefault:"300"`
	SweepDelayMS   int `env:"SWEEP_DELAY_MS" envDefault:"50"`
	BuildQueueSize int `env:"BUILD_QUEUE_SIZE" envDefault:"256"`
	TxRecentLimit  int `env:"TX_RECENT_LIMIT" envDefault:"10"`

	RedisAddr     string `env:"REDIS_ADDR"`
	InputStream   string `env:"INPUT_STREAM" envDefault:"banking.agreements.events"`
	OutputStream  string `env:"OUTPUT_STREAM" envDefault:"banking.customer.agreement-profiles"`
	ConsumerGroup string `env:"CONSUMER_GROUP" envDefault:"agreement-profile-service"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
