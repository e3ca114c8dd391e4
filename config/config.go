package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	BindAddress string `env:"BIND_ADDRESS" envDefault:"0.0.0.0"`

	// PublicURL is the externally reachable base URL, used when rendering
	// join links and QR codes.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	QuestionsPath string `env:"QUESTIONS_PATH" envDefault:"questions.json"`
	SnapshotPath  string `env:"SNAPSHOT_PATH" envDefault:"rooms.json"`

	// RedisAddr switches the room snapshot store from the flat file to
	// Redis when set.
	RedisAddr string `env:"REDIS_ADDR"`

	// DatabaseDSN enables the question-bank admin API and loads the live
	// bank from the database instead of QuestionsPath when set.
	DatabaseDSN string `env:"DATABASE_DSN"`

	JWTSecret     string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin"`

	// CleanupOnDisconnect controls whether a dropped connection removes the
	// player from their room (and destroys the room once empty).
	CleanupOnDisconnect bool `env:"CLEANUP_ON_DISCONNECT" envDefault:"true"`

	TurnSeconds  int `env:"TURN_SECONDS" envDefault:"30"`
	GuessSeconds int `env:"GUESS_SECONDS" envDefault:"10"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
}
