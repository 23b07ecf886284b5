package db

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/thesrcielos/TopCodeBattle/internal/battle"
	"github.com/thesrcielos/TopCodeBattle/internal/config"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
	"github.com/thesrcielos/TopCodeBattle/internal/rating"
	"github.com/thesrcielos/TopCodeBattle/internal/submission"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var log = logger.NewNamedLogger("db")

// Connect opens the PostgreSQL store. Driver errors are translated so that
// repositories can match gorm.ErrDuplicatedKey and gorm.ErrRecordNotFound.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	log.Infof("Connected to database %s on %s:%s", cfg.DBName, cfg.DBHost, cfg.DBPort)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.Account{},
		&user.Profile{},
		&rating.HistoryEntry{},
		&problem.Problem{},
		&battle.Battle{},
		&submission.Submission{},
	)
}

func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	var tlsConfig *tls.Config
	if cfg.RedisTLS {
		tlsConfig = &tls.Config{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:      cfg.RedisAddr,
		Username:  cfg.RedisUsername,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		TLSConfig: tlsConfig,
	})

	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Infof("Redis connected: %s", pong)
	return rdb, nil
}
