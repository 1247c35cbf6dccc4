package configs

import (
	"context"
	"fmt"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func DB() *gorm.DB {
	return db
}

// ConnectionDB opens the sqlite file that backs per-client local state.
func ConnectionDB(cfg *Config) error {
	database, err := gorm.Open(sqlite.Open(cfg.DBSource), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DBSource, err)
	}
	db = database
	return nil
}

func SetupDatabase() error {
	return db.AutoMigrate(&entity.LocalValue{})
}

// ConnectRedis is used instead of sqlite when STORE_DRIVER=redis.
func ConnectRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
