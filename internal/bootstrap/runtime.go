// Package bootstrap wires the process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// FixturePath, when set, loads a YAML fixture into an empty database.
	FixturePath string
}

// InitRuntime connects to DB and Redis and optionally loads a fixture.
// The Redis client is nil when REDIS_URL is unset or unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.FixturePath != "" {
		if err := loadFixture(db, cfg, opts.FixturePath); err != nil {
			return nil, nil, err
		}
	}

	return db, r, nil
}

// loadFixture applies the fixture only when the users table is empty, so
// restarts do not fail on duplicates.
func loadFixture(db *gorm.DB, cfg *config.Config, path string) error {
	var n int64
	if err := db.Table("users").Count(&n).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		middleware.Logger.Info("fixture skipped, database not empty", "path", path, "users", n)
		return nil
	}

	fx, err := seed.LoadFixture(path)
	if err != nil {
		return err
	}
	sum, err := seed.ApplyFixture(db, fx, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("apply fixture %s: %w", path, err)
	}
	middleware.Logger.InfoContext(context.Background(), "fixture loaded",
		"path", path,
		"users", sum.Users,
		"messages", sum.Messages,
	)
	return nil
}
