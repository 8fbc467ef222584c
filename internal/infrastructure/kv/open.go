package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/tasker/internal/config"
	"github.com/fastygo/tasker/repository"
)

// Backend is a KeyValueStore that can be health-checked and closed.
type Backend interface {
	repository.KeyValueStore
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the backend selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data will not survive a restart")
		return NewMemory(), nil

	case config.DriverBolt:
		store, err := OpenBolt(cfg.Storage.BoltPath, cfg.Storage.BoltBucket)
		if err != nil {
			return nil, fmt.Errorf("open bolt %s: %w", cfg.Storage.BoltPath, err)
		}
		logger.Info("bolt storage opened", zap.String("path", cfg.Storage.BoltPath))
		return store, nil

	case config.DriverRedis:
		client, err := dialRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("redis storage connected", zap.String("prefix", cfg.Storage.RedisPrefix))
		return NewRedis(client, cfg.Storage.RedisPrefix), nil

	case config.DriverPostgres:
		dsn := postgresDSN(cfg.Database)
		if cfg.Migrations.Enabled {
			if err := migratePostgres(dsn, cfg.Database.Name, cfg.Migrations.Path); err != nil {
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
			logger.Info("database migrations applied")
		}
		pool, err := dialPostgres(ctx, dsn, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("postgres storage connected", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
		return NewPostgres(pool), nil
	}

	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// Migrate applies pending schema migrations. Only the postgres driver has a
// schema.
func Migrate(cfg *config.Config) error {
	if cfg.Storage.Driver != config.DriverPostgres {
		return fmt.Errorf("storage driver %q has no migrations", cfg.Storage.Driver)
	}
	return migratePostgres(postgresDSN(cfg.Database), cfg.Database.Name, cfg.Migrations.Path)
}

func dialRedis(ctx context.Context, cfg config.RedisConfig) (*redislib.Client, error) {
	opts, err := redislib.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := redislib.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func postgresDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)
}

func dialPostgres(ctx context.Context, dsn string, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		pgxCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pgxCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		pgxCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// migratePostgres applies the kv_entries schema through database/sql and lib/pq,
// which is what golang-migrate's postgres driver expects.
func migratePostgres(dsn, dbName, path string) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}

	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(path))
	m, err := migrate.NewWithDatabaseInstance(sourceURL, dbName, driver)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
