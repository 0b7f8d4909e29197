package db

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const sqliteMemoryDSN = "file::memory:?cache=shared"

// Client owns the process-wide GORM pool. Repositories take *gorm.DB from
// DB(); services that need a transaction take the Client through WithTx.
type Client struct {
	conn *gorm.DB
}

func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newQueryLogger(logg, cfg.SlowQueryThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driverName(cfg), err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	configurePool(sqlDB, cfg)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName(cfg), err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"driver":         driverName(cfg),
			"max_open_conns": cfg.MaxOpenConns,
		}), "database connection established")
	}
	return &Client{conn: conn}, nil
}

// NewFromGorm wraps an already opened connection, mostly for tests.
func NewFromGorm(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

// dialectorFor picks the driver. Postgres serves every deployed environment;
// sqlite backs local development without a database server.
func dialectorFor(cfg config.DBConfig) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case config.DBDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is required")
		}
		return postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}), nil
	case config.DBDriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = sqliteMemoryDSN
		}
		return sqlite.Open(path), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func driverName(cfg config.DBConfig) string {
	if cfg.Driver == "" {
		return config.DBDriverPostgres
	}
	return cfg.Driver
}

func configurePool(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn in a transaction bound to ctx. An error or panic from fn
// rolls back; a panic is re-raised after the rollback.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin tx: %w", tx.Error)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tx.Rollback().Error
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
