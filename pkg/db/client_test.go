package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

type sampleRow struct {
	ID   int
	Code string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&sampleRow{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollsBack(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&sampleRow{Code: "SAVE10"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&sampleRow{Code: "SAVE20"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}

	var count int64
	if err := db.Model(&sampleRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := NewFromGorm(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestDialectorFor(t *testing.T) {
	if _, err := dialectorFor(config.DBConfig{Driver: config.DBDriverPostgres}); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}
	if _, err := dialectorFor(config.DBConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	d, err := dialectorFor(config.DBConfig{Driver: config.DBDriverSQLite})
	if err != nil {
		t.Fatalf("sqlite dialector: %v", err)
	}
	if d.Name() != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %s", d.Name())
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_discount_codes_code"}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", pgxErr), "ux_discount_codes_code") {
		t.Fatal("expected pgx unique violation to match constraint")
	}
	if IsUniqueViolation(pgxErr, "ux_other") {
		t.Fatal("expected constraint mismatch to be false")
	}
	pqErr := &pq.Error{Code: "23505", Constraint: "ux_campaigns_slug"}
	if !IsUniqueViolation(pqErr, "") {
		t.Fatal("expected pq unique violation")
	}
	if IsUniqueViolation(errors.New("connection reset"), "") {
		t.Fatal("unexpected match for unrelated error")
	}

	db := newTestDB(t)
	if err := db.Create(&sampleRow{Code: "DUP"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := db.Create(&sampleRow{Code: "DUP"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected sqlite unique violation, got %v", err)
	}
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: "debug", Output: &buf})
	ql := newQueryLogger(logg, 10*time.Millisecond)
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(ctx, time.Now(), stmt, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast successful query should not log, got %s", buf.String())
	}

	ql.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found should not log, got %s", buf.String())
	}

	ql.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	if !strings.Contains(buf.String(), "slow query") {
		t.Fatalf("expected slow query log, got %s", buf.String())
	}

	buf.Reset()
	ql.Trace(ctx, time.Now(), stmt, errors.New("relation does not exist"))
	if !strings.Contains(buf.String(), "query failed") || !strings.Contains(buf.String(), "SELECT 1") {
		t.Fatalf("expected failed query log, got %s", buf.String())
	}

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("ignored"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode should not log, got %s", buf.String())
	}
}

func TestNewQueryLoggerWithoutLoggerDiscards(t *testing.T) {
	if newQueryLogger(nil, time.Second) != gormlogger.Discard {
		t.Fatal("expected discard logger when no service logger is configured")
	}
}
