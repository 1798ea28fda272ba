package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	return conn
}

func TestDBBindsContext(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)

	ctx := context.Background()
	bound := base.DB(ctx)
	if bound == nil || bound.Statement == nil {
		t.Fatal("expected a statement after WithContext")
	}
	if bound.Statement.Context != ctx {
		t.Fatalf("context did not flow through, got %v", bound.Statement.Context)
	}

	if base.DB(nil) != conn {
		t.Fatal("nil context should return the raw connection")
	}
}

func TestTransactRollsBackOnError(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)
	ctx := context.Background()

	if err := conn.Exec(`CREATE TABLE markers (id TEXT PRIMARY KEY)`).Error; err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	boom := errors.New("boom")
	err := base.Transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO markers (id) VALUES ('a')`).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to surface, got %v", err)
	}

	var count int64
	if err := conn.Table("markers").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rows survived a rolled-back transaction: %d", count)
	}
}

func TestTransactCommits(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)
	ctx := context.Background()

	if err := conn.Exec(`CREATE TABLE markers (id TEXT PRIMARY KEY)`).Error; err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	err := base.Transact(ctx, func(tx *gorm.DB) error {
		return tx.Exec(`INSERT INTO markers (id) VALUES ('a')`).Error
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}

	var count int64
	if err := conn.Table("markers").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("committed rows = %d, want 1", count)
	}
}
