package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateFS(Embedded, EmbeddedDir); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestRunAppliesAndRollsBackOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	ctx := context.Background()
	if err := Run(ctx, sqlDB, DialectSQLite, "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}

	for _, table := range []string{"users", "products", "orders", "order_items", "notifications", "outbox_events", "outbox_dlq"} {
		var count int64
		if err := conn.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count).Error; err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}

	version, err := CurrentVersion(ctx, sqlDB, DialectSQLite)
	if err != nil {
		t.Fatalf("current version: %v", err)
	}
	if version != 20260301090400 {
		t.Fatalf("unexpected version %d", version)
	}

	if err := MigrateToVersion(ctx, sqlDB, DialectSQLite, "20260301090100"); err != nil {
		t.Fatalf("migrate down to products: %v", err)
	}
	var orders int64
	if err := conn.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'orders'").Scan(&orders).Error; err != nil {
		t.Fatalf("lookup orders: %v", err)
	}
	if orders != 0 {
		t.Fatalf("expected orders table to be dropped")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Order Notes!", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260302100000_add_order_notes.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "-- +goose Up") || !strings.Contains(string(body), "-- +goose Down") {
		t.Fatalf("template missing goose headers: %s", body)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}

	if _, err := CreateSQLMigration(dir, "Add Order Notes!", now); err == nil {
		t.Fatal("expected duplicate migration to fail")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail")
	}
}

func TestDialectFor(t *testing.T) {
	if DialectFor("sqlite") != DialectSQLite {
		t.Fatal("expected sqlite3 dialect")
	}
	if DialectFor("postgres") != DialectPostgres {
		t.Fatal("expected postgres dialect")
	}
}
