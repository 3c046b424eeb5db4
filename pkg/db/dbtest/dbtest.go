// Package dbtest opens migrated in-memory sqlite databases for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hauler-backend/pkg/config"
	"github.com/angelmondragon/hauler-backend/pkg/db"
	"github.com/angelmondragon/hauler-backend/pkg/migrate"
)

// Open returns a client over a private in-memory sqlite database with every
// embedded migration applied. The database is closed when the test ends.
func Open(t testing.TB) *db.Client {
	t.Helper()

	// A named shared-cache database keeps every pooled connection on the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	client, err := db.New(context.Background(), config.DBConfig{Driver: config.DBDriverSQLite, DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = client.Close() })

	if err := migrate.Run(context.Background(), sqlDB, migrate.DialectSQLite, "up"); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}

// OpenDB is Open for callers that only need the gorm handle.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	return Open(t).DB()
}
