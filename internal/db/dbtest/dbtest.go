// Package dbtest opens disposable in-memory databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/EmpoweredVote/geodata/internal/config"
	"github.com/EmpoweredVote/geodata/internal/db"
	"github.com/EmpoweredVote/geodata/internal/schema"
	"gorm.io/gorm"
)

var seq atomic.Int64

// New returns a provisioned in-memory SQLite database with foreign keys
// enforced. It is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, true)
}

// NewWithoutForeignKeys is New without foreign key enforcement, for tests
// that need to plant orphaned references.
func NewWithoutForeignKeys(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, false)
}

func open(t testing.TB, foreignKeys bool) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	if foreignKeys {
		dsn += "&_pragma=foreign_keys(1)"
	}

	gdb, err := db.Connect(config.Database{
		Driver:       config.DriverSQLite,
		URL:          dsn,
		LogLevel:     "silent",
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(gdb)
	})

	if err := schema.Provision(context.Background(), gdb); err != nil {
		t.Fatalf("failed to provision test database: %v", err)
	}
	return gdb
}
