// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/withstudy/tutor/internal/db"
	"github.com/withstudy/tutor/internal/logging"
	"gorm.io/gorm"
)

// OpenDB returns a private in-memory sqlite database with tables migrated.
// It is closed when the test ends.
func OpenDB(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()
	gdb, err := db.Open("sqlite:file::memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb, tables...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
