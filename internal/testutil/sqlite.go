// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"ctchen222/FindMy/internal/db"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// NewSQLite returns a migrated database in a per-test temp directory.
func NewSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	pool, err := db.Connect(filepath.Join(t.TempDir(), "findmy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	require.NoError(t, db.InitializeDB(pool))
	return pool
}
