package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/docstore"
)

// newTestStore opens an isolated in-memory SQLite backed store per test.
func newTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	// Single connection: in-memory SQLite locks the whole database per writer.
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	store, err := docstore.New(gdb, 16)
	require.NoError(t, err)
	return store
}
