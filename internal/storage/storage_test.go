package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/recipe-box/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Options{Driver: DriverSQLite, DSN: MemoryDSN})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(ctx, db))
	return db
}

func createUser(t *testing.T, store *UserStore, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hash-" + username}
	require.NoError(t, store.Create(context.Background(), user))
	return user
}
