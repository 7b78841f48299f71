package repository

import (
	"context"
	"path/filepath"
	"testing"

	"platefeed/internal/database"
	"platefeed/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a fresh SQLite database per test so tests stay isolated and
// never require a running Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, Password: "hashed"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, userID uint, recipeName string) *models.Post {
	t.Helper()
	post := &models.Post{
		RecipeName:  recipeName,
		Description: "description of " + recipeName,
		ImageURL:    "/uploads/test.jpg",
		UserID:      userID,
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), post))
	return post
}
