package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"platefeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Ana", "ana@x.com")
	post := createTestPost(t, db, user.ID, "Soup")

	comment := &models.Comment{Text: "great", UserID: user.ID, PostID: post.ID}
	require.NoError(t, repo.Create(ctx, comment))
	require.NotZero(t, comment.ID)

	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "great", got.Text)
	assert.Equal(t, "Ana", got.User.Name)
}

func TestCommentGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)

	_, err := repo.GetByID(context.Background(), 77)
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCommentListByPostNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Ana", "ana@x.com")
	post := createTestPost(t, db, user.ID, "Soup")
	other := createTestPost(t, db, user.ID, "Stew")

	for i := 1; i <= 3; i++ {
		comment := &models.Comment{Text: fmt.Sprintf("comment %d", i), UserID: user.ID, PostID: post.ID}
		require.NoError(t, repo.Create(ctx, comment))
		db.Model(comment).Update("created_at", time.Now().Add(time.Duration(i)*time.Minute))
	}
	require.NoError(t, repo.Create(ctx, &models.Comment{Text: "elsewhere", UserID: user.ID, PostID: other.ID}))

	comments, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "comment 3", comments[0].Text)
	assert.Equal(t, "comment 1", comments[2].Text)
	assert.Equal(t, "ana@x.com", comments[0].User.Email)
}
