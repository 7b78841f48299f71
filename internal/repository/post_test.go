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

func TestPostGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 42, 0)
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Ana", "ana@x.com")
	for i := 1; i <= 3; i++ {
		post := createTestPost(t, db, user.ID, fmt.Sprintf("Recipe %d", i))
		// Spread creation times so ordering is unambiguous.
		db.Model(post).Update("created_at", time.Now().Add(time.Duration(i)*time.Minute))
	}

	posts, err := repo.List(ctx, 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "Recipe 3", posts[0].RecipeName)
	assert.Equal(t, "Recipe 1", posts[2].RecipeName)

	// Denormalized author rides along.
	assert.Equal(t, "Ana", posts[0].User.Name)
	assert.Equal(t, "ana@x.com", posts[0].User.Email)
}

func TestPostListRespectsLimitAndOffset(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Ana", "ana@x.com")
	for i := 1; i <= 5; i++ {
		post := createTestPost(t, db, user.ID, fmt.Sprintf("Recipe %d", i))
		db.Model(post).Update("created_at", time.Now().Add(time.Duration(i)*time.Minute))
	}

	posts, err := repo.List(ctx, 2, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Recipe 5", posts[0].RecipeName)

	next, err := repo.List(ctx, 2, 2, 0)
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, "Recipe 3", next[0].RecipeName)
}

func TestLikeIsIdempotentPerUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Ana", "ana@x.com")
	post := createTestPost(t, db, user.ID, "Soup")

	require.NoError(t, repo.Like(ctx, user.ID, post.ID))
	require.NoError(t, repo.Like(ctx, user.ID, post.ID))
	require.NoError(t, repo.Like(ctx, user.ID, post.ID))

	got, err := repo.GetByID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.Equal(t, []uint{user.ID}, got.LikeUserIDs)
	assert.True(t, got.Liked)
}

func TestLikesFromDistinctUsersAccumulate(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "Ana", "ana@x.com")
	post := createTestPost(t, db, author.ID, "Soup")

	const n = 4
	for i := 0; i < n; i++ {
		liker := createTestUser(t, db, fmt.Sprintf("User %d", i), fmt.Sprintf("u%d@x.com", i))
		require.NoError(t, repo.Like(ctx, liker.ID, post.ID))
	}

	got, err := repo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, n, got.LikesCount)
	assert.Len(t, got.LikeUserIDs, n)
	assert.False(t, got.Liked, "anonymous reader never shows liked")

	// A repeat like by an already-liked user changes nothing.
	require.NoError(t, repo.Like(ctx, got.LikeUserIDs[0], post.ID))
	again, err := repo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, n, again.LikesCount)
}

func TestIsLiked(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Ana", "ana@x.com")
	post := createTestPost(t, db, user.ID, "Soup")

	liked, err := repo.IsLiked(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, repo.Like(ctx, user.ID, post.ID))

	liked, err = repo.IsLiked(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestPostGetByIDIncludesComments(t *testing.T) {
	db := newTestDB(t)
	postRepo := NewPostRepository(db)
	commentRepo := NewCommentRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Ana", "ana@x.com")
	post := createTestPost(t, db, user.ID, "Soup")

	require.NoError(t, commentRepo.Create(ctx, &models.Comment{
		Text: "great", UserID: user.ID, PostID: post.ID,
	}))

	got, err := postRepo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsCount)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "great", got.Comments[0].Text)
}
