package service

import (
	"context"
	"io"
	"strings"

	"platefeed/internal/cache"
	"platefeed/internal/media"
	"platefeed/internal/models"
	"platefeed/internal/repository"
)

const (
	// DefaultFeedLimit is the page size when the client asks for nothing specific.
	DefaultFeedLimit = 20
	// MaxFeedLimit caps what a single request can pull.
	MaxFeedLimit = 100

	maxRecipeNameLen  = 200
	maxDescriptionLen = 10000
	maxCommentLen     = 2000
)

// FeedService implements the recipe feed: publishing posts, listing them
// newest first, liking, and commenting.
type FeedService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	media       media.Store
}

type CreatePostInput struct {
	UserID      uint
	RecipeName  string
	Description string
	// ImageName is the client-supplied filename, used only for its extension.
	ImageName string
	Image     io.Reader
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
}

type AddCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

func NewFeedService(postRepo repository.PostRepository, commentRepo repository.CommentRepository, mediaStore media.Store) *FeedService {
	return &FeedService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		media:       mediaStore,
	}
}

// CreatePost stores the image first and only then writes the post row, so a
// feed entry never points at a missing file.
func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	recipeName := strings.TrimSpace(in.RecipeName)
	if recipeName == "" {
		return nil, models.NewValidationError("Recipe name is required")
	}
	if len(recipeName) > maxRecipeNameLen {
		return nil, models.NewValidationError("Recipe name too long (max 200 characters)")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.NewValidationError("Description is required")
	}
	if len(in.Description) > maxDescriptionLen {
		return nil, models.NewValidationError("Description too long (max 10000 characters)")
	}
	if in.Image == nil {
		return nil, models.NewValidationError("Recipe image is required")
	}

	imageURL, err := s.media.Save(ctx, in.ImageName, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		RecipeName:  recipeName,
		Description: in.Description,
		ImageURL:    imageURL,
		UserID:      in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// ListPosts returns a feed page, newest first. The anonymous-shaped first page
// is served cache-aside; the caller's liked flags are re-derived from the
// liker sets so cached pages stay user independent.
func (s *FeedService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	if offset == 0 && limit == DefaultFeedLimit {
		var posts []*models.Post
		err := cache.Aside(ctx, cache.FeedKey(), &posts, cache.FeedTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.List(ctx, limit, offset, 0)
			return fetchErr
		})
		if err != nil {
			return nil, err
		}
		if in.CurrentUserID != 0 {
			for _, p := range posts {
				p.Liked = containsID(p.LikeUserIDs, in.CurrentUserID)
			}
		}
		return posts, nil
	}

	return s.postRepo.List(ctx, limit, offset, in.CurrentUserID)
}

func (s *FeedService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

// LikePost adds the user to the post's liker set. Liking twice is a no-op, and
// there is no unlike, so the set only grows.
func (s *FeedService) LikePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return nil, err
	}
	if err := s.postRepo.Like(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

// AddComment appends a comment and returns it with the author attached.
func (s *FeedService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	if _, err := s.postRepo.GetByID(ctx, in.PostID, 0); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:   text,
		UserID: in.UserID,
		PostID: in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns every comment on a post, newest first.
func (s *FeedService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
