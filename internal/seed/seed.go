package seed

import (
	"fmt"
	"log/slog"

	"platefeed/internal/middleware"
	"platefeed/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Run populates the database with demo users, recipes, likes and comments.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 40
	}

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return fmt.Errorf("seed: clean: %w", err)
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("seed: create user: %w", err)
		}
		users = append(users, user)
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rng.Intn(len(users))]
		posts = append(posts, f.BuildPost(author))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("seed: create posts: %w", err)
	}

	// Roughly a third of user/post pairs like, a tenth comment.
	for _, post := range posts {
		for _, user := range users {
			if f.rng.Intn(3) == 0 {
				if err := f.CreateLike(user, post); err != nil {
					return fmt.Errorf("seed: create like: %w", err)
				}
			}
			if f.rng.Intn(10) == 0 {
				if _, err := f.CreateComment(user, post); err != nil {
					return fmt.Errorf("seed: create comment: %w", err)
				}
			}
		}
	}

	middleware.Logger.Info("seed complete",
		slog.Int("users", len(users)),
		slog.Int("posts", len(posts)),
	)
	return nil
}

// Clean removes all seeded data. Order respects foreign keys.
func Clean(db *gorm.DB) error {
	for _, stmt := range []string{
		"DELETE FROM likes",
		"DELETE FROM comments",
		"DELETE FROM posts",
		"DELETE FROM users",
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
