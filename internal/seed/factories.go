// Package seed provides helpers to create demo data for development and
// testing.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"platefeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	dishStyles = []string{
		"Roasted", "Grilled", "Slow-Cooked", "Crispy", "Smoky", "Spicy",
		"Creamy", "Charred", "Braised", "Pan-Seared", "Stuffed", "Glazed",
	}
	dishBases = []string{
		"Tomato Soup", "Chicken Curry", "Mushroom Risotto", "Beef Stew",
		"Lentil Dahl", "Salmon Bowl", "Veggie Lasagna", "Pumpkin Gnocchi",
		"Shakshuka", "Pad Thai", "Fish Tacos", "Ramen", "Paella",
		"Eggplant Parmigiana", "Banana Bread", "Apple Crumble",
	}
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db *gorm.DB
	// password hash shared by all seeded users; bcrypt per user is too slow
	// for large seeds and demo accounts all use the same password anyway.
	passwordHash string
	rng          *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB. Every seeded
// user can log in with "password123".
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	return &Factory{
		db:           db,
		passwordHash: string(hash),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RecipeName generates a plausible dish name.
func (f *Factory) RecipeName() string {
	return fmt.Sprintf("%s %s",
		dishStyles[f.rng.Intn(len(dishStyles))],
		dishBases[f.rng.Intn(len(dishBases))])
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a recipe post without persisting it, with a created_at
// spread over the past weeks so the feed looks lived in.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		RecipeName:  f.RecipeName(),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
		UserID:      user.ID,
	}

	hoursBack := f.rng.Intn(28 * 24)
	post.CreatedAt = time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment persists a generated comment from the user on the post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Text:   gofakeit.Sentence(f.rng.Intn(10) + 3),
		UserID: user.ID,
		PostID: post.ID,
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike records that the user liked the post, ignoring repeats.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	return f.db.Exec(
		`INSERT INTO likes (user_id, post_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		user.ID, post.ID,
	).Error
}
