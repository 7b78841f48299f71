// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a shared recipe. Posts are immutable after creation except
// for like and comment appends; there is no delete path in the current scope.
type Post struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	RecipeName  string `gorm:"not null" json:"recipe_name"`
	Description string `gorm:"type:text;not null" json:"description"`
	ImageURL    string `gorm:"not null" json:"image_url"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID" json:"user"`
	// LikeUserIDs is not persisted; loaded from the likes table at query time.
	// The slice is a set: the repository enforces at most one like per user.
	LikeUserIDs []uint `gorm:"-" json:"likes"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool           `gorm:"->" json:"liked"`
	Comments  []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
