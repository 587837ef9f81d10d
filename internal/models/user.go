// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"
)

const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User represents a Warbler account.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	ImageURL       string    `json:"image_url"`
	HeaderImageURL string    `json:"header_image_url"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u User) String() string {
	return fmt.Sprintf("<User #%d: %s, %s>", u.ID, u.Username, u.Email)
}

// Avatar returns the profile image, falling back to the default picture.
func (u User) Avatar() string {
	if u.ImageURL == "" {
		return DefaultImageURL
	}
	return u.ImageURL
}

// Header returns the header image, falling back to the default hero image.
func (u User) Header() string {
	if u.HeaderImageURL == "" {
		return DefaultHeaderImageURL
	}
	return u.HeaderImageURL
}

// UserStats holds the counters shown in a profile header.
type UserStats struct {
	Messages  int64
	Following int64
	Followers int64
	Likes     int64
}
