package models

import "time"

// MaxMessageLength is the longest text a message may carry.
const MaxMessageLength = 140

// Message is a short post authored by exactly one user.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:140;not null" json:"text"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

// IsAuthoredBy reports whether userID wrote the message.
func (m Message) IsAuthoredBy(userID uint) bool {
	return userID != 0 && m.UserID == userID
}
