package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account. Only the bcrypt hash of the password is kept.
// TokenVersion is bumped on logout and password change, revoking issued tokens.
type User struct {
	ID           uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" db:"email" gorm:"type:varchar(254);not null;uniqueIndex"`
	Username     string    `json:"username" db:"username" gorm:"type:varchar(150);not null;uniqueIndex"`
	FirstName    string    `json:"first_name" db:"first_name" gorm:"type:varchar(150);not null"`
	LastName     string    `json:"last_name" db:"last_name" gorm:"type:varchar(150);not null"`
	PasswordHash string    `json:"-" db:"password_hash" gorm:"type:varchar(255);not null"`
	TokenVersion int       `json:"-" db:"token_version" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"-" db:"created_at" gorm:"not null;index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
