package models

import "time"

// LoginToken is a one-time magic-link code, stored bcrypt-hashed.
type LoginToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	Email     string     `json:"email" gorm:"not null"`
	TokenHash string     `json:"-" gorm:"not null"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ProvisionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type ProvisionResult struct {
	Email  string `json:"email"`
	UserID uint   `json:"user_id"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
