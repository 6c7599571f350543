package models

import (
	"time"
)

type PlanType string

const (
	PlanSingle PlanType = "single"
	PlanPack   PlanType = "pack"
)

const (
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"
)

// PlanFilms maps a purchase plan to the number of films it grants.
func PlanFilms(plan PlanType) int {
	if plan == PlanPack {
		return 3
	}
	return 1
}

type Order struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	UserID              uint      `json:"user_id" gorm:"not null;index"`
	StripeSessionID     string    `json:"stripe_session_id" gorm:"unique;not null"`
	StripePaymentIntent string    `json:"stripe_payment_intent"`
	Plan                PlanType  `json:"plan" gorm:"not null"`
	FilmsTotal          int       `json:"films_total" gorm:"not null"`
	FilmsUsed           int       `json:"films_used" gorm:"not null;default:0"`
	Status              string    `json:"status" gorm:"not null;default:'active'"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (o *Order) FilmsRemaining() int {
	remaining := o.FilmsTotal - o.FilmsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
