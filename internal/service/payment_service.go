package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/movila/flashback-backend/internal/config"
	"github.com/movila/flashback-backend/internal/models"
)

var (
	ErrInvalidPlan         = errors.New("invalid plan selected")
	ErrPaymentNotCompleted = errors.New("payment not completed")
)

type PaymentService struct {
	gateway     CheckoutGateway
	priceSingle string
	pricePack   string
}

func NewPaymentService(gateway CheckoutGateway, cfg *config.Config) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		priceSingle: cfg.Stripe.PriceSingle,
		pricePack:   cfg.Stripe.PricePack,
	}
}

// CreateCheckout opens a hosted checkout session for the plan and returns
// its redirect URL. The plan and film quota travel in the session metadata
// so provisioning can read them back after payment.
func (s *PaymentService) CreateCheckout(plan models.PlanType) (*models.CheckoutSession, error) {
	var priceID string
	switch plan {
	case models.PlanSingle:
		priceID = s.priceSingle
	case models.PlanPack:
		priceID = s.pricePack
	default:
		return nil, ErrInvalidPlan
	}
	if priceID == "" {
		return nil, ErrInvalidPlan
	}

	session, err := s.gateway.CreateCheckoutSession(priceID, map[string]string{
		"plan":        string(plan),
		"films_total": strconv.Itoa(models.PlanFilms(plan)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &models.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// VerifyPayment reports a checkout session's payment status and metadata.
func (s *PaymentService) VerifyPayment(sessionID string) (*models.PaymentVerification, error) {
	session, err := s.gateway.GetCheckoutSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	if session.PaymentStatus != "paid" {
		return nil, ErrPaymentNotCompleted
	}

	verification := &models.PaymentVerification{
		Paid:        true,
		SessionID:   session.ID,
		Plan:        models.PlanSingle,
		FilmsTotal:  1,
		AmountTotal: session.AmountTotal,
		Currency:    string(session.Currency),
	}

	if session.CustomerDetails != nil {
		verification.Email = session.CustomerDetails.Email
	}
	if plan, ok := session.Metadata["plan"]; ok && plan != "" {
		verification.Plan = models.PlanType(plan)
	}
	if raw, ok := session.Metadata["films_total"]; ok {
		if filmsTotal, err := strconv.Atoi(raw); err == nil {
			verification.FilmsTotal = filmsTotal
		}
	}

	return verification, nil
}
