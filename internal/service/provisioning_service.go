package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/movila/flashback-backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNoSessionEmail = errors.New("no email found in checkout session")

// ProvisioningService turns a paid checkout session into a usable account
// with one order. Safe to call repeatedly for the same session: the unique
// stripe_session_id on orders absorbs retried and duplicate calls.
type ProvisioningService struct {
	gateway   CheckoutGateway
	userRepo  UserRepository
	orderRepo OrderRepository
	logger    *zap.Logger
}

func NewProvisioningService(gateway CheckoutGateway, userRepo UserRepository, orderRepo OrderRepository, logger *zap.Logger) *ProvisioningService {
	return &ProvisioningService{
		gateway:   gateway,
		userRepo:  userRepo,
		orderRepo: orderRepo,
		logger:    logger,
	}
}

func (s *ProvisioningService) HandlePaidSession(sessionID string) (*models.ProvisionResult, error) {
	session, err := s.gateway.GetCheckoutSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	if session.PaymentStatus != "paid" {
		return nil, ErrPaymentNotCompleted
	}

	if session.CustomerDetails == nil || session.CustomerDetails.Email == "" {
		return nil, ErrNoSessionEmail
	}
	email := session.CustomerDetails.Email

	plan := models.PlanSingle
	if raw, ok := session.Metadata["plan"]; ok && raw != "" {
		plan = models.PlanType(raw)
	}
	filmsTotal := models.PlanFilms(plan)
	if raw, ok := session.Metadata["films_total"]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filmsTotal = parsed
		}
	}

	// Resolve or lazily create the user. Payment proves the email is the
	// customer's point of contact; no separate verification step.
	user, err := s.userRepo.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &models.User{Email: email}
		if err := s.userRepo.Create(user); err != nil {
			// A concurrent call may have created the user first.
			if existing, lookupErr := s.userRepo.GetByEmail(email); lookupErr == nil {
				user = existing
			} else {
				return nil, fmt.Errorf("failed to create user: %w", err)
			}
		}
		s.logger.Info("provisioned new user",
			zap.Uint("user_id", user.ID),
			zap.String("email", email),
		)
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if _, err := s.orderRepo.GetBySessionID(sessionID); errors.Is(err, gorm.ErrRecordNotFound) {
		order := &models.Order{
			UserID:          user.ID,
			StripeSessionID: sessionID,
			Plan:            plan,
			FilmsTotal:      filmsTotal,
			FilmsUsed:       0,
			Status:          models.OrderStatusActive,
		}
		if session.PaymentIntent != nil {
			order.StripePaymentIntent = session.PaymentIntent.ID
		}

		if err := s.orderRepo.Create(order); err != nil {
			// Lost the race against another call for the same session; the
			// unique constraint guarantees exactly one order exists.
			if _, lookupErr := s.orderRepo.GetBySessionID(sessionID); lookupErr != nil {
				return nil, fmt.Errorf("failed to create order: %w", err)
			}
		} else {
			s.logger.Info("created order",
				zap.Uint("order_id", order.ID),
				zap.String("session_id", sessionID),
				zap.String("plan", string(plan)),
				zap.Int("films_total", filmsTotal),
			)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}

	return &models.ProvisionResult{
		Email:  email,
		UserID: user.ID,
	}, nil
}
