package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/internal/service"
	"github.com/movila/flashback-backend/pkg/utils"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	validator      *utils.Validator
}

func NewPaymentHandler(paymentService *service.PaymentService, validator *utils.Validator) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validator:      validator,
	}
}

// CreateCheckout returns the hosted checkout URL for a plan.
func (h *PaymentHandler) CreateCheckout(c *fiber.Ctx) error {
	var req models.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid plan selected"))
	}

	session, err := h.paymentService.CreateCheckout(req.Plan)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlan) {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid plan selected"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Failed to create checkout session"))
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"url": session.URL}, "Checkout session created"))
}

// VerifyPayment reports whether a checkout session has been paid.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Missing session_id"))
	}

	verification, err := h.paymentService.VerifyPayment(sessionID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotCompleted) {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Payment not completed"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Failed to verify payment"))
	}

	return c.JSON(models.SuccessResponse(verification, "Payment verified"))
}
