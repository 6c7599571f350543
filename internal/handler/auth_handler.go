package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/internal/service"
	"github.com/movila/flashback-backend/pkg/utils"
)

const defaultNextPath = "/product/flashback/start"

type AuthHandler struct {
	authService         *service.AuthService
	provisioningService *service.ProvisioningService
	validator           *utils.Validator
	baseURL             string
}

func NewAuthHandler(authService *service.AuthService, provisioningService *service.ProvisioningService, validator *utils.Validator, baseURL string) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		provisioningService: provisioningService,
		validator:           validator,
		baseURL:             baseURL,
	}
}

// Provision turns a paid checkout session into a user and an order.
func (h *AuthHandler) Provision(c *fiber.Ctx) error {
	var req models.ProvisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Missing session_id"))
	}

	result, err := h.provisioningService.HandlePaidSession(req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotCompleted):
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Payment not completed"))
		case errors.Is(err, service.ErrNoSessionEmail):
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("No email found in checkout session"))
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
		}
	}

	return c.JSON(models.SuccessResponse(result, "Account provisioned"))
}

// MagicLink requests a passwordless sign-in email.
func (h *AuthHandler) MagicLink(c *fiber.Ctx) error {
	var req models.MagicLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("A valid email is required"))
	}

	if err := h.authService.RequestMagicLink(req.Email, defaultNextPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Failed to send magic link"))
	}

	return c.JSON(models.SuccessResponse(nil, "Magic link sent"))
}

// Callback exchanges a one-time code for a session and redirects to the
// intended destination, or to the product page on failure.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	next := c.Query("next", defaultNextPath)
	if !strings.HasPrefix(next, "/") {
		next = defaultNextPath
	}

	if code == "" {
		return c.Redirect(h.baseURL + "/product/flashback?error=auth_failed")
	}

	auth, err := h.authService.ExchangeCode(code)
	if err != nil {
		return c.Redirect(h.baseURL + "/product/flashback?error=auth_failed")
	}

	return c.Redirect(h.baseURL + next + "?token=" + auth.Token)
}
