package handler

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/internal/service"
	"gorm.io/gorm"
)

type GenerationHandler struct {
	generationService *service.GenerationService
	callbackToken     string
}

func NewGenerationHandler(generationService *service.GenerationService, callbackToken string) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		callbackToken:     callbackToken,
	}
}

// HandleCallback receives the render worker's completion report. The worker
// authenticates with a shared bearer token.
func (h *GenerationHandler) HandleCallback(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid callback token"))
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if h.callbackToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid callback token"))
	}

	var req models.GenerationCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.generationService.HandleCallback(&req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCallback):
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Missing film_id or video_filename"))
		case errors.Is(err, service.ErrGenerationFailed):
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Video generation failed"))
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Film not found"))
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
		}
	}

	return c.JSON(models.SuccessResponse(nil, "Callback processed"))
}
