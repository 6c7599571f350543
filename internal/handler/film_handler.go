package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/internal/service"
	"github.com/movila/flashback-backend/pkg/utils"
	"gorm.io/gorm"
)

type FilmHandler struct {
	filmService       *service.FilmService
	generationService *service.GenerationService
	deliveryService   *service.DeliveryService
	validator         *utils.Validator
}

func NewFilmHandler(
	filmService *service.FilmService,
	generationService *service.GenerationService,
	deliveryService *service.DeliveryService,
	validator *utils.Validator,
) *FilmHandler {
	return &FilmHandler{
		filmService:       filmService,
		generationService: generationService,
		deliveryService:   deliveryService,
		validator:         validator,
	}
}

// currentUserID reads the authenticated user from the request locals set by
// the auth middleware.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userID").(uint)
	return userID, ok
}

func filmStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrFilmNotOpen),
		errors.Is(err, service.ErrNoFilmsRemaining),
		errors.Is(err, service.ErrInsufficientPhotos),
		errors.Is(err, service.ErrTooManyPhotos),
		errors.Is(err, service.ErrInvalidPhotoName),
		errors.Is(err, service.ErrFilmNotReady):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ResumeFilm returns the order's open film, creating one if needed.
func (h *FilmHandler) ResumeFilm(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.ResumeFilmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Missing order_id"))
	}

	film, err := h.filmService.ResumeOrCreateFilm(userID, req.OrderID)
	if err != nil {
		return c.Status(filmStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(film, "Film ready for upload"))
}

func (h *FilmHandler) GetFilms(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	films, err := h.filmService.GetUserFilms(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(films, "Films retrieved"))
}

func (h *FilmHandler) GetPhotos(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	filmID, err := parseFilmID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid film ID"))
	}

	photos, err := h.filmService.ListPhotos(filmID, userID)
	if err != nil {
		return c.Status(filmStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(photos, "Photos retrieved"))
}

// UploadPhotos accepts a multipart batch under the "photos" field.
func (h *FilmHandler) UploadPhotos(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	filmID, err := parseFilmID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid film ID"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("No files uploaded"))
	}
	files := form.File["photos"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("No files uploaded"))
	}

	film, err := h.filmService.UploadPhotos(filmID, userID, files)
	if err != nil {
		return c.Status(filmStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(film, "Photos uploaded"))
}

func (h *FilmHandler) DeletePhoto(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	filmID, err := parseFilmID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid film ID"))
	}

	film, err := h.filmService.DeletePhoto(filmID, userID, c.Params("name"))
	if err != nil {
		return c.Status(filmStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(film, "Photo deleted"))
}

// SubmitFilm freezes the photo order and starts generation.
func (h *FilmHandler) SubmitFilm(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	filmID, err := parseFilmID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid film ID"))
	}

	var req models.SubmitFilmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	film, err := h.filmService.SubmitFilm(filmID, userID, req.Photos)
	if err != nil {
		return c.Status(filmStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(film, "Film submitted for generation"))
}

// GenerateFilm re-dispatches a film to the render worker.
func (h *FilmHandler) GenerateFilm(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	filmID, err := parseFilmID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid film ID"))
	}

	machineID, err := h.generationService.DispatchFilm(filmID, userID)
	if err != nil {
		if errors.Is(err, service.ErrWorkerUnavailable) {
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Failed to start video generation"))
		}
		return c.Status(filmStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"machine_id": machineID}, "Generation started"))
}

// GetVideoURL returns a fresh one-hour signed playback URL.
func (h *FilmHandler) GetVideoURL(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	filmID, err := parseFilmID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid film ID"))
	}

	url, err := h.deliveryService.GetPlaybackURL(filmID, userID)
	if err != nil {
		return c.Status(filmStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"url": url}, "Video URL generated"))
}

func parseFilmID(c *fiber.Ctx) (uint, error) {
	filmID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(filmID), nil
}
