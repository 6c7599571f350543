package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/movila/flashback-backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrWorkerUnavailable = errors.New("video generation service unavailable")
	ErrGenerationFailed  = errors.New("video generation failed")
	ErrInvalidCallback   = errors.New("missing film_id or video_filename")
)

type GenerationService struct {
	filmRepo FilmRepository
	worker   RenderWorker
	notifier Notifier
	logger   *zap.Logger
}

func NewGenerationService(filmRepo FilmRepository, worker RenderWorker, notifier Notifier, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		filmRepo: filmRepo,
		worker:   worker,
		notifier: notifier,
		logger:   logger,
	}
}

// Dispatch asks the render worker to generate the film. Only the id is
// passed; the worker reads the ordered photos from storage by convention.
func (s *GenerationService) Dispatch(film *models.Film) (string, error) {
	machineID, err := s.worker.LaunchRender(strconv.FormatUint(uint64(film.ID), 10))
	if err != nil {
		s.logger.Error("render worker rejected dispatch",
			zap.Uint("film_id", film.ID),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)
	}

	s.logger.Info("render machine created",
		zap.Uint("film_id", film.ID),
		zap.String("machine_id", machineID),
	)
	return machineID, nil
}

// DispatchFilm is the user-facing entry point: it authorizes ownership
// before dispatching.
func (s *GenerationService) DispatchFilm(filmID, userID uint) (string, error) {
	film, err := s.filmRepo.GetByID(filmID)
	if err != nil {
		return "", err
	}
	if film.UserID != userID {
		return "", ErrForbidden
	}
	return s.Dispatch(film)
}

// HandleCallback processes the worker's completion report. A repeat
// callback for an already completed film is a no-op: the film stays
// completed and no second email goes out.
func (s *GenerationService) HandleCallback(req *models.GenerationCallbackRequest) error {
	if req.RunData.FilmID == "" || req.VideoFilename == "" {
		return ErrInvalidCallback
	}

	if req.RunData.Status != "completed" || req.RunData.Error != "" {
		s.logger.Error("video generation failed",
			zap.String("film_id", req.RunData.FilmID),
			zap.String("status", req.RunData.Status),
			zap.String("error", req.RunData.Error),
		)
		return ErrGenerationFailed
	}

	filmID, err := strconv.ParseUint(req.RunData.FilmID, 10, 32)
	if err != nil {
		return ErrInvalidCallback
	}

	film, err := s.filmRepo.GetByID(uint(filmID))
	if err != nil {
		return err
	}

	// The conditional update succeeds once per film, so a repeated or
	// concurrent callback falls through to the no-op branch here.
	if err := s.filmRepo.MarkCompleted(film.ID, req.VideoFilename); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("ignoring duplicate generation callback",
				zap.Uint("film_id", film.ID),
			)
			return nil
		}
		return err
	}
	film.Status = models.FilmStatusCompleted
	film.OutputFile = req.VideoFilename

	s.logger.Info("film completed",
		zap.Uint("film_id", film.ID),
		zap.String("output_file", film.OutputFile),
		zap.Float64("duration_seconds", req.RunData.DurationSeconds),
	)

	if err := s.notifier.NotifyReady(film); err != nil {
		// The film stays completed; the customer can still stream from
		// the account area and the email can be retried by hand.
		return fmt.Errorf("failed to send delivery email: %w", err)
	}

	return nil
}
