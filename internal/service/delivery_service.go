package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/pkg/storage"
	"go.uber.org/zap"
)

// Playback links stay valid for one hour and are re-signed on every request.
const PlaybackURLExpiry = time.Hour

var ErrFilmNotReady = errors.New("film is not ready yet")

type DeliveryService struct {
	filmRepo    FilmRepository
	userRepo    UserRepository
	outputStore storage.ObjectStorage
	mailer      Mailer
	logger      *zap.Logger
}

func NewDeliveryService(
	filmRepo FilmRepository,
	userRepo UserRepository,
	outputStore storage.ObjectStorage,
	mailer Mailer,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		filmRepo:    filmRepo,
		userRepo:    userRepo,
		outputStore: outputStore,
		mailer:      mailer,
		logger:      logger,
	}
}

// NotifyReady emails the film's owner that their video is waiting.
func (s *DeliveryService) NotifyReady(film *models.Film) error {
	user, err := s.userRepo.GetByID(film.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve film owner: %w", err)
	}

	name := user.Email
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}

	if err := s.mailer.SendFilmReadyEmail(user.Email, name); err != nil {
		s.logger.Error("failed to send film ready email",
			zap.Uint("film_id", film.ID),
			zap.String("email", user.Email),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// GetPlaybackURL returns a fresh one-hour signed URL for the finished video.
func (s *DeliveryService) GetPlaybackURL(filmID, userID uint) (string, error) {
	film, err := s.filmRepo.GetByID(filmID)
	if err != nil {
		return "", err
	}
	if film.UserID != userID {
		return "", ErrForbidden
	}
	if film.Status != models.FilmStatusCompleted || film.OutputFile == "" {
		return "", ErrFilmNotReady
	}

	url, err := s.outputStore.PresignGet(film.OutputFile, PlaybackURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign playback URL: %w", err)
	}

	return url, nil
}
