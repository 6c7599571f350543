package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MinPhotos = 5
	MaxPhotos = 10

	// 20MB per photo
	maxPhotoSize = 20 * 1024 * 1024

	// How long photo preview links stay valid during review
	photoViewExpiry = 2 * time.Hour
)

var (
	ErrNoFilmsRemaining   = errors.New("no films remaining on this order")
	ErrFilmNotOpen        = errors.New("film is no longer accepting changes")
	ErrInsufficientPhotos = fmt.Errorf("a film needs at least %d photos", MinPhotos)
	ErrTooManyPhotos      = fmt.Errorf("a film can have at most %d photos", MaxPhotos)
	ErrInvalidPhotoName   = errors.New("invalid photo name")
)

type FilmService struct {
	filmRepo   FilmRepository
	orderRepo  OrderRepository
	photoStore storage.ObjectStorage
	dispatcher FilmDispatcher
	logger     *zap.Logger
}

func NewFilmService(
	filmRepo FilmRepository,
	orderRepo OrderRepository,
	photoStore storage.ObjectStorage,
	dispatcher FilmDispatcher,
	logger *zap.Logger,
) *FilmService {
	return &FilmService{
		filmRepo:   filmRepo,
		orderRepo:  orderRepo,
		photoStore: photoStore,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ResumeOrCreateFilm returns the order's open film, or starts a new one if
// none exists and the order still has quota.
func (s *FilmService) ResumeOrCreateFilm(userID, orderID uint) (*models.Film, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}

	film, err := s.filmRepo.GetOpenFilm(orderID)
	if err == nil {
		return film, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if order.FilmsRemaining() <= 0 {
		return nil, ErrNoFilmsRemaining
	}

	film = &models.Film{
		OrderID: orderID,
		UserID:  userID,
		Status:  models.FilmStatusPendingUpload,
	}
	if err := s.filmRepo.Create(film); err != nil {
		// A concurrent call may have won the single-open-film constraint.
		if existing, lookupErr := s.filmRepo.GetOpenFilm(orderID); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}

	return film, nil
}

func (s *FilmService) GetUserFilms(userID uint) ([]models.Film, error) {
	return s.filmRepo.GetUserFilms(userID)
}

func (s *FilmService) GetFilm(filmID, userID uint) (*models.Film, error) {
	film, err := s.filmRepo.GetByID(filmID)
	if err != nil {
		return nil, err
	}
	if film.UserID != userID {
		return nil, ErrForbidden
	}
	return film, nil
}

// UploadPhotos stores a batch of photos for the film. Files beyond the
// remaining capacity are silently dropped; a file that fails validation or
// storage is skipped and logged, never aborting the rest of the batch.
func (s *FilmService) UploadPhotos(filmID, userID uint, files []*multipart.FileHeader) (*models.Film, error) {
	film, err := s.GetFilm(filmID, userID)
	if err != nil {
		return nil, err
	}
	if !film.Status.Open() {
		return nil, ErrFilmNotOpen
	}

	remaining := MaxPhotos - film.PhotosCount
	if remaining < 0 {
		remaining = 0
	}
	if len(files) > remaining {
		s.logger.Info("truncating upload batch to remaining capacity",
			zap.Uint("film_id", filmID),
			zap.Int("batch", len(files)),
			zap.Int("remaining", remaining),
		)
		files = files[:remaining]
	}

	for i, fileHeader := range files {
		if !isValidImageType(fileHeader.Header.Get("Content-Type")) {
			s.logger.Warn("skipping photo with unsupported type",
				zap.Uint("film_id", filmID),
				zap.String("file", fileHeader.Filename),
				zap.String("content_type", fileHeader.Header.Get("Content-Type")),
			)
			continue
		}
		if fileHeader.Size > maxPhotoSize {
			s.logger.Warn("skipping photo over size limit",
				zap.Uint("film_id", filmID),
				zap.String("file", fileHeader.Filename),
				zap.Int64("size", fileHeader.Size),
			)
			continue
		}

		src, err := fileHeader.Open()
		if err != nil {
			s.logger.Warn("skipping unreadable photo",
				zap.Uint("film_id", filmID),
				zap.String("file", fileHeader.Filename),
				zap.Error(err),
			)
			continue
		}

		key := fmt.Sprintf("%s%d_%d%s", photoPrefix(filmID),
			time.Now().UnixNano(), i, photoExt(fileHeader.Filename))
		err = s.photoStore.Upload(key, src)
		src.Close()
		if err != nil {
			s.logger.Warn("skipping photo after storage failure",
				zap.Uint("film_id", filmID),
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
	}

	count, err := s.countPhotos(filmID)
	if err != nil {
		return nil, err
	}

	film.PhotosCount = count
	if film.Status == models.FilmStatusPendingUpload && count > 0 {
		film.Status = models.FilmStatusUploading
	}
	if err := s.filmRepo.Update(film); err != nil {
		return nil, err
	}

	return film, nil
}

// ListPhotos returns the film's photos with short-lived view URLs for the
// review step.
func (s *FilmService) ListPhotos(filmID, userID uint) ([]models.PhotoResponse, error) {
	if _, err := s.GetFilm(filmID, userID); err != nil {
		return nil, err
	}

	objects, err := s.photoStore.List(photoPrefix(filmID))
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	responses := make([]models.PhotoResponse, 0, len(objects))
	for _, obj := range objects {
		viewURL, err := s.photoStore.PresignGet(obj.Key, photoViewExpiry)
		if err != nil {
			s.logger.Warn("failed to sign photo view URL",
				zap.String("key", obj.Key),
				zap.Error(err),
			)
			continue
		}
		responses = append(responses, models.PhotoResponse{
			Name: path.Base(obj.Key),
			Size: obj.Size,
			URL:  viewURL,
		})
	}

	return responses, nil
}

// DeletePhoto removes a single photo before submission. The count may drop
// below the minimum; the floor is only enforced at submit time.
func (s *FilmService) DeletePhoto(filmID, userID uint, name string) (*models.Film, error) {
	film, err := s.GetFilm(filmID, userID)
	if err != nil {
		return nil, err
	}
	if !film.Status.Open() {
		return nil, ErrFilmNotOpen
	}
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil, ErrInvalidPhotoName
	}

	if err := s.photoStore.Delete(photoPrefix(filmID) + name); err != nil {
		return nil, fmt.Errorf("failed to delete photo: %w", err)
	}

	count, err := s.countPhotos(filmID)
	if err != nil {
		return nil, err
	}

	film.PhotosCount = count
	if err := s.filmRepo.Update(film); err != nil {
		return nil, err
	}

	return film, nil
}

// SubmitFilm freezes the photo set in the given order and hands the film to
// the render worker. Each photo is renamed to its 1-based position — the
// canonical {filmID}/{n}.{ext} layout is the worker's only ordering signal.
// Per-photo rename failures are skipped so one bad object cannot block the
// whole submission; a render dispatch failure leaves the film in processing
// for out-of-band retry.
func (s *FilmService) SubmitFilm(filmID, userID uint, orderedPhotos []string) (*models.Film, error) {
	film, err := s.GetFilm(filmID, userID)
	if err != nil {
		return nil, err
	}
	if !film.Status.Open() {
		return nil, ErrFilmNotOpen
	}
	if len(orderedPhotos) < MinPhotos {
		return nil, ErrInsufficientPhotos
	}
	if len(orderedPhotos) > MaxPhotos {
		return nil, ErrTooManyPhotos
	}

	for position, name := range orderedPhotos {
		if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
			return nil, ErrInvalidPhotoName
		}
		srcKey := photoPrefix(filmID) + name
		dstKey := fmt.Sprintf("%s%d%s", photoPrefix(filmID), position+1, photoExt(name))
		if srcKey == dstKey {
			continue
		}
		if err := s.photoStore.Move(srcKey, dstKey); err != nil {
			s.logger.Warn("failed to move photo to canonical position",
				zap.Uint("film_id", filmID),
				zap.String("src", srcKey),
				zap.String("dst", dstKey),
				zap.Error(err),
			)
		}
	}

	film.Status = models.FilmStatusProcessing
	film.PhotosCount = len(orderedPhotos)
	if err := s.filmRepo.Update(film); err != nil {
		return nil, err
	}

	// The uploading -> processing transition above happens once per film,
	// which is what keeps this consume from running twice.
	if err := s.orderRepo.ConsumeFilm(film.OrderID); err != nil {
		s.logger.Error("failed to consume film from order",
			zap.Uint("film_id", filmID),
			zap.Uint("order_id", film.OrderID),
			zap.Error(err),
		)
	}

	machineID, err := s.dispatcher.Dispatch(film)
	if err != nil {
		s.logger.Error("failed to dispatch film to render worker",
			zap.Uint("film_id", filmID),
			zap.Error(err),
		)
		return film, nil
	}

	s.logger.Info("film submitted for generation",
		zap.Uint("film_id", filmID),
		zap.Int("photos", len(orderedPhotos)),
		zap.String("machine_id", machineID),
	)

	return film, nil
}

func (s *FilmService) countPhotos(filmID uint) (int, error) {
	objects, err := s.photoStore.List(photoPrefix(filmID))
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return len(objects), nil
}

func photoPrefix(filmID uint) string {
	return fmt.Sprintf("films/%d/", filmID)
}

func photoExt(filename string) string {
	return strings.ToLower(path.Ext(filename))
}

func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/heic": true,
		"image/heif": true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
