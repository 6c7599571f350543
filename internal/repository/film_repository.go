package repository

import (
	"github.com/movila/flashback-backend/internal/models"
	"gorm.io/gorm"
)

type FilmRepository struct {
	db *gorm.DB
}

func NewFilmRepository(db *gorm.DB) *FilmRepository {
	return &FilmRepository{db: db}
}

func (r *FilmRepository) Create(film *models.Film) error {
	return r.db.Create(film).Error
}

func (r *FilmRepository) GetByID(id uint) (*models.Film, error) {
	var film models.Film
	err := r.db.First(&film, id).Error
	if err != nil {
		return nil, err
	}
	return &film, nil
}

// GetOpenFilm returns the most recently created film for the order that is
// still accepting photos. The partial unique index keeps this to one row.
func (r *FilmRepository) GetOpenFilm(orderID uint) (*models.Film, error) {
	var film models.Film
	err := r.db.Where("order_id = ? AND status IN ?", orderID,
		[]models.FilmStatus{models.FilmStatusPendingUpload, models.FilmStatusUploading}).
		Order("created_at DESC").
		First(&film).Error
	if err != nil {
		return nil, err
	}
	return &film, nil
}

func (r *FilmRepository) GetUserFilms(userID uint) ([]models.Film, error) {
	var films []models.Film
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&films).Error
	return films, err
}

func (r *FilmRepository) Update(film *models.Film) error {
	return r.db.Save(film).Error
}

// MarkCompleted flips the film to completed and records its output file in
// one conditional UPDATE, so it succeeds at most once per film. Returns
// gorm.ErrRecordNotFound when the film is missing or already completed.
func (r *FilmRepository) MarkCompleted(filmID uint, outputFile string) error {
	result := r.db.Model(&models.Film{}).
		Where("id = ? AND status <> ?", filmID, models.FilmStatusCompleted).
		Updates(map[string]interface{}{
			"status":      models.FilmStatusCompleted,
			"output_file": outputFile,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
