package models

import (
	"time"
)

type FilmStatus string

const (
	FilmStatusPendingUpload FilmStatus = "pending_upload"
	FilmStatusUploading     FilmStatus = "uploading"
	FilmStatusProcessing    FilmStatus = "processing"
	FilmStatusCompleted     FilmStatus = "completed"
)

// Open reports whether the film still accepts photo changes.
func (s FilmStatus) Open() bool {
	return s == FilmStatusPendingUpload || s == FilmStatusUploading
}

type Film struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	OrderID     uint       `json:"order_id" gorm:"not null;index:idx_films_open_order,unique,where:status = 'pending_upload' OR status = 'uploading'"`
	UserID      uint       `json:"user_id" gorm:"not null;index"`
	Status      FilmStatus `json:"status" gorm:"not null;default:'pending_upload'"`
	PhotosCount int        `json:"photos_count" gorm:"not null;default:0"`
	OutputFile  string     `json:"output_file"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ResumeFilmRequest struct {
	OrderID uint `json:"order_id" validate:"required"`
}

type SubmitFilmRequest struct {
	Photos []string `json:"photos" validate:"required"`
}

type PhotoResponse struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type GenerationRunData struct {
	FilmID          string   `json:"film_id"`
	Status          string   `json:"status"`
	Photos          []string `json:"photos"`
	VideosGenerated int      `json:"videos_generated"`
	Skipped         []string `json:"skipped"`
	Warnings        []string `json:"warnings"`
	Error           string   `json:"error"`
	OutputFile      string   `json:"output_file"`
	StartedAt       string   `json:"started_at"`
	EndedAt         string   `json:"ended_at"`
	DurationSeconds float64  `json:"duration_seconds"`
}

type GenerationCallbackRequest struct {
	VideoID       string            `json:"video_id"`
	VideoFilename string            `json:"video_filename"`
	RunData       GenerationRunData `json:"run_data"`
}
