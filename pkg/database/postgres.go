package database

import (
	"log"
	"os"

	"github.com/movila/flashback-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase() *gorm.DB {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func RunMigrations(db *gorm.DB) error {
	// The partial unique index on films (order_id where status is open)
	// enforces at most one resumable film per order.
	return db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Film{},
		&models.LoginToken{},
	)
}
