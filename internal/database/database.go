package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/susumutomita/LabQuiz/internal/config"
	"github.com/susumutomita/LabQuiz/internal/logger"
	"github.com/susumutomita/LabQuiz/internal/models"
)

func Connect(cfg *config.Config, log *logger.Logger) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}

	log.Info("database connected", "host", cfg.DBHost, "name", cfg.DBName)
	return db
}

func AutoMigrate(db *gorm.DB, log *logger.Logger) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Quiz{},
		&models.Scenario{},
		&models.Answer{},
		&models.Badge{},
	)
	if err != nil {
		log.Fatal("failed to auto-migrate", "error", err)
	}
	log.Info("database migrated")
}
