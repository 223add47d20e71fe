package repositories

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mkeremcifci/CloudDrive/internal/config"
	"github.com/mkeremcifci/CloudDrive/internal/models"
)

var DB *gorm.DB

func ConnectDatabase(logger *zap.Logger) {
	dsn := config.Envs.DB_URL
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	// Run migrations
	err = db.AutoMigrate(
		&models.User{},
		&models.File{},
		&models.ShareLink{},
	)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	DB = db
	logger.Info("connected to database")
}
