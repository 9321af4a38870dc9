package database

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boltnexus/utils"
)

// Migrate creates or updates all tables
func Migrate(db *gorm.DB) error {
	log := utils.GetLoggerWith(utils.LoggerNameDatabase)
	log.Info("Running database migrations...")

	if err := db.AutoMigrate(
		&User{},
		&Appliance{},
		&Technician{},
		&Booking{},
		&Payment{},
		&Diagnostic{},
		&ServiceNote{},
	); err != nil {
		log.Error("Migration failed", zap.Error(err))
		return err
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// SeedDefaultTechnician creates an available technician if none exists. An empty
// password leaves the technician without login access.
func SeedDefaultTechnician(db *gorm.DB, email, password string) error {
	log := utils.GetLoggerWith(utils.LoggerNameDatabase)

	var count int64
	if err := db.Model(&Technician{}).Count(&count).Error; err != nil {
		log.Error("Failed to check existing technicians", zap.Error(err))
		return err
	}
	if count > 0 {
		log.Info("Technicians already exist, skipping seed", zap.Int64("count", count))
		return nil
	}
	if email == "" {
		return errors.New("default technician email is empty")
	}

	tech := Technician{
		Name:   "Default Technician",
		Email:  email,
		Phone:  "9999999999",
		Status: TechnicianStatusAvailable,
	}
	if password != "" {
		hash, err := utils.HashPassword(password)
		if err != nil {
			return err
		}
		tech.PasswordHash = hash
	}

	if err := db.Create(&tech).Error; err != nil {
		log.Error("Failed to create default technician", zap.Error(err))
		return err
	}

	log.Info("Default technician created", zap.Uint("id", tech.ID), zap.String("email", tech.Email))
	return nil
}
