package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boltnexus/database"
	"boltnexus/utils"
)

type LoginResult struct {
	Token      string              `json:"token"`
	Technician database.Technician `json:"technician"`
}

// TechnicianService authenticates technicians
type TechnicianService struct {
	db        *gorm.DB
	jwtSecret string
	tokenTTL  time.Duration
}

func NewTechnicianService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *TechnicianService {
	return &TechnicianService{db: db, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Login checks the password and issues a technician token
func (s *TechnicianService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := utils.GetLoggerWith(utils.LoggerNameBooking)

	var tech database.Technician
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&tech).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if tech.PasswordHash == "" || !utils.CheckPasswordHash(password, tech.PasswordHash) {
		log.Warn("Technician login rejected", zap.Uint("technician_id", tech.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := utils.IssueStaffToken(s.jwtSecret, tech.ID, tech.Email, utils.RoleTechnician, time.Now().Add(s.tokenTTL))
	if err != nil {
		return nil, err
	}

	log.Info("Technician logged in", zap.Uint("technician_id", tech.ID))
	return &LoginResult{Token: token, Technician: tech}, nil
}
