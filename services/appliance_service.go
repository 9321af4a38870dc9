package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"boltnexus/database"
	"boltnexus/metrics"
	"boltnexus/scoring"
	"boltnexus/utils"
)

const (
	recentBookingsLimit = 5
	ageingBatchSize     = 100
)

// Contact identifies the appliance owner; Email is the upsert key
type Contact struct {
	Name  string
	Email string
	Phone string
	City  string
}

type ApplianceInput struct {
	ApplianceType      string
	BrandModel         string
	UsageHoursPerDay   float64
	MonthsSinceService int
}

type RegisterInput struct {
	Contact
	ApplianceInput
	ApplianceAgeYears      int
	CurrentBill            float64
	MaintenanceProbability float64
}

type DiagnosticInput struct {
	Contact
	ApplianceInput
	// YearOfPurchase of zero means unknown
	YearOfPurchase int
}

// ScoreResult is what a client sees after its appliance has been scored
type ScoreResult struct {
	UserID             uint           `json:"user_id"`
	ApplianceID        uint           `json:"appliance_id"`
	DiagnosticID       uint           `json:"diagnostic_id,omitempty"`
	HealthScore        int            `json:"health_score"`
	EnergyLossPerMonth float64        `json:"energy_loss_per_month"`
	EstimatedSavings   float64        `json:"estimated_savings"`
	Recommendations    []string       `json:"recommendations"`
	Pricing            scoring.Prices `json:"pricing"`
}

type RegisterResult struct {
	ScoreResult
	MaintenanceProbability float64 `json:"maintenance_probability"`
	CurrentBill            float64 `json:"current_bill"`
	Message                string  `json:"message"`
}

type Dashboard struct {
	Appliances               []database.Appliance `json:"appliances"`
	Bookings                 []database.Booking   `json:"bookings"`
	TotalPotentialSavings    float64              `json:"total_potential_savings"`
	AppliancesNeedingService int                  `json:"appliances_needing_service"`
}

// ApplianceService scores and stores appliances
type ApplianceService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewApplianceService(db *gorm.DB) *ApplianceService {
	return &ApplianceService{db: db, now: time.Now}
}

type evaluation struct {
	applianceType   scoring.ApplianceType
	healthScore     int
	energyLoss      float64
	savings         float64
	recommendations []string
}

func evaluate(in ApplianceInput, yearOfPurchase, currentYear int) evaluation {
	t := scoring.ParseApplianceType(in.ApplianceType)
	score := scoring.HealthScore(t, in.MonthsSinceService, in.UsageHoursPerDay, yearOfPurchase, currentYear)
	loss := scoring.EnergyLoss(t, score, in.UsageHoursPerDay)
	return evaluation{
		applianceType:   t,
		healthScore:     score,
		energyLoss:      loss,
		savings:         scoring.EstimatedSavings(loss),
		recommendations: scoring.Recommendations(t, score, in.MonthsSinceService),
	}
}

func (e evaluation) result(userID, applianceID uint) ScoreResult {
	return ScoreResult{
		UserID:             userID,
		ApplianceID:        applianceID,
		HealthScore:        e.healthScore,
		EnergyLossPerMonth: e.energyLoss,
		EstimatedSavings:   e.savings,
		Recommendations:    e.recommendations,
		Pricing:            scoring.PricingFor(e.applianceType),
	}
}

// Register scores an appliance and stores it under the user identified by email,
// creating the user on first sight.
func (s *ApplianceService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	log := utils.GetLoggerWith(utils.LoggerNameAppliance)

	currentYear := s.now().Year()
	eval := evaluate(in.ApplianceInput, currentYear-in.ApplianceAgeYears, currentYear)

	var user database.User
	var appliance database.Appliance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = upsertUser(tx, in.Contact); err != nil {
			return err
		}
		appliance = newAppliance(user.ID, in.ApplianceInput, eval, currentYear-in.ApplianceAgeYears, database.ApplianceStatusActive)
		if err := tx.Create(&appliance).Error; err != nil {
			return fmt.Errorf("create appliance: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("Registration failed", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	metrics.ObserveScore(metrics.SourceRegister, eval.healthScore)
	log.Info("Appliance registered",
		zap.Uint("user_id", user.ID),
		zap.Uint("appliance_id", appliance.ID),
		zap.Int("health_score", eval.healthScore),
	)

	return &RegisterResult{
		ScoreResult:            eval.result(user.ID, appliance.ID),
		MaintenanceProbability: in.MaintenanceProbability,
		CurrentBill:            in.CurrentBill,
		Message:                "Registration successful! Your appliance has been analyzed.",
	}, nil
}

// RunDiagnostic scores an appliance, stores it and appends a diagnostic snapshot
func (s *ApplianceService) RunDiagnostic(ctx context.Context, in DiagnosticInput) (*ScoreResult, error) {
	log := utils.GetLoggerWith(utils.LoggerNameAppliance)

	eval := evaluate(in.ApplianceInput, in.YearOfPurchase, s.now().Year())
	status := database.ApplianceStatusActive
	if eval.healthScore < scoring.NeedsServiceThreshold {
		status = database.ApplianceStatusNeedsService
	}

	var res ScoreResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := upsertUser(tx, in.Contact)
		if err != nil {
			return err
		}

		appliance := newAppliance(user.ID, in.ApplianceInput, eval, in.YearOfPurchase, status)
		if err := tx.Create(&appliance).Error; err != nil {
			return fmt.Errorf("create appliance: %w", err)
		}

		diagnostic := database.Diagnostic{
			UserID:             user.ID,
			ApplianceID:        appliance.ID,
			HealthScore:        eval.healthScore,
			EnergyLossPerMonth: eval.energyLoss,
			EstimatedSavings:   eval.savings,
			Recommendations:    strings.Join(eval.recommendations, "\n"),
		}
		if err := tx.Create(&diagnostic).Error; err != nil {
			return fmt.Errorf("create diagnostic: %w", err)
		}

		res = eval.result(user.ID, appliance.ID)
		res.DiagnosticID = diagnostic.ID
		return nil
	})
	if err != nil {
		log.Error("Diagnostic failed", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	metrics.ObserveScore(metrics.SourceDiagnostic, eval.healthScore)
	log.Info("Diagnostic recorded",
		zap.Uint("diagnostic_id", res.DiagnosticID),
		zap.Uint("appliance_id", res.ApplianceID),
		zap.Int("health_score", res.HealthScore),
	)
	return &res, nil
}

func newAppliance(userID uint, in ApplianceInput, eval evaluation, yearOfPurchase int, status database.ApplianceStatus) database.Appliance {
	return database.Appliance{
		UserID:             userID,
		ApplianceType:      string(eval.applianceType),
		BrandModel:         in.BrandModel,
		YearOfPurchase:     yearOfPurchase,
		UsageHoursPerDay:   in.UsageHoursPerDay,
		MonthsSinceService: in.MonthsSinceService,
		HealthScore:        eval.healthScore,
		EnergyLossPerMonth: eval.energyLoss,
		Status:             status,
	}
}

// upsertUser inserts the user unless the email is taken, then reads it back.
// Contact details of an existing user are left as they are.
func upsertUser(tx *gorm.DB, c Contact) (database.User, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return database.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	candidate := database.User{Name: c.Name, Email: email, Phone: c.Phone, City: c.City}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&candidate).Error
	if err != nil {
		return database.User{}, fmt.Errorf("upsert user: %w", err)
	}

	var user database.User
	if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
		return database.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *ApplianceService) GetUser(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListAppliances returns the user's appliances, newest first
func (s *ApplianceService) ListAppliances(ctx context.Context, userID uint) ([]database.Appliance, error) {
	appliances := []database.Appliance{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&appliances).Error
	return appliances, err
}

func (s *ApplianceService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	db := s.db.WithContext(ctx)

	d := Dashboard{Appliances: []database.Appliance{}, Bookings: []database.Booking{}}
	if err := db.Where("user_id = ?", userID).Order("id").Find(&d.Appliances).Error; err != nil {
		return nil, err
	}

	err := db.Preload("Appliance").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(recentBookingsLimit).
		Find(&d.Bookings).Error
	if err != nil {
		return nil, err
	}

	var totalLoss float64
	for _, a := range d.Appliances {
		totalLoss += a.EnergyLossPerMonth
		if a.HealthScore < scoring.NeedsServiceThreshold {
			d.AppliancesNeedingService++
		}
	}
	d.TotalPotentialSavings = scoring.Round2(totalLoss * scoring.SavingsRatio)

	return &d, nil
}

// AgeAppliances advances every appliance not awaiting a visit by one month and
// rescores it. Active appliances that drop below the service threshold are
// flagged. An appliance is aged at most once per calendar month of now, so a
// repeated sweep, or one run by another instance, changes nothing. Returns the
// number of appliances updated.
func (s *ApplianceService) AgeAppliances(ctx context.Context, now time.Time) (int, error) {
	log := utils.GetLoggerWith(utils.LoggerNameScheduler)

	db := s.db.WithContext(ctx)
	period := ageingPeriodStart(now)

	updated, skipped := 0, 0
	var batch []database.Appliance
	res := db.Where("status <> ?", database.ApplianceStatusServiceScheduled).
		Where("(last_aged_at IS NULL OR last_aged_at < ?)", period).
		FindInBatches(&batch, ageingBatchSize, func(_ *gorm.DB, _ int) error {
			for _, a := range batch {
				ok, err := ageAppliance(db, a, now, period)
				if err != nil {
					return err
				}
				if !ok {
					skipped++
					continue
				}
				updated++
			}
			return nil
		})
	if res.Error != nil {
		log.Error("Appliance ageing failed", zap.Int("updated", updated), zap.Error(res.Error))
		return updated, res.Error
	}

	log.Info("Appliance ageing completed", zap.Int("updated", updated), zap.Int("skipped", skipped))
	return updated, nil
}

// ageAppliance writes the aged values only if the row still holds what was read.
// A row changed since (payment verified, job completed, aged elsewhere) is left
// alone and reported as not updated.
func ageAppliance(db *gorm.DB, a database.Appliance, now, period time.Time) (bool, error) {
	months := a.MonthsSinceService + 1
	eval := evaluate(ApplianceInput{
		ApplianceType:      a.ApplianceType,
		UsageHoursPerDay:   a.UsageHoursPerDay,
		MonthsSinceService: months,
	}, a.YearOfPurchase, now.Year())

	status := a.Status
	if status == database.ApplianceStatusActive && eval.healthScore < scoring.NeedsServiceThreshold {
		status = database.ApplianceStatusNeedsService
	}

	res := db.Model(&database.Appliance{}).
		Where("id = ? AND status = ? AND months_since_service = ?", a.ID, a.Status, a.MonthsSinceService).
		Where("(last_aged_at IS NULL OR last_aged_at < ?)", period).
		Updates(map[string]interface{}{
			"months_since_service":  months,
			"health_score":          eval.healthScore,
			"energy_loss_per_month": eval.energyLoss,
			"status":                status,
			"last_aged_at":          now.UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("age appliance %d: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	metrics.ObserveScore(metrics.SourceAging, eval.healthScore)
	return true, nil
}

// ageingPeriodStart is the first instant of now's calendar month, in UTC
func ageingPeriodStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).UTC()
}
