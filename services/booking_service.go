package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boltnexus/database"
	"boltnexus/locks"
	"boltnexus/metrics"
	"boltnexus/payments"
	"boltnexus/scoring"
	"boltnexus/utils"
)

const jobStatusAll = "all"

type CreateBookingInput struct {
	UserID        uint
	ApplianceID   uint
	ServiceType   string
	ScheduledDate time.Time
}

type BookingResult struct {
	Booking         database.Booking `json:"booking"`
	PaymentRequired bool             `json:"payment_required"`
	Amount          float64          `json:"amount"`
}

type CreateOrderInput struct {
	BookingID uint
	// Amount of zero means the booking's amount
	Amount float64
	// UserID of zero skips the ownership check
	UserID uint
}

type PaymentOrder struct {
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Key       string  `json:"key"`
	PaymentID uint    `json:"payment_id"`
}

type VerifyPaymentInput struct {
	PaymentID         uint
	BookingID         uint
	RazorpayOrderID   string
	RazorpayPaymentID string
	Signature         string
}

type CompleteJobInput struct {
	BookingID       uint
	TechnicianID    *uint
	Notes           string
	PartsReplaced   string
	VerifiedSavings float64
}

// BookingService drives a booking from creation through payment to completion.
// Transitions that touch several records run under a per-booking lock and
// inside one transaction.
type BookingService struct {
	db      *gorm.DB
	gateway payments.Gateway
	locker  locks.Locker
}

func NewBookingService(db *gorm.DB, gateway payments.Gateway, locker locks.Locker) *BookingService {
	return &BookingService{db: db, gateway: gateway, locker: locker}
}

// Create books a service visit for an appliance owned by the user. The first
// available technician is assigned, if any.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*BookingResult, error) {
	log := utils.GetLoggerWith(utils.LoggerNameBooking)
	db := s.db.WithContext(ctx)

	var appliance database.Appliance
	if err := db.First(&appliance, in.ApplianceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplianceNotFound
		}
		return nil, err
	}
	if appliance.UserID != in.UserID {
		return nil, ErrApplianceNotFound
	}

	applianceType := scoring.ParseApplianceType(appliance.ApplianceType)
	booking := database.Booking{
		UserID:        in.UserID,
		ApplianceID:   appliance.ID,
		ServiceType:   in.ServiceType,
		ApplianceType: string(applianceType),
		ScheduledDate: in.ScheduledDate,
		ServiceAmount: scoring.ServiceAmount(applianceType, in.ServiceType),
		State:         database.BookingStatePending,
	}

	var technician database.Technician
	err := db.Where("status = ?", database.TechnicianStatusAvailable).Order("id").First(&technician).Error
	switch {
	case err == nil:
		booking.TechnicianID = &technician.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Warn("No available technician, booking left unassigned", zap.Uint("appliance_id", appliance.ID))
	default:
		return nil, err
	}

	if err := db.Create(&booking).Error; err != nil {
		log.Error("Failed to create booking", zap.Error(err))
		return nil, err
	}

	metrics.IncBookingCreated(in.ServiceType)
	log.Info("Booking created",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("user_id", booking.UserID),
		zap.Float64("amount", booking.ServiceAmount),
	)

	return &BookingResult{Booking: booking, PaymentRequired: true, Amount: booking.ServiceAmount}, nil
}

// ListForUser returns the user's bookings, newest first
func (s *BookingService) ListForUser(ctx context.Context, userID uint) ([]database.Booking, error) {
	bookings := []database.Booking{}
	err := s.db.WithContext(ctx).
		Preload("Appliance").
		Preload("Technician").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	return bookings, err
}

// CreatePaymentOrder raises a gateway order for a pending booking and records
// a pending payment against it.
func (s *BookingService) CreatePaymentOrder(ctx context.Context, in CreateOrderInput) (*PaymentOrder, error) {
	log := utils.GetLoggerWith(utils.LoggerNamePayment)
	db := s.db.WithContext(ctx)

	booking, err := findBooking(db, in.BookingID)
	if err != nil {
		return nil, err
	}
	if in.UserID != 0 && in.UserID != booking.UserID {
		return nil, ErrBookingNotFound
	}
	if booking.State != database.BookingStatePending {
		return nil, fmt.Errorf("%w: booking %d is already %s", ErrInvalidTransition, booking.ID, booking.State)
	}

	amount := booking.ServiceAmount
	if in.Amount != 0 && scoring.Round2(in.Amount) != scoring.Round2(amount) {
		return nil, fmt.Errorf("%w: got %.2f, booking is %.2f", ErrAmountMismatch, in.Amount, amount)
	}

	orderID, err := s.gateway.CreateOrder(ctx, amount, database.CurrencyINR, fmt.Sprintf("booking_%d", booking.ID))
	if err != nil {
		log.Error("Payment order creation failed", zap.Uint("booking_id", booking.ID), zap.Error(err))
		return nil, err
	}

	payment := database.Payment{
		BookingID:       booking.ID,
		UserID:          booking.UserID,
		RazorpayOrderID: orderID,
		Amount:          amount,
		Currency:        database.CurrencyINR,
		Status:          database.PaymentRecordPending,
	}
	if err := db.Create(&payment).Error; err != nil {
		log.Error("Failed to record payment", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	log.Info("Payment order created",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("payment_id", payment.ID),
		zap.String("order_id", orderID),
	)

	return &PaymentOrder{
		OrderID:   orderID,
		Amount:    amount,
		Currency:  payment.Currency,
		Key:       s.gateway.KeyID(),
		PaymentID: payment.ID,
	}, nil
}

// VerifyPayment checks the gateway signature, then marks the payment successful,
// confirms the booking and schedules the appliance, all or nothing.
func (s *BookingService) VerifyPayment(ctx context.Context, in VerifyPaymentInput) error {
	log := utils.GetLoggerWith(utils.LoggerNamePayment,
		zap.Uint("booking_id", in.BookingID),
		zap.Uint("payment_id", in.PaymentID),
	)

	var payment database.Payment
	if err := s.db.WithContext(ctx).First(&payment, in.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	if payment.BookingID != in.BookingID {
		metrics.IncPaymentVerified(metrics.ResultRejected)
		return ErrPaymentBookingMismatch
	}

	orderID := payment.RazorpayOrderID
	if in.RazorpayOrderID != "" && in.RazorpayOrderID != orderID {
		metrics.IncPaymentVerified(metrics.ResultInvalidSignature)
		return fmt.Errorf("%w: order id does not match payment", ErrInvalidSignature)
	}
	if !s.gateway.VerifySignature(orderID, in.RazorpayPaymentID, in.Signature) {
		metrics.IncPaymentVerified(metrics.ResultInvalidSignature)
		log.Warn("Payment signature rejected")
		return ErrInvalidSignature
	}

	unlock, err := s.locker.Lock(ctx, locks.BookingKey(in.BookingID))
	if err != nil {
		return fmt.Errorf("lock booking: %w", err)
	}
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := findBooking(tx, in.BookingID)
		if err != nil {
			return err
		}

		next, err := booking.State.Pay()
		if err != nil {
			return err
		}

		res := tx.Model(&database.Payment{}).
			Where("id = ? AND status = ?", payment.ID, database.PaymentRecordPending).
			Updates(map[string]interface{}{
				"razorpay_payment_id": in.RazorpayPaymentID,
				"razorpay_signature":  in.Signature,
				"status":              database.PaymentRecordSuccess,
			})
		if res.Error != nil {
			return fmt.Errorf("update payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: payment %d is not pending", ErrInvalidTransition, payment.ID)
		}

		if err := transition(tx, booking, next); err != nil {
			return err
		}

		return updateAppliance(tx, booking.ApplianceID, map[string]interface{}{
			"status": database.ApplianceStatusServiceScheduled,
		})
	})
	if err != nil {
		metrics.IncPaymentVerified(metrics.ResultRejected)
		log.Error("Payment verification failed", zap.Error(err))
		return err
	}

	metrics.IncPaymentVerified(metrics.ResultSuccess)
	log.Info("Payment verified and booking confirmed")
	return nil
}

// TechnicianJobs lists a technician's bookings by scheduled date. status is
// "all" (or empty) or one of the booking statuses.
func (s *BookingService) TechnicianJobs(ctx context.Context, technicianID uint, status string) ([]database.Booking, error) {
	q := s.db.WithContext(ctx).
		Preload("User").
		Preload("Appliance").
		Where("technician_id = ?", technicianID)

	if status != "" && status != jobStatusAll {
		state := database.BookingState(status)
		if !state.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
		q = q.Where("state = ?", state)
	}

	jobs := []database.Booking{}
	err := q.Order("scheduled_date ASC, id ASC").Find(&jobs).Error
	return jobs, err
}

// CompleteJob closes a paid booking, appends the technician's notes and resets
// the appliance to its post-service condition.
func (s *BookingService) CompleteJob(ctx context.Context, in CompleteJobInput) error {
	log := utils.GetLoggerWith(utils.LoggerNameBooking, zap.Uint("booking_id", in.BookingID))

	unlock, err := s.locker.Lock(ctx, locks.BookingKey(in.BookingID))
	if err != nil {
		return fmt.Errorf("lock booking: %w", err)
	}
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := findBooking(tx, in.BookingID)
		if err != nil {
			return err
		}

		technicianID := in.TechnicianID
		if booking.TechnicianID != nil {
			if technicianID != nil && *technicianID != *booking.TechnicianID {
				return ErrTechnicianMismatch
			}
			technicianID = booking.TechnicianID
		}

		next, err := booking.State.Complete()
		if err != nil {
			return err
		}
		if err := transition(tx, booking, next); err != nil {
			return err
		}

		note := database.ServiceNote{
			BookingID:       booking.ID,
			TechnicianID:    technicianID,
			Notes:           in.Notes,
			PartsReplaced:   in.PartsReplaced,
			VerifiedSavings: in.VerifiedSavings,
		}
		if err := tx.Create(&note).Error; err != nil {
			return fmt.Errorf("create service note: %w", err)
		}

		var appliance database.Appliance
		if err := tx.First(&appliance, booking.ApplianceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplianceNotFound
			}
			return err
		}

		t := scoring.ParseApplianceType(appliance.ApplianceType)
		return updateAppliance(tx, appliance.ID, map[string]interface{}{
			"status":                database.ApplianceStatusServiced,
			"health_score":          scoring.PostServiceHealthScore,
			"months_since_service":  0,
			"energy_loss_per_month": scoring.EnergyLoss(t, scoring.PostServiceHealthScore, appliance.UsageHoursPerDay),
		})
	})
	if err != nil {
		log.Error("Job completion failed", zap.Error(err))
		return err
	}

	metrics.IncJobCompleted()
	log.Info("Job completed")
	return nil
}

func findBooking(db *gorm.DB, id uint) (*database.Booking, error) {
	var booking database.Booking
	if err := db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// transition moves the booking to next only if nobody else has moved it since it was read
func transition(tx *gorm.DB, booking *database.Booking, next database.BookingState) error {
	res := tx.Model(&database.Booking{}).
		Where("id = ? AND state = ?", booking.ID, booking.State).
		Update("state", next)
	if res.Error != nil {
		return fmt.Errorf("update booking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: booking %d changed concurrently", ErrInvalidTransition, booking.ID)
	}
	booking.State = next
	return nil
}

func updateAppliance(tx *gorm.DB, id uint, fields map[string]interface{}) error {
	res := tx.Model(&database.Appliance{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update appliance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrApplianceNotFound
	}
	return nil
}
