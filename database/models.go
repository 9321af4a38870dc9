package database

import (
	"encoding/json"
	"time"
)

// User owns appliances and bookings; email is the natural key
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone     string    `gorm:"size:30" json:"phone"`
	City      string    `gorm:"size:100" json:"city"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Appliance is a scored household appliance
type Appliance struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	ApplianceType      string          `gorm:"size:50;not null" json:"appliance_type"`
	BrandModel         string          `gorm:"size:255" json:"brand_model"`
	YearOfPurchase     int             `json:"year_of_purchase"`
	UsageHoursPerDay   float64         `json:"usage_hours_per_day"`
	MonthsSinceService int             `json:"months_since_service"`
	HealthScore        int             `gorm:"not null;check:health_score BETWEEN 0 AND 100" json:"health_score"`
	EnergyLossPerMonth float64         `gorm:"type:numeric(10,2)" json:"energy_loss_per_month"`
	Status             ApplianceStatus `gorm:"size:30;not null;default:active" json:"status"`
	LastAgedAt         *time.Time      `gorm:"index" json:"last_aged_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	User               *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Technician is a service worker assignable to bookings
type Technician struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	Name         string           `gorm:"size:255" json:"name"`
	Phone        string           `gorm:"size:30" json:"phone"`
	Email        string           `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash string           `json:"-"`
	Status       TechnicianStatus `gorm:"size:20;not null;default:available;index" json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Booking is a service visit; see BookingState for its lifecycle
type Booking struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"not null;index" json:"user_id"`
	ApplianceID   uint         `gorm:"not null;index" json:"appliance_id"`
	TechnicianID  *uint        `gorm:"index" json:"technician_id"`
	ServiceType   string       `gorm:"size:30" json:"service_type"`
	ApplianceType string       `gorm:"size:50" json:"appliance_type"`
	ScheduledDate time.Time    `gorm:"index" json:"scheduled_date"`
	ServiceAmount float64      `gorm:"type:numeric(10,2)" json:"service_amount"`
	State         BookingState `gorm:"size:20;not null;default:pending;index" json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	User          *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Appliance     *Appliance   `gorm:"foreignKey:ApplianceID" json:"appliance,omitempty"`
	Technician    *Technician  `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
}

// MarshalJSON exposes the state as the status / payment_status pair clients expect
func (b Booking) MarshalJSON() ([]byte, error) {
	type booking Booking
	return json.Marshal(struct {
		booking
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}{
		booking:       booking(b),
		Status:        b.State.Status(),
		PaymentStatus: b.State.PaymentStatus(),
	})
}

// Payment is a gateway order raised for a booking
type Payment struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	BookingID         uint          `gorm:"not null;index" json:"booking_id"`
	UserID            uint          `gorm:"index" json:"user_id"`
	RazorpayOrderID   string        `gorm:"size:100;index" json:"razorpay_order_id"`
	RazorpayPaymentID string        `gorm:"size:100" json:"razorpay_payment_id"`
	RazorpaySignature string        `gorm:"size:255" json:"-"`
	Amount            float64       `gorm:"type:numeric(10,2)" json:"amount"`
	Currency          string        `gorm:"size:10;not null;default:INR" json:"currency"`
	Status            PaymentStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Diagnostic is an append-only scoring snapshot
type Diagnostic struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index" json:"user_id"`
	ApplianceID        uint      `gorm:"not null;index" json:"appliance_id"`
	HealthScore        int       `json:"health_score"`
	EnergyLossPerMonth float64   `gorm:"type:numeric(10,2)" json:"energy_loss_per_month"`
	EstimatedSavings   float64   `gorm:"type:numeric(10,2)" json:"estimated_savings"`
	Recommendations    string    `gorm:"type:text" json:"recommendations"`
	CreatedAt          time.Time `json:"created_at"`
}

// ServiceNote is an append-only record of a completed job
type ServiceNote struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BookingID       uint      `gorm:"not null;index" json:"booking_id"`
	TechnicianID    *uint     `gorm:"index" json:"technician_id"`
	Notes           string    `gorm:"type:text" json:"notes"`
	PartsReplaced   string    `gorm:"type:text" json:"parts_replaced"`
	VerifiedSavings float64   `gorm:"type:numeric(10,2)" json:"verified_savings"`
	CreatedAt       time.Time `json:"created_at"`
}

type ApplianceStatus string

const (
	ApplianceStatusActive           ApplianceStatus = "active"
	ApplianceStatusNeedsService     ApplianceStatus = "needs_service"
	ApplianceStatusServiceScheduled ApplianceStatus = "service_scheduled"
	ApplianceStatusServiced         ApplianceStatus = "serviced"
)

type TechnicianStatus string

const (
	TechnicianStatusAvailable TechnicianStatus = "available"
	TechnicianStatusBusy      TechnicianStatus = "busy"
	TechnicianStatusOffline   TechnicianStatus = "offline"
)

type PaymentStatus string

const (
	PaymentRecordPending PaymentStatus = "pending"
	PaymentRecordSuccess PaymentStatus = "success"
)

const CurrencyINR = "INR"
