package services

import (
	"errors"

	"boltnexus/database"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUserNotFound           = errors.New("user not found")
	ErrApplianceNotFound      = errors.New("appliance not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrInvalidSignature       = errors.New("invalid payment signature")
	ErrAmountMismatch         = errors.New("amount does not match booking")
	ErrPaymentBookingMismatch = errors.New("payment does not belong to booking")
	ErrTechnicianMismatch     = errors.New("job is assigned to another technician")
	ErrInvalidCredentials     = errors.New("invalid email or password")

	// ErrInvalidTransition is returned for out-of-order booking events
	ErrInvalidTransition = database.ErrInvalidTransition
)
