package database

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a booking cannot move to the requested state
var ErrInvalidTransition = errors.New("invalid booking state transition")

// BookingState is the single source of truth for a booking's lifecycle. The
// payment status is implied by the state, so a paid booking that is still
// pending cannot be represented.
//
//	pending   -> status pending,   payment pending
//	confirmed -> status confirmed, payment paid
//	completed -> status completed, payment paid
type BookingState string

const (
	BookingStatePending   BookingState = "pending"
	BookingStateConfirmed BookingState = "confirmed"
	BookingStateCompleted BookingState = "completed"
)

// Payment status values exposed on bookings
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Status is the booking status exposed to clients
func (s BookingState) Status() string {
	return string(s)
}

// PaymentStatus is derived from the state
func (s BookingState) PaymentStatus() string {
	if s == BookingStatePending {
		return PaymentStatusPending
	}
	return PaymentStatusPaid
}

// Valid reports whether s is a known state
func (s BookingState) Valid() bool {
	switch s {
	case BookingStatePending, BookingStateConfirmed, BookingStateCompleted:
		return true
	}
	return false
}

// Pay moves a pending booking to confirmed
func (s BookingState) Pay() (BookingState, error) {
	if s != BookingStatePending {
		return s, fmt.Errorf("%w: cannot confirm payment for a %s booking", ErrInvalidTransition, s)
	}
	return BookingStateConfirmed, nil
}

// Complete moves a confirmed booking to completed
func (s BookingState) Complete() (BookingState, error) {
	if s != BookingStateConfirmed {
		return s, fmt.Errorf("%w: cannot complete a %s booking", ErrInvalidTransition, s)
	}
	return BookingStateCompleted, nil
}
