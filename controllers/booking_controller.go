package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boltnexus/services"
)

// CreateBookingRequest contains data for booking a service visit
type CreateBookingRequest struct {
	UserID        uint   `json:"user_id" binding:"required"`
	ApplianceID   uint   `json:"appliance_id" binding:"required"`
	ServiceType   string `json:"service_type" binding:"required"`
	ScheduledDate string `json:"scheduled_date" binding:"required"`
}

type BookingController struct {
	responder
	bookings *services.BookingService
}

func NewBookingController(bookings *services.BookingService, exposeErrors bool) *BookingController {
	return &BookingController{responder: responder{exposeErrors: exposeErrors}, bookings: bookings}
}

// CreateBooking books a visit and reports the amount payable
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidRequest)
		return
	}

	scheduled, ok := parseScheduledDate(req.ScheduledDate)
	if !ok {
		badRequest(c, msgInvalidDate)
		return
	}

	res, err := bc.bookings.Create(c.Request.Context(), services.CreateBookingInput{
		UserID:        req.UserID,
		ApplianceID:   req.ApplianceID,
		ServiceType:   req.ServiceType,
		ScheduledDate: scheduled,
	})
	if err != nil {
		bc.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// ListBookings returns a user's bookings with appliance and technician
func (bc *BookingController) ListBookings(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		badRequest(c, msgInvalidUserID)
		return
	}

	bookings, err := bc.bookings.ListForUser(c.Request.Context(), userID)
	if err != nil {
		bc.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}
