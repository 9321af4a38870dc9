package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boltnexus/middleware"
	"boltnexus/services"
	"boltnexus/utils"
)

// LoginRequest contains technician credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CompleteJobRequest contains the technician's completion report
type CompleteJobRequest struct {
	TechnicianID    *uint   `json:"technician_id"`
	Notes           string  `json:"notes"`
	PartsReplaced   string  `json:"parts_replaced"`
	VerifiedSavings float64 `json:"verified_savings"`
}

type TechnicianController struct {
	responder
	technicians *services.TechnicianService
	bookings    *services.BookingService
}

func NewTechnicianController(technicians *services.TechnicianService, bookings *services.BookingService, exposeErrors bool) *TechnicianController {
	return &TechnicianController{
		responder:   responder{exposeErrors: exposeErrors},
		technicians: technicians,
		bookings:    bookings,
	}
}

// Login authenticates a technician and returns a JWT token
func (tc *TechnicianController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidRequest)
		return
	}

	res, err := tc.technicians.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		tc.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Jobs lists a technician's bookings; ?status= filters, "all" by default
func (tc *TechnicianController) Jobs(c *gin.Context) {
	technicianID, ok := paramID(c, "id")
	if !ok {
		badRequest(c, msgInvalidTechnician)
		return
	}

	if callerID, isTech := technicianCaller(c); isTech && callerID != technicianID {
		c.JSON(http.StatusForbidden, gin.H{"error": msgPermissionDenied})
		return
	}

	jobs, err := tc.bookings.TechnicianJobs(c.Request.Context(), technicianID, c.DefaultQuery("status", "all"))
	if err != nil {
		tc.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// CompleteJob closes a confirmed booking with the technician's notes
func (tc *TechnicianController) CompleteJob(c *gin.Context) {
	bookingID, ok := paramID(c, "id")
	if !ok {
		badRequest(c, msgInvalidBookingID)
		return
	}

	var req CompleteJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidRequest)
		return
	}

	if callerID, isTech := technicianCaller(c); isTech {
		if req.TechnicianID != nil && *req.TechnicianID != callerID {
			c.JSON(http.StatusForbidden, gin.H{"error": msgPermissionDenied})
			return
		}
		req.TechnicianID = &callerID
	}

	err := tc.bookings.CompleteJob(c.Request.Context(), services.CompleteJobInput{
		BookingID:       bookingID,
		TechnicianID:    req.TechnicianID,
		Notes:           req.Notes,
		PartsReplaced:   req.PartsReplaced,
		VerifiedSavings: req.VerifiedSavings,
	})
	if err != nil {
		tc.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msgJobCompleted})
}

// technicianCaller reports the caller's id when a technician token was presented
func technicianCaller(c *gin.Context) (uint, bool) {
	role, _ := c.Get(middleware.ContextRole)
	if role != utils.RoleTechnician {
		return 0, false
	}
	return middleware.StaffID(c)
}
