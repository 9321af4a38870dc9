package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boltnexus/services"
)

// CreateOrderRequest contains data for creating a Razorpay order
type CreateOrderRequest struct {
	BookingID uint    `json:"booking_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"gte=0"`
	UserID    uint    `json:"user_id"`
}

// PaymentVerificationRequest contains data for verifying a payment
type PaymentVerificationRequest struct {
	PaymentID         uint   `json:"payment_id" binding:"required"`
	BookingID         uint   `json:"booking_id" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature         string `json:"razorpay_signature" binding:"required"`
}

type PaymentController struct {
	responder
	bookings *services.BookingService
}

func NewPaymentController(bookings *services.BookingService, exposeErrors bool) *PaymentController {
	return &PaymentController{responder: responder{exposeErrors: exposeErrors}, bookings: bookings}
}

// CreateOrder raises a gateway order for a pending booking
func (pc *PaymentController) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidRequest)
		return
	}

	order, err := pc.bookings.CreatePaymentOrder(c.Request.Context(), services.CreateOrderInput{
		BookingID: req.BookingID,
		Amount:    req.Amount,
		UserID:    req.UserID,
	})
	if err != nil {
		pc.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// VerifyPayment verifies a completed Razorpay payment and confirms the booking
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req PaymentVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidRequest)
		return
	}

	err := pc.bookings.VerifyPayment(c.Request.Context(), services.VerifyPaymentInput{
		PaymentID:         req.PaymentID,
		BookingID:         req.BookingID,
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		Signature:         req.Signature,
	})
	if err != nil {
		pc.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msgPaymentVerified})
}
