package controllers

import (
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
	"github.com/gin-gonic/gin"

	"boltnexus/services"
)

// RegisterRequest is the body of POST /api/register
type RegisterRequest struct {
	Name                   string  `json:"name" zog:"name"`
	Email                  string  `json:"email" zog:"email"`
	Phone                  string  `json:"phone" zog:"phone"`
	City                   string  `json:"city" zog:"city"`
	ApplianceType          string  `json:"appliance_type" zog:"appliance_type"`
	BrandModel             string  `json:"brand_model" zog:"brand_model"`
	ApplianceAgeYears      int     `json:"appliance_age_years" zog:"appliance_age_years"`
	UsageHoursPerDay       float64 `json:"usage_hours_per_day" zog:"usage_hours_per_day"`
	MonthsSinceService     int     `json:"months_since_service" zog:"months_since_service"`
	CurrentBill            float64 `json:"current_bill" zog:"current_bill"`
	MaintenanceProbability float64 `json:"maintenance_probability" zog:"maintenance_probability"`
}

var registerRequestSchema = z.Struct(z.Shape{
	"Name":                   z.String(),
	"Email":                  z.String().Email().Required(),
	"Phone":                  z.String(),
	"City":                   z.String(),
	"ApplianceType":          z.String().Required(),
	"BrandModel":             z.String(),
	"ApplianceAgeYears":      z.Int().GTE(0).Default(2),
	"UsageHoursPerDay":       z.Float64().GTE(0).LTE(24),
	"MonthsSinceService":     z.Int().GTE(0),
	"CurrentBill":            z.Float64().Default(3000),
	"MaintenanceProbability": z.Float64(),
})

// DiagnosticRequest is the body of POST /api/diagnostic
type DiagnosticRequest struct {
	Name               string  `json:"name" zog:"name"`
	Email              string  `json:"email" zog:"email"`
	Phone              string  `json:"phone" zog:"phone"`
	City               string  `json:"city" zog:"city"`
	ApplianceType      string  `json:"appliance_type" zog:"appliance_type"`
	BrandModel         string  `json:"brand_model" zog:"brand_model"`
	YearOfPurchase     int     `json:"year_of_purchase" zog:"year_of_purchase"`
	UsageHoursPerDay   float64 `json:"usage_hours_per_day" zog:"usage_hours_per_day"`
	MonthsSinceService int     `json:"months_since_service" zog:"months_since_service"`
}

var diagnosticRequestSchema = z.Struct(z.Shape{
	"Name":               z.String(),
	"Email":              z.String().Email().Required(),
	"Phone":              z.String(),
	"City":               z.String(),
	"ApplianceType":      z.String().Required(),
	"BrandModel":         z.String(),
	"YearOfPurchase":     z.Int().GTE(0),
	"UsageHoursPerDay":   z.Float64().GTE(0).LTE(24),
	"MonthsSinceService": z.Int().GTE(0),
})

// ApplianceController serves registration, diagnostics and the user views
type ApplianceController struct {
	responder
	appliances *services.ApplianceService
}

func NewApplianceController(appliances *services.ApplianceService, exposeErrors bool) *ApplianceController {
	return &ApplianceController{responder: responder{exposeErrors: exposeErrors}, appliances: appliances}
}

// Register scores a new appliance for a user identified by email
func (ac *ApplianceController) Register(c *gin.Context) {
	var req RegisterRequest
	if errs := registerRequestSchema.Parse(zhttp.Request(c.Request), &req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest, "details": errs})
		return
	}

	res, err := ac.appliances.Register(c.Request.Context(), services.RegisterInput{
		Contact: services.Contact{Name: req.Name, Email: req.Email, Phone: req.Phone, City: req.City},
		ApplianceInput: services.ApplianceInput{
			ApplianceType:      req.ApplianceType,
			BrandModel:         req.BrandModel,
			UsageHoursPerDay:   req.UsageHoursPerDay,
			MonthsSinceService: req.MonthsSinceService,
		},
		ApplianceAgeYears:      req.ApplianceAgeYears,
		CurrentBill:            req.CurrentBill,
		MaintenanceProbability: req.MaintenanceProbability,
	})
	if err != nil {
		ac.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// RunDiagnostic scores an appliance and records a diagnostic snapshot
func (ac *ApplianceController) RunDiagnostic(c *gin.Context) {
	var req DiagnosticRequest
	if errs := diagnosticRequestSchema.Parse(zhttp.Request(c.Request), &req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest, "details": errs})
		return
	}

	res, err := ac.appliances.RunDiagnostic(c.Request.Context(), services.DiagnosticInput{
		Contact: services.Contact{Name: req.Name, Email: req.Email, Phone: req.Phone, City: req.City},
		ApplianceInput: services.ApplianceInput{
			ApplianceType:      req.ApplianceType,
			BrandModel:         req.BrandModel,
			UsageHoursPerDay:   req.UsageHoursPerDay,
			MonthsSinceService: req.MonthsSinceService,
		},
		YearOfPurchase: req.YearOfPurchase,
	})
	if err != nil {
		ac.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (ac *ApplianceController) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		badRequest(c, msgInvalidUserID)
		return
	}

	user, err := ac.appliances.GetUser(c.Request.Context(), id)
	if err != nil {
		ac.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListAppliances returns a user's appliances, newest first
func (ac *ApplianceController) ListAppliances(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		badRequest(c, msgInvalidUserID)
		return
	}

	appliances, err := ac.appliances.ListAppliances(c.Request.Context(), userID)
	if err != nil {
		ac.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, appliances)
}

func (ac *ApplianceController) Dashboard(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		badRequest(c, msgInvalidUserID)
		return
	}

	dashboard, err := ac.appliances.Dashboard(c.Request.Context(), userID)
	if err != nil {
		ac.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
