package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"boltnexus/config"
	"boltnexus/controllers"
	"boltnexus/metrics"
	"boltnexus/middleware"
	"boltnexus/services"
)

// Dependencies are the constructed services the routes are served from
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Appliances  *services.ApplianceService
	Bookings    *services.BookingService
	Technicians *services.TechnicianService
	// RateLimiter guards the public scoring endpoints; nil disables it
	RateLimiter *middleware.RateLimiterStore
}

// NewRouter builds the engine with CORS, request logging and all routes
func NewRouter(d Dependencies) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	origins := d.Config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: !allowsAnyOrigin(origins),
	}))

	SetupRoutes(r, d)
	return r
}

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, d Dependencies) {
	exposeErrors := d.Config.IsDevelopment()

	health := controllers.NewHealthController(d.DB)
	appliances := controllers.NewApplianceController(d.Appliances, exposeErrors)
	bookings := controllers.NewBookingController(d.Bookings, exposeErrors)
	payments := controllers.NewPaymentController(d.Bookings, exposeErrors)
	technicians := controllers.NewTechnicianController(d.Technicians, d.Bookings, exposeErrors)

	r.GET("/", health.Root)
	r.GET("/healthz", health.Healthz)

	metrics.Register()
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		limited := middleware.RateLimit(d.RateLimiter)
		api.POST("/register", limited, appliances.Register)
		api.POST("/diagnostic", limited, appliances.RunDiagnostic)

		api.GET("/users/:id", appliances.GetUser)
		api.GET("/appliances/:userId", appliances.ListAppliances)
		api.GET("/dashboard/:userId", appliances.Dashboard)

		api.POST("/bookings", bookings.CreateBooking)
		api.GET("/bookings/:userId", bookings.ListBookings)

		payment := api.Group("/payments")
		{
			payment.POST("/create-order", payments.CreateOrder)
			payment.POST("/verify", payments.VerifyPayment)
		}

		technician := api.Group("/technician")
		{
			technician.POST("/login", technicians.Login)

			jobs := technician.Group("")
			if d.Config.RequireTechnicianAuth {
				jobs.Use(middleware.AuthMiddleware(d.Config.JWTSecret), middleware.TechnicianAuthMiddleware())
			}
			jobs.GET("/:id/jobs", technicians.Jobs)
			jobs.POST("/jobs/:id/complete", technicians.CompleteJob)
		}
	}
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
