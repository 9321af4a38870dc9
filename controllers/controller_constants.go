package controllers

// Error messages returned to clients
const (
	msgInvalidRequest      = "Invalid request data"
	msgInvalidUserID       = "Invalid user ID"
	msgInvalidBookingID    = "Invalid booking ID"
	msgInvalidTechnician   = "Invalid technician ID"
	msgInvalidDate         = "scheduled_date must be YYYY-MM-DD or RFC3339"
	msgServerError         = "Server error"
	msgPermissionDenied    = "Permission denied"
	msgPaymentVerified     = "Payment verified and booking confirmed!"
	msgJobCompleted        = "Job marked as completed!"
	msgServiceRunning      = "Bolt Nexus API is running! ⚡"
	msgDatabaseUnavailable = "Database unavailable"
)

// Accepted scheduled_date layouts
var scheduledDateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}
