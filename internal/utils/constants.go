package utils

import "time"

// Application Constants
const (
	AppName    = "CarRental"
	AppVersion = "1.0.0"

	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL = time.Hour
	PasswordMaxLength = 128

	// Chat
	MaxMessageLength  = 1000
	UserSearchLimit   = 10
	ChatFrameDeadline = 10 * time.Second

	// File Upload
	MaxImageSize = 10 * 1024 * 1024 // 10MB
	JPEGQuality  = 85
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrInvalidToken       = "invalid token"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrValidationFailed   = "validation failed"
	ErrFileUploadFailed   = "file upload failed"
)

// Cache Keys
const (
	CacheLoginAttemptPrefix = "login_attempts:"
)

// Event Types
const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCompleted = "booking.completed"
	EventBookingCancelled = "booking.cancelled"
)

// File Types
var (
	AllowedImageTypes = []string{"jpg", "jpeg", "png", "gif"}
)
