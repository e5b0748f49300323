// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP/HTTPS ports,
// TLS, logging level, request limits). AppConfig is everything specific to
// Kolo: database connection, session and token secrets, OAuth credentials,
// and domain defaults.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Bearer tokens for API/mobile clients
	JWTSecret string
	JWTExpiry time.Duration

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks and invite links
	BaseURL string

	// CORS origins allowed to call the API (comma-separated)
	CORSAllowedOrigins string

	// Audit logging settings: "all" (db+log), "db", "log", or "off"
	AuditLogGovernance string
	AuditLogAuth       string

	// Default currency for new wallets (ISO 4217)
	DefaultCurrency string
}
