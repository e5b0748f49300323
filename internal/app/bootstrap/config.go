// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Kolo.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: KOLO_MONGO_URI, KOLO_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kolo", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "kolo-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "jwt_secret", Default: "dev-only-change-me-too-0123456789ABCDEF", Desc: "Signing secret for API bearer tokens"},
	{Name: "jwt_expiry", Default: "24h", Desc: "API bearer token lifetime (e.g., 24h, 30m)"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth callbacks and invite links"},
	{Name: "cors_allowed_origins", Default: "http://localhost:5173", Desc: "Comma-separated origins allowed by CORS"},

	{Name: "audit_log_governance", Default: "all", Desc: "Governance event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_auth", Default: "log", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "default_currency", Default: "NGN", Desc: "Currency for newly provisioned wallets"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, KOLO_* for app), and
// command-line flags, merging with precedence: flags > env > files >
// defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "KOLO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		JWTSecret: appValues.String("jwt_secret"),
		JWTExpiry: appValues.Duration("jwt_expiry", 24*time.Hour),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL:            appValues.String("base_url"),
		CORSAllowedOrigins: appValues.String("cors_allowed_origins"),

		AuditLogGovernance: appValues.String("audit_log_governance"),
		AuditLogAuth:       appValues.String("audit_log_auth"),

		DefaultCurrency: appValues.String("default_currency"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Kolo validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
			return fmt.Errorf("session_key must be changed for production")
		}
		if appCfg.JWTSecret == "dev-only-change-me-too-0123456789ABCDEF" {
			return fmt.Errorf("jwt_secret must be changed for production")
		}
	}

	return nil
}
