// Package config manages application configuration for the PlanTogether API.
//
// The config package loads and validates configuration from environment
// variables, with an optional .env file loaded first. All configuration is
// centralized here to provide a single source of truth.
//
// # Configuration Loading
//
// Configuration is loaded from environment variables:
//
//	cfg, err := config.Load()
//
// # Configuration Groups
//
// Configuration is organized into logical groups:
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS)
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: JWT signing and validation settings
//   - AppConfig: Canonical URLs and the calendar UID domain
//   - JobsConfig: Background job schedules
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT          - HTTP server port (default: 8080)
//	DB_HOST              - SurrealDB host
//	DB_USER              - Database username
//	DB_PASSWORD          - Database password
//	DB_NAMESPACE         - Database namespace
//	DB_DATABASE          - Database name
//	JWT_PRIVATE_KEY_PATH - RSA private key for token signing
//	JWT_EXPIRATION_MINS  - Token expiration in minutes
//	APP_BASE_URL         - Canonical web address for event links
//	JOBS_DEADLINE_CRON   - Cron spec for the deadline notifier
//
// # Default Values
//
// Sensible defaults are provided for development:
//
//	func getEnv(key, defaultValue string) string {
//	    if value := os.Getenv(key); value != "" {
//	        return value
//	    }
//	    return defaultValue
//	}
package config
