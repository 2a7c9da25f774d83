// Package middleware provides HTTP middleware for the PlanTogether API.
//
// The middleware package contains reusable middleware components for
// authentication, authorization, rate limiting, and request processing.
//
// # Available Middleware
//
// Core middleware components:
//
//   - Auth: JWT token validation and user extraction
//   - AdminAuth: Auth plus admin role enforcement
//   - OptionalAuth: Auth when a token is present, anonymous otherwise
//   - RateLimit: Request budget per authenticated user, per IP for anonymous callers
//   - Idempotency: replay of retried /v1/ writes via Idempotency-Key, 409 on key reuse with a new body
//   - RequestID, Logger, Recovery, CORS, Compress: request plumbing
//
// # Authentication
//
// The auth middleware validates JWT tokens and extracts user information:
//
//	protected := middleware.Auth(tokenService)(handler)
//
// After authentication, handlers can access user info:
//
//	user := middleware.GetCurrentUser(r.Context())
//
// # Rate Limiting
//
// Rate limiting protects against abuse:
//
//	limited := middleware.RateLimit(limiter)(handler)
//
// # Context Values
//
// Middleware sets context values accessible via helper functions:
//
//   - GetCurrentUser(ctx): Returns the authenticated user (zero value if anonymous)
//   - GetUserID(ctx): Returns authenticated user ID
//   - GetRequestID(ctx): Returns unique request identifier
package middleware
