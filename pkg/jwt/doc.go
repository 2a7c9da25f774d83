// Package jwt signs and validates the RS256 bearer tokens the PlanTogether
// API issues at login.
//
// A Service is built from PEM key files. The private key is only needed by
// processes that mint tokens; validation-only consumers can load just the
// public key:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/jwt.pem",
//	    PublicKeyPath:  "keys/jwt.pub",
//	    Issuer:         "api.plantogether.app",
//	    ExpirationMins: 15,
//	})
//
// Signing stamps the issuer and timestamps onto the claims:
//
//	token, err := svc.Sign(jwt.Claims{
//	    Subject: user.ID,
//	    UserID:  user.ID,
//	    Email:   user.Email,
//	    Name:    user.Name,
//	    Role:    string(user.Role),
//	})
//
// Validation verifies the signature, expiry, and issuer:
//
//	claims, err := svc.Validate(token)
//	if errors.Is(err, jwt.ErrTokenExpired) { ... }
//
// Tokens carry the holder's display name and role so request handling can
// authorize host and admin actions without a user lookup.
package jwt
