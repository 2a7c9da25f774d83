package model

import "time"

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleUser  UserRole = "user"  // Default role: vote, comment, RSVP
	UserRoleAdmin UserRole = "admin" // Can create, edit, and delete events
)

// User represents a user account
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Hash      *string   `json:"-"` // Never expose password hash
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CurrentUser is the authenticated identity threaded through service calls.
// Services receive it explicitly rather than reading ambient auth state.
type CurrentUser struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

// IsAdmin returns true if the current user has admin role
func (c CurrentUser) IsAdmin() bool {
	return c.Role == UserRoleAdmin
}

// TokenClaims represents extracted JWT claims
type TokenClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Constraints
const (
	MaxUserNameLength = 100
	MinPasswordLength = 8
)

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks if the register request is valid
func (r *RegisterRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > MaxUserNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
	}
	if r.Email == "" {
		errors = append(errors, FieldError{Field: "email", Message: "email is required"})
	}
	if len(r.Password) < MinPasswordLength {
		errors = append(errors, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	return errors
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks if the login request is valid
func (r *LoginRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Email == "" {
		errors = append(errors, FieldError{Field: "email", Message: "email is required"})
	}
	if r.Password == "" {
		errors = append(errors, FieldError{Field: "password", Message: "password is required"})
	}

	return errors
}

// AuthResponse is returned on successful registration or login
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
