package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	// Default to user role if not specified
	role := user.Role
	if role == "" {
		role = model.UserRoleUser
	}

	query := `
		CREATE user CONTENT {
			name: $name,
			email: $email,
			hash: IF $hash IS NOT NULL THEN $hash ELSE NONE END,
			role: $role,
			createdAt: time::now(),
			updatedAt: time::now()
		} RETURN AFTER`

	params := map[string]interface{}{
		"name":  user.Name,
		"email": user.Email,
		"hash":  ptrToNone(user.Hash),
		"role":  string(role),
	}

	result, err := r.db.QueryOne(ctx, query, params)
	if err != nil {
		if isUniqueConstraintError(err) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	// Extract the created record fields back into the model
	created, err := parseUserResult(result)
	if err != nil {
		return fmt.Errorf("failed to parse created user: %w", err)
	}

	user.ID = created.ID
	user.Role = created.Role
	user.CreatedAt = created.CreatedAt
	user.UpdatedAt = created.UpdatedAt
	return nil
}

// GetByID retrieves a user by their record ID.
// Returns (nil, nil) if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($user_id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"user_id": id,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return parseUserResult(result)
}

// GetByEmail retrieves a user by email.
// Returns (nil, nil) if no user has the email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = $email LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"email": email,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return parseUserResult(result)
}

// SetRole updates a user's role
func (r *UserRepository) SetRole(ctx context.Context, id string, role model.UserRole) error {
	query := `UPDATE type::record($user_id) SET role = $role, updatedAt = time::now()`
	err := r.db.Execute(ctx, query, map[string]interface{}{
		"user_id": id,
		"role":    string(role),
	})
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	return nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, hash string) error {
	query := `UPDATE type::record($user_id) SET hash = $hash, updatedAt = time::now()`
	err := r.db.Execute(ctx, query, map[string]interface{}{
		"user_id": id,
		"hash":    hash,
	})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($user_id)`
	err := r.db.Execute(ctx, query, map[string]interface{}{
		"user_id": id,
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// parseUserResult converts a SurrealDB result into a User.
// The hash field is extracted separately because it never travels in JSON.
func parseUserResult(result interface{}) (*model.User, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	var hash *string
	if h, ok := data["hash"].(string); ok && h != "" {
		hash = &h
	}

	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	normalizeTimes(data, "createdAt", "updatedAt")

	var user model.User
	if err := decodeRecord(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	user.Hash = hash
	return &user, nil
}

// ptrToNone converts a nil string pointer to nil interface for SurrealQL
func ptrToNone(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
