package helpers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/model"
	"github.com/plantogether/api/pkg/jwt"
)

const testIssuer = "plantogether-test"

// NewTestJWTService returns a token service backed by a throwaway RSA key.
func NewTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("helpers: generating RSA key: %v", err)
	}
	return jwt.NewTestService(key, testIssuer, 15*time.Minute)
}

// JWTHelper mints bearer tokens for test users.
type JWTHelper struct {
	svc *jwt.Service
	t   *testing.T
}

// NewJWTHelper creates a token helper with its own in-memory signing key.
func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()
	return &JWTHelper{svc: NewTestJWTService(t), t: t}
}

// GenerateToken returns a valid token carrying the user's identity, name,
// and role.
func (h *JWTHelper) GenerateToken(user *model.User) string {
	h.t.Helper()
	token, err := h.svc.Sign(userClaims(user))
	if err != nil {
		h.t.Fatalf("helpers: signing token: %v", err)
	}
	return token
}

func userClaims(user *model.User) jwt.Claims {
	return jwt.Claims{
		Subject: user.ID,
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Role:    string(user.Role),
	}
}

// AssertRecordExists fails the test when table:id is missing from the
// database. The id may be bare or a full record id like "event:abc".
func AssertRecordExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()
	if !recordExists(t, db, table, id) {
		t.Errorf("expected %s:%s to exist", table, bareID(id))
	}
}

// AssertRecordNotExists fails the test when table:id is still present.
func AssertRecordNotExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()
	if recordExists(t, db, table, id) {
		t.Errorf("expected %s:%s to be gone", table, bareID(id))
	}
}

func recordExists(t *testing.T, db database.Database, table, id string) bool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := db.QueryOne(ctx, "SELECT * FROM type::record($table, $id)", map[string]interface{}{
		"table": table,
		"id":    bareID(id),
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, database.ErrNotFound):
		return false
	default:
		t.Fatalf("helpers: looking up %s:%s: %v", table, bareID(id), err)
		return false
	}
}

// bareID strips the table prefix from a full record id.
func bareID(id string) string {
	if _, rest, found := strings.Cut(id, ":"); found {
		return rest
	}
	return id
}

// Pointer helpers for optional request fields.

func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

func BoolPtr(b bool) *bool { return &b }
