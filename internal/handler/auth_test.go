package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/plantogether/api/internal/middleware"
	"github.com/plantogether/api/internal/model"
	"github.com/plantogether/api/internal/service"
	"github.com/plantogether/api/pkg/jwt"
)

// ============================================================
// In-memory repositories
// ============================================================

type memUserRepo struct {
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (m *memUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = "user:" + user.Email
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	if u, ok := m.users[userID]; ok {
		u.Hash = &hash
	}
	return nil
}

func (m *memUserRepo) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	if u, ok := m.users[userID]; ok {
		u.Role = role
	}
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) seed(t *testing.T, name, email, password string, role model.UserRole) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	hashStr := string(hash)
	user := &model.User{
		ID:    "user:" + email,
		Name:  name,
		Email: email,
		Hash:  &hashStr,
		Role:  role,
	}
	m.users[user.ID] = user
	return user
}

type memTokenRepo struct {
	tokens map[string]*service.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*service.RefreshToken)}
}

func (m *memTokenRepo) CreateRefreshToken(ctx context.Context, token *service.RefreshToken) error {
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *memTokenRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (*service.RefreshToken, error) {
	return m.tokens[hash], nil
}

func (m *memTokenRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	if tok, ok := m.tokens[hash]; ok {
		tok.Revoked = true
	}
	return nil
}

func (m *memTokenRepo) RevokeAllUserTokens(ctx context.Context, userID string) error {
	for _, tok := range m.tokens {
		if tok.UserID == userID {
			tok.Revoked = true
		}
	}
	return nil
}

func (m *memTokenRepo) DeleteExpiredTokens(ctx context.Context) error {
	return nil
}

// ============================================================
// Test Helpers
// ============================================================

type authTestEnv struct {
	handler  *AuthHandler
	userRepo *memUserRepo
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	jwtService := jwt.NewTestService(privateKey, "test-issuer", time.Hour)

	userRepo := newMemUserRepo()
	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwtService,
		TokenRepo:  newMemTokenRepo(),
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:     userRepo,
		TokenService: tokenService,
	})

	return &authTestEnv{
		handler:  NewAuthHandler(authService),
		userRepo: userRepo,
	}
}

func makeJSONRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUserContext(req *http.Request, user model.CurrentUser) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, user.ID)
	ctx = context.WithValue(ctx, middleware.CurrentUserKey, user)
	return req.WithContext(ctx)
}

func parseErrorResponse(t *testing.T, body []byte) *model.ProblemDetails {
	t.Helper()
	var problem model.ProblemDetails
	if err := json.Unmarshal(body, &problem); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	return &problem
}

// ============================================================
// Register
// ============================================================

func TestRegisterHandler_ValidInput_ReturnsCreated(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)

	req := makeJSONRequest(http.MethodPost, "/v1/auth/register", model.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	rr := httptest.NewRecorder()
	env.handler.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			User  model.User        `json:"user"`
			Token service.TokenPair `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Data.User.Email != "alice@example.com" {
		t.Errorf("unexpected user email %q", resp.Data.User.Email)
	}
	if resp.Data.Token.AccessToken == "" {
		t.Error("expected an access token")
	}
}

func TestRegisterHandler_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	env.handler.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestRegisterHandler_DuplicateEmail_ReturnsConflict(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	env.userRepo.seed(t, "Alice", "alice@example.com", "correct-horse", model.UserRoleUser)

	req := makeJSONRequest(http.MethodPost, "/v1/auth/register", model.RegisterRequest{
		Name:     "Imposter",
		Email:    "alice@example.com",
		Password: "battery-staple",
	})
	rr := httptest.NewRecorder()
	env.handler.Register(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRegisterHandler_ShortPassword_ReturnsValidationError(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)

	req := makeJSONRequest(http.MethodPost, "/v1/auth/register", model.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	rr := httptest.NewRecorder()
	env.handler.Register(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
	problem := parseErrorResponse(t, rr.Body.Bytes())
	if problem.Code != model.ErrCodeValidation {
		t.Errorf("expected validation error code, got %d", problem.Code)
	}
}

// ============================================================
// Login
// ============================================================

func TestLoginHandler_ValidCredentials_ReturnsTokens(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	env.userRepo.seed(t, "Alice", "alice@example.com", "correct-horse", model.UserRoleUser)

	req := makeJSONRequest(http.MethodPost, "/v1/auth/login", model.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	rr := httptest.NewRecorder()
	env.handler.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLoginHandler_WrongPassword_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	env.userRepo.seed(t, "Alice", "alice@example.com", "correct-horse", model.UserRoleUser)

	req := makeJSONRequest(http.MethodPost, "/v1/auth/login", model.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	rr := httptest.NewRecorder()
	env.handler.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestLoginHandler_UnknownEmail_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)

	req := makeJSONRequest(http.MethodPost, "/v1/auth/login", model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	rr := httptest.NewRecorder()
	env.handler.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

// ============================================================
// Refresh
// ============================================================

func TestRefreshHandler_MissingToken_ReturnsValidationError(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)

	req := makeJSONRequest(http.MethodPost, "/v1/auth/refresh", RefreshRequest{})
	rr := httptest.NewRecorder()
	env.handler.Refresh(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rr.Code)
	}
}

func TestRefreshHandler_RoundTrip(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	env.userRepo.seed(t, "Alice", "alice@example.com", "correct-horse", model.UserRoleUser)

	// Login to obtain a refresh token
	loginReq := makeJSONRequest(http.MethodPost, "/v1/auth/login", model.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	loginRR := httptest.NewRecorder()
	env.handler.Login(loginRR, loginReq)
	if loginRR.Code != http.StatusOK {
		t.Fatalf("login failed: %d", loginRR.Code)
	}

	var loginResp struct {
		Data struct {
			Token service.TokenPair `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(loginRR.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("failed to parse login response: %v", err)
	}

	req := makeJSONRequest(http.MethodPost, "/v1/auth/refresh", RefreshRequest{
		RefreshToken: loginResp.Data.Token.RefreshToken,
	})
	rr := httptest.NewRecorder()
	env.handler.Refresh(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// The same refresh token is single use
	replay := makeJSONRequest(http.MethodPost, "/v1/auth/refresh", RefreshRequest{
		RefreshToken: loginResp.Data.Token.RefreshToken,
	})
	replayRR := httptest.NewRecorder()
	env.handler.Refresh(replayRR, replay)

	if replayRR.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 on token reuse, got %d", replayRR.Code)
	}
}

// ============================================================
// Logout / Me
// ============================================================

func TestLogoutHandler_Unauthenticated_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)

	req := makeJSONRequest(http.MethodPost, "/v1/auth/logout", nil)
	rr := httptest.NewRecorder()
	env.handler.Logout(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestLogoutHandler_Authenticated_ReturnsNoContent(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	user := env.userRepo.seed(t, "Alice", "alice@example.com", "correct-horse", model.UserRoleUser)

	req := withUserContext(makeJSONRequest(http.MethodPost, "/v1/auth/logout", nil), model.CurrentUser{
		ID: user.ID, Name: user.Name, Role: user.Role,
	})
	rr := httptest.NewRecorder()
	env.handler.Logout(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
}

func TestMeHandler_ReturnsCurrentUser(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	user := env.userRepo.seed(t, "Alice", "alice@example.com", "correct-horse", model.UserRoleUser)

	req := withUserContext(httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil), model.CurrentUser{
		ID: user.ID, Name: user.Name, Role: user.Role,
	})
	rr := httptest.NewRecorder()
	env.handler.Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Data model.User `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Data.Email != "alice@example.com" {
		t.Errorf("unexpected email %q", resp.Data.Email)
	}
}

func TestMeHandler_UnknownUser_ReturnsNotFound(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)

	req := withUserContext(httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil), model.CurrentUser{
		ID: "user:ghost", Name: "Ghost", Role: model.UserRoleUser,
	})
	rr := httptest.NewRecorder()
	env.handler.Me(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

// ============================================================
// ChangePassword
// ============================================================

func TestChangePasswordHandler_WrongOldPassword_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	user := env.userRepo.seed(t, "Alice", "alice@example.com", "correct-horse", model.UserRoleUser)

	req := withUserContext(makeJSONRequest(http.MethodPost, "/v1/auth/password", ChangePasswordRequest{
		OldPassword: "wrong-password",
		NewPassword: "battery-staple-9",
	}), model.CurrentUser{ID: user.ID, Name: user.Name, Role: user.Role})
	rr := httptest.NewRecorder()
	env.handler.ChangePassword(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestChangePasswordHandler_Success_ReturnsNoContent(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	user := env.userRepo.seed(t, "Alice", "alice@example.com", "correct-horse", model.UserRoleUser)

	req := withUserContext(makeJSONRequest(http.MethodPost, "/v1/auth/password", ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "battery-staple-9",
	}), model.CurrentUser{ID: user.ID, Name: user.Name, Role: user.Role})
	rr := httptest.NewRecorder()
	env.handler.ChangePassword(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ============================================================
// SetRole
// ============================================================

func TestSetRoleHandler_AdminPromotesUser(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	admin := env.userRepo.seed(t, "Admin", "admin@example.com", "correct-horse", model.UserRoleAdmin)
	target := env.userRepo.seed(t, "Bob", "bob@example.com", "correct-horse", model.UserRoleUser)

	req := withUserContext(makeJSONRequest(http.MethodPut, "/v1/users/"+target.ID+"/role", SetRoleRequest{
		Role: "admin",
	}), model.CurrentUser{ID: admin.ID, Name: admin.Name, Role: admin.Role})
	req.SetPathValue("userId", target.ID)
	rr := httptest.NewRecorder()
	env.handler.SetRole(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if env.userRepo.users[target.ID].Role != model.UserRoleAdmin {
		t.Error("expected target to be promoted to admin")
	}
}

func TestSetRoleHandler_NonAdmin_ReturnsForbidden(t *testing.T) {
	t.Parallel()
	env := newAuthTestEnv(t)
	actor := env.userRepo.seed(t, "Carol", "carol@example.com", "correct-horse", model.UserRoleUser)
	target := env.userRepo.seed(t, "Bob", "bob@example.com", "correct-horse", model.UserRoleUser)

	req := withUserContext(makeJSONRequest(http.MethodPut, "/v1/users/"+target.ID+"/role", SetRoleRequest{
		Role: "admin",
	}), model.CurrentUser{ID: actor.ID, Name: actor.Name, Role: actor.Role})
	req.SetPathValue("userId", target.ID)
	rr := httptest.NewRecorder()
	env.handler.SetRole(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rr.Code)
	}
}
