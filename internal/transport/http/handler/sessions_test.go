package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/occamy/fieldops-api/internal/application/session"
	"github.com/occamy/fieldops-api/internal/config"
	"github.com/occamy/fieldops-api/internal/domain"
	jwtinfra "github.com/occamy/fieldops-api/internal/infrastructure/jwt"
	"github.com/occamy/fieldops-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req session.LoginRequest) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionSvc) LoginWithGoogle(ctx context.Context, idToken string) (*session.LoginResult, error) {
	args := m.Called(ctx, idToken)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionSvc) RedeemReceipt(ctx context.Context, receiptToken string) (*session.LoginResult, error) {
	args := m.Called(ctx, receiptToken)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionSvc) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockSessionSvc) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionSvc) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.String(1), args.Error(2)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given userID and role.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, userID string, role domain.Role, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(userID, role, "sess1")
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

func loginResult(userID string, role domain.Role) *session.LoginResult {
	u := &domain.User{UserID: userID, Role: role, Enable: true}
	return &session.LoginResult{
		Bearer:       "bearer-token",
		RefreshToken: "refresh-token",
		Session:      &domain.Session{SessionID: "s1", UserID: userID, User: u},
	}
}

// --- Login ---

func TestLogin_HappyPath(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Login", mock.Anything, session.LoginRequest{Username: "admin", Password: "secret123"}).
		Return(loginResult("u1", domain.RoleAdmin), nil)
	h := NewSessionHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, postJSON("/v1/sessions/login", map[string]string{"username": "admin", "password": "secret123"}))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "bearer-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, domain.RoleAdmin, resp.User.Role)
	svc.AssertExpectations(t)
}

func TestLogin_MissingFields(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{})
	rr := httptest.NewRecorder()
	h.Login(rr, postJSON("/v1/sessions/login", map[string]string{"username": "admin"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, domain.ErrUnauthorized)
	h := NewSessionHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, postJSON("/v1/sessions/login", map[string]string{"username": "admin", "password": "wrong"}))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// --- LoginWithGoogle ---

func TestLoginWithGoogle_HappyPath(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("LoginWithGoogle", mock.Anything, "id-token").Return(loginResult("u1", domain.RoleOfficer), nil)
	h := NewSessionHandler(svc)

	rr := httptest.NewRecorder()
	h.LoginWithGoogle(rr, postJSON("/v1/sessions/google", map[string]string{"id_token": "id-token"}))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLoginWithGoogle_MissingToken(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{})
	rr := httptest.NewRecorder()
	h.LoginWithGoogle(rr, postJSON("/v1/sessions/google", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- Farmer ---

func TestFarmer_RedeemsCookieReceipt(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("RedeemReceipt", mock.Anything, "receipt-token").Return(loginResult("u1", domain.RoleFarmer), nil)
	h := NewSessionHandler(svc)

	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/farmer", nil)
	r.AddCookie(&http.Cookie{Name: FarmerAuthCookie, Value: "receipt-token"})
	rr := httptest.NewRecorder()
	h.Farmer(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	// The spent receipt cookie must be cleared.
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, FarmerAuthCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
	svc.AssertExpectations(t)
}

func TestFarmer_BodyReceiptFallback(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("RedeemReceipt", mock.Anything, "receipt-token").Return(loginResult("u1", domain.RoleFarmer), nil)
	h := NewSessionHandler(svc)

	rr := httptest.NewRecorder()
	h.Farmer(rr, postJSON("/v1/sessions/farmer", map[string]string{"receipt": "receipt-token"}))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestFarmer_MissingReceipt(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{})
	rr := httptest.NewRecorder()
	h.Farmer(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions/farmer", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFarmer_SpentReceipt(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("RedeemReceipt", mock.Anything, "spent").Return(nil, domain.ErrUnauthorized)
	h := NewSessionHandler(svc)

	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/farmer", nil)
	r.AddCookie(&http.Cookie{Name: FarmerAuthCookie, Value: "spent"})
	rr := httptest.NewRecorder()
	h.Farmer(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// --- Refresh ---

func TestRefresh_HappyPath(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Refresh", mock.Anything, "old-token").Return("new-bearer", "new-refresh", nil)
	h := NewSessionHandler(svc)

	rr := httptest.NewRecorder()
	h.Refresh(rr, postJSON("/v1/sessions/refresh", map[string]string{"refresh_token": "old-token"}))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "new-bearer", resp.AccessToken)
	assert.Equal(t, "new-refresh", resp.RefreshToken)
}

func TestRefresh_MissingToken(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{})
	rr := httptest.NewRecorder()
	h.Refresh(rr, postJSON("/v1/sessions/refresh", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- GetCurrent / Logout ---

func TestGetCurrent_MissingClaims(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{})
	rr := httptest.NewRecorder()
	h.GetCurrent(rr, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetCurrent_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSessionSvc{}
	svc.On("GetCurrent", mock.Anything, "sess1").Return(&domain.Session{
		SessionID: "sess1", UserID: "u1",
		User: &domain.User{UserID: "u1", Role: domain.RoleFarmer},
	}, nil)
	h := NewSessionHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/sessions", "u1", domain.RoleFarmer, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.GetCurrent), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp SessionEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Session)
	assert.Equal(t, "sess1", resp.Session.ID)
	svc.AssertExpectations(t)
}

func TestLogout_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSessionSvc{}
	svc.On("Logout", mock.Anything, "sess1").Return(nil)
	h := NewSessionHandler(svc)

	r := bearerReq(t, p, http.MethodPost, "/v1/sessions/logout", "u1", domain.RoleFarmer, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Logout), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
