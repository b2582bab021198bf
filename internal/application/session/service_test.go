package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/occamy/fieldops-api/internal/domain"
	"github.com/occamy/fieldops-api/internal/infrastructure/google"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	args := m.Called(ctx, refreshToken)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

type mockReceiptStore struct{ mock.Mock }

func (m *mockReceiptStore) TakeReceipt(ctx context.Context, receiptToken string, now time.Time) (*domain.VerificationReceipt, error) {
	args := m.Called(ctx, receiptToken, now)
	if r, _ := args.Get(0).(*domain.VerificationReceipt); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, token string) (*google.Payload, error) {
	args := m.Called(ctx, token)
	if p, _ := args.Get(0).(*google.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) ResolveOrCreateBySSO(ctx context.Context, p *google.Payload) (*domain.User, error) {
	args := m.Called(ctx, p)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID string, role domain.Role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- builder ---

func newService(us *mockUserStore, ss *mockSessionStore, rs *mockReceiptStore, v *mockVerifier, r *mockResolver, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		Users:           us,
		Sessions:        ss,
		Receipts:        rs,
		Verifier:        v,
		Identities:      r,
		JWTProvider:     jwt,
		RefreshTokenDur: 7 * 24 * time.Hour,
	})
}

func hashOf(password string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h)
}

// --- Login ---

func TestLogin_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	jwt := &mockJWTSigner{}

	user := &domain.User{UserID: "u1", Role: domain.RoleAdmin, Enable: true, PasswordHash: hashOf("secret123")}
	us.On("GetByUsername", mock.Anything, "admin").Return(user, nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "u1", domain.RoleAdmin, mock.Anything).Return("bearer-token", nil)

	svc := newService(us, ss, nil, nil, nil, jwt)
	res, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "secret123"})

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", res.Bearer)
	assert.Len(t, res.RefreshToken, 64)
	assert.Equal(t, "u1", res.Session.UserID)
}

func TestLogin_FallsBackToEmail(t *testing.T) {
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	jwt := &mockJWTSigner{}

	user := &domain.User{UserID: "u1", Role: domain.RoleOfficer, Enable: true, PasswordHash: hashOf("secret123")}
	us.On("GetByUsername", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	ss.On("Put", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", "u1", domain.RoleOfficer, mock.Anything).Return("bearer-token", nil)

	svc := newService(us, ss, nil, nil, nil, jwt)
	_, err := svc.Login(context.Background(), LoginRequest{Username: "a@b.com", Password: "secret123"})

	require.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	user := &domain.User{UserID: "u1", Enable: true, PasswordHash: hashOf("secret123")}
	us.On("GetByUsername", mock.Anything, "admin").Return(user, nil)

	svc := newService(us, nil, nil, nil, nil, nil)
	_, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_DisabledAccount(t *testing.T) {
	us := &mockUserStore{}
	user := &domain.User{UserID: "u1", Enable: false, PasswordHash: hashOf("secret123")}
	us.On("GetByUsername", mock.Anything, "admin").Return(user, nil)

	svc := newService(us, nil, nil, nil, nil, nil)
	_, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "secret123"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- LoginWithGoogle ---

func TestLoginWithGoogle_HappyPath(t *testing.T) {
	v := &mockVerifier{}
	r := &mockResolver{}
	ss := &mockSessionStore{}
	jwt := &mockJWTSigner{}

	payload := &google.Payload{Sub: "g1", Email: "o@example.com", EmailVerified: true}
	v.On("Verify", mock.Anything, "id-token").Return(payload, nil)
	r.On("ResolveOrCreateBySSO", mock.Anything, payload).Return(&domain.User{
		UserID: "u1", Role: domain.RoleOfficer, Enable: true,
	}, nil)
	ss.On("Put", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", "u1", domain.RoleOfficer, mock.Anything).Return("bearer-token", nil)

	svc := newService(nil, ss, nil, v, r, jwt)
	res, err := svc.LoginWithGoogle(context.Background(), "id-token")

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", res.Bearer)
}

func TestLoginWithGoogle_InvalidToken(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "bad").Return(nil, domain.ErrUnauthorized)

	svc := newService(nil, nil, nil, v, nil, nil)
	_, err := svc.LoginWithGoogle(context.Background(), "bad")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- RedeemReceipt ---

func TestRedeemReceipt_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	rs := &mockReceiptStore{}
	jwt := &mockJWTSigner{}

	rs.On("TakeReceipt", mock.Anything, "receipt-token", mock.Anything).Return(&domain.VerificationReceipt{
		Token: "receipt-token", UserID: "u1", Phone: "9876543210",
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Role: domain.RoleFarmer, Enable: true,
	}, nil)
	ss.On("Put", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", "u1", domain.RoleFarmer, mock.Anything).Return("bearer-token", nil)

	svc := newService(us, ss, rs, nil, nil, jwt)
	res, err := svc.RedeemReceipt(context.Background(), "receipt-token")

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", res.Bearer)
	assert.Equal(t, domain.RoleFarmer, res.Session.User.Role)
}

func TestRedeemReceipt_AlreadyUsed(t *testing.T) {
	rs := &mockReceiptStore{}
	rs.On("TakeReceipt", mock.Anything, "spent", mock.Anything).Return(nil, domain.ErrNotFound)

	svc := newService(nil, nil, rs, nil, nil, nil)
	_, err := svc.RedeemReceipt(context.Background(), "spent")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- Refresh ---

func TestRefresh_RotatesToken(t *testing.T) {
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	jwt := &mockJWTSigner{}

	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID: "s1", UserID: "u1", Enable: true,
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleOfficer, Enable: true}, nil)
	ss.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", "u1", domain.RoleOfficer, "s1").Return("new-bearer", nil)

	svc := newService(us, ss, nil, nil, nil, jwt)
	bearer, newToken, err := svc.Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEqual(t, "old-token", newToken)
	assert.Len(t, newToken, 64)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID: "s1", UserID: "u1", Enable: true,
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, nil)

	svc := newService(nil, ss, nil, nil, nil, nil)
	_, _, err := svc.Refresh(context.Background(), "old-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- Logout / GetCurrent ---

func TestLogout_DisablesSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Update", mock.Anything, "s1", map[string]interface{}{"enable": false}).Return(nil)

	svc := newService(nil, ss, nil, nil, nil, nil)
	require.NoError(t, svc.Logout(context.Background(), "s1"))
	ss.AssertExpectations(t)
}

func TestGetCurrent_AttachesUser(t *testing.T) {
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	ss.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", UserID: "u1"}, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleAdmin}, nil)

	svc := newService(us, ss, nil, nil, nil, nil)
	sess, err := svc.GetCurrent(context.Background(), "s1")

	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, domain.RoleAdmin, sess.User.Role)
}
