package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type MockUserRepoForToken struct {
	mock.Mock
}

func (m *MockUserRepoForToken) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockUserRepoForToken) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepoForToken) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepoForToken) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockUserRepoForToken) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	secret := "super-secret-key-for-testing-0123456789"
	issuer := "kanso-test"
	userID := "user-123-uuid"

	setup := func() (*TokenService, *MockUserRepoForToken) {
		mockRepo := new(MockUserRepoForToken)
		return NewTokenService(secret, issuer, 1*time.Hour, mockRepo), mockRepo
	}

	t.Run("Success: Should generate and validate a token", func(t *testing.T) {
		service, mockRepo := setup()
		mockRepo.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID}, nil)

		before := time.Now()
		tokenString, expiresAt, err := service.GenerateToken(userID)
		require.NoError(t, err)
		assert.NotEmpty(t, tokenString)
		assert.WithinDuration(t, before.Add(time.Hour), expiresAt, 5*time.Second)

		extractedID, err := service.ValidateToken(tokenString)
		assert.NoError(t, err)
		assert.Equal(t, userID, extractedID)

		mockRepo.AssertExpectations(t)
	})

	t.Run("Fail: Should reject valid token if user is deleted (DB check)", func(t *testing.T) {
		service, mockRepo := setup()
		mockRepo.On("GetByID", mock.Anything, userID).Return(nil, errors.New("user not found"))

		tokenString, _, err := service.GenerateToken(userID)
		require.NoError(t, err)

		extractedID, err := service.ValidateToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Contains(t, err.Error(), "user no longer exists")
		assert.Empty(t, extractedID)

		mockRepo.AssertExpectations(t)
	})

	t.Run("Fail: Should reject expired token", func(t *testing.T) {
		service, mockRepo := setup()
		tokenString, _, err := service.GenerateToken(userID)
		require.NoError(t, err)

		service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		extractedID, err := service.ValidateToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Contains(t, err.Error(), "token is expired")
		assert.Empty(t, extractedID)
		mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Fail: Should reject token with wrong secret (Tampered)", func(t *testing.T) {
		service, _ := setup()
		tokenString, _, _ := service.GenerateToken(userID)

		attackerService := NewTokenService("wrong-key", issuer, 1*time.Hour, new(MockUserRepoForToken))

		extractedID, err := attackerService.ValidateToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Empty(t, extractedID)
	})

	t.Run("Fail: Should reject token with wrong issuer", func(t *testing.T) {
		mockRepo := new(MockUserRepoForToken)
		serviceA := NewTokenService(secret, "correct-issuer", 1*time.Hour, mockRepo)
		tokenString, _, _ := serviceA.GenerateToken(userID)

		serviceB := NewTokenService(secret, "wrong-issuer", 1*time.Hour, mockRepo)

		extractedID, err := serviceB.ValidateToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
		assert.Empty(t, extractedID)
	})

	t.Run("Fail: Should reject 'None' algorithm attack", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		fakeTokenString, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType)

		service, _ := setup()
		_, err := service.ValidateToken(fakeTokenString)

		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Contains(t, err.Error(), "signing method")
	})

	t.Run("Fail: Should reject malformed token string", func(t *testing.T) {
		service, _ := setup()

		extractedID, err := service.ValidateToken("this-is-not-a-jwt")

		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Empty(t, extractedID)
	})
}
