package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const userLookupTimeout = 2 * time.Second

type TokenService struct {
	secretKey     []byte
	issuer        string
	tokenDuration time.Duration
	userRepo      domain.UserRepository
	now           func() time.Time
}

func NewTokenService(secretKey string, issuer string, tokenDuration time.Duration, userRepo domain.UserRepository) *TokenService {
	return &TokenService{
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		tokenDuration: tokenDuration,
		userRepo:      userRepo,
		now:           time.Now,
	}
}

// GenerateToken signs an HS256 token for userID and returns it with its expiry.
func (s *TokenService) GenerateToken(userID string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.tokenDuration)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token service: failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken returns the subject of a valid token whose user still exists.
func (s *TokenService) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	ctx, cancel := context.WithTimeout(context.Background(), userLookupTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, claims.Subject); err != nil {
		return "", fmt.Errorf("%w: user no longer exists: %v", ErrInvalidToken, err)
	}

	return claims.Subject, nil
}
