package service

import (
	"errors"
	"fmt"
	"time"

	"railpass-gateway/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// sessionClaims is the bearer token payload. The subject is the session id.
type sessionClaims struct {
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

// JWTTokenService implements ports.TokenService with HS256 bearer tokens
// bound to a session.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	nowF   func() time.Time
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		nowF:   time.Now,
	}
}

// Generate signs a bearer token for a session.
func (s *JWTTokenService) Generate(sessionID uuid.UUID, phone string) (string, time.Time, error) {
	now := s.nowF()
	expiresAt := now.Add(s.expiry)

	claims := sessionClaims{
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sessionID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature, issuer and expiry and returns the session the
// token was issued for.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowF),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("session token has no subject")
	}
	sessionID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("session token subject: %w", err)
	}

	return &ports.TokenClaims{SessionID: sessionID, Phone: claims.Phone}, nil
}
