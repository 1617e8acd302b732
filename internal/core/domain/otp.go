package domain

import (
	"regexp"
	"time"
)

const (
	// DefaultCodeTTL is how long an issued code stays valid.
	DefaultCodeTTL = 10 * time.Minute
	// DefaultMaxAttempts is the number of wrong codes tolerated per issued code.
	DefaultMaxAttempts = 3
)

// phoneIdentifierRe accepts a leading "+" followed by 2-15 digits (country code included).
var phoneIdentifierRe = regexp.MustCompile(`^\+[0-9]{2,15}$`)

// ValidPhoneIdentifier reports whether s is an international phone number.
func ValidPhoneIdentifier(s string) bool {
	return phoneIdentifierRe.MatchString(s)
}

// PendingVerification is an issued but not yet confirmed one-time code.
// There is at most one per identifier.
type PendingVerification struct {
	Identifier string    `json:"identifier"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expires_at"`
	Attempts   int       `json:"attempts"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPendingVerification builds a fresh entry with zero attempts.
func NewPendingVerification(identifier, code string, now time.Time, ttl time.Duration) *PendingVerification {
	return &PendingVerification{
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
}

// IsExpired returns true once now is past ExpiresAt.
func (p *PendingVerification) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// AttemptsExhausted returns true if no further guesses are allowed.
func (p *PendingVerification) AttemptsExhausted(maxAttempts int) bool {
	return p.Attempts >= maxAttempts
}

// AttemptsRemaining never goes below zero.
func (p *PendingVerification) AttemptsRemaining(maxAttempts int) int {
	if r := maxAttempts - p.Attempts; r > 0 {
		return r
	}
	return 0
}

// OTPDispatch describes a successfully delivered code.
type OTPDispatch struct {
	Provider  ProviderName `json:"provider"`
	MessageID string       `json:"message_id"`
	ExpiresAt time.Time    `json:"expires_at"`
}
