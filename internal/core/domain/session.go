package domain

import (
	"time"

	"github.com/google/uuid"
)

// sessionNamespace scopes UUIDv5 session ids to this service.
var sessionNamespace = uuid.MustParse("8f6f2b8e-4a57-5d2c-9a51-3f7e1c0b6d42")

// SessionIDForPhone derives the stable session id of a phone number.
func SessionIDForPhone(phone string) uuid.UUID {
	return uuid.NewSHA1(sessionNamespace, []byte(phone))
}

// Session is the persisted login record established after a successful verification.
type Session struct {
	ID            uuid.UUID `json:"id"`
	PhoneNumber   string    `json:"phoneNumber"`
	WalletAddress string    `json:"walletAddress,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// IsExpired returns true once now is past ExpiresAt. A zero ExpiresAt never expires.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
