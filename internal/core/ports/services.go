package ports

import (
	"context"
	"time"

	"railpass-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// SMSProvider wraps one outbound SMS gateway.
// Send never returns an error; transport and parse failures come back as a failed result.
type SMSProvider interface {
	Name() domain.ProviderName
	Configured() bool
	Send(ctx context.Context, phone, message string) domain.DeliveryResult
}

// CodeGenerator produces one-time codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// AddressDeriver maps a phone number to a stable external wallet address.
type AddressDeriver interface {
	Derive(phone string) string
}

// TokenService handles session bearer tokens.
type TokenService interface {
	Generate(sessionID uuid.UUID, phone string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	SessionID uuid.UUID
	Phone     string
}

// BookingGateway calls the external rail booking server.
type BookingGateway interface {
	Book(ctx context.Context, req BookingGatewayRequest) (*BookingConfirmation, error)
}

// BookingGatewayRequest is what the booking server receives.
type BookingGatewayRequest struct {
	ReferenceID string `json:"reference_id"`
	TripID      string `json:"trip_id"`
	Fare        int64  `json:"fare"`
	Currency    string `json:"currency"`
	PhoneNumber string `json:"phone_number"`
}

// BookingConfirmation is a confirmed booking on the remote server.
type BookingConfirmation struct {
	BookingID string
}

// --- Service Ports (Business Logic) ---

// OTPService issues and verifies one-time codes.
type OTPService interface {
	SendOTP(ctx context.Context, identifier string) (*domain.OTPDispatch, error)
	VerifyOTP(ctx context.Context, identifier, code string) error
	ResendOTP(ctx context.Context, identifier string) (*domain.OTPDispatch, error)
	ClearOTP(ctx context.Context, identifier string) error
}

// SessionService turns verified codes into persisted sessions.
type SessionService interface {
	Login(ctx context.Context, phone, code string) (*LoginResult, error)
	Restore(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

// LoginResult is returned once per successful login.
type LoginResult struct {
	Session *domain.Session
	Token   string
	Expiry  time.Time
}

// WalletService moves money in and out of wallets.
type WalletService interface {
	Balance(ctx context.Context, sessionID uuid.UUID) (*domain.Wallet, error)
	Topup(ctx context.Context, req TopupRequest) (*domain.Wallet, error)
	BookTicket(ctx context.Context, req BookingRequest) (*domain.Booking, error)
	History(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Booking, error)
}

// TopupRequest holds validated input for wallet topup.
type TopupRequest struct {
	SessionID uuid.UUID
	Amount    int64
}

// BookingRequest holds validated input for a ticket booking.
type BookingRequest struct {
	SessionID   uuid.UUID
	PhoneNumber string
	ReferenceID string
	TripID      string
	Fare        int64
}

// AuditService records audit entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// HealthChecker reports on one external dependency (postgresql, redis).
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
