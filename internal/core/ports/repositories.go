package ports

import (
	"context"
	"time"

	"railpass-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OTPStore holds pending verifications keyed by phone identifier.
// Put replaces any existing entry. Get returns nil, nil when absent.
type OTPStore interface {
	Get(ctx context.Context, identifier string) (*domain.PendingVerification, error)
	Put(ctx context.Context, pv *domain.PendingVerification) error
	Delete(ctx context.Context, identifier string) error
}

// SessionStore persists serialized sessions. Load returns nil, nil when absent.
// It stores raw bytes so the session service owns decoding and corrupt-state handling.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error
}

// BookingRepository persists the booking state machine.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByReference(ctx context.Context, sessionID uuid.UUID, referenceID string) (*domain.Booking, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Booking, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, providerBookingID string, confirmedAt time.Time) error
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// KeyLock is a cross-instance mutual-exclusion lock on string keys.
type KeyLock interface {
	// Acquire returns true if the lock was taken, false if another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// BookingLock is a cross-instance guard for one logical booking.
type BookingLock = KeyLock
