package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"railpass-gateway/internal/core/domain"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionServiceImpl implements ports.SessionService.
type SessionServiceImpl struct {
	otp       ports.OTPService
	store     ports.SessionStore
	wallets   ports.WalletRepository
	tokens    ports.TokenService
	addresses ports.AddressDeriver
	ttl       time.Duration
	nowF      func() time.Time
	log       zerolog.Logger
}

// NewSessionService creates a session service. A non-positive ttl keeps
// sessions until logout.
func NewSessionService(
	otp ports.OTPService,
	store ports.SessionStore,
	wallets ports.WalletRepository,
	tokens ports.TokenService,
	addresses ports.AddressDeriver,
	ttl time.Duration,
	log zerolog.Logger,
) *SessionServiceImpl {
	return &SessionServiceImpl{
		otp:       otp,
		store:     store,
		wallets:   wallets,
		tokens:    tokens,
		addresses: addresses,
		ttl:       ttl,
		nowF:      time.Now,
		log:       logger.Component(log, "session"),
	}
}

// Login verifies code and, only if it is valid, establishes the session.
// Verification errors are returned untouched so callers can tell
// "resend" cases from "re-enter" cases.
func (s *SessionServiceImpl) Login(ctx context.Context, phone, code string) (*ports.LoginResult, error) {
	if err := s.otp.VerifyOTP(ctx, phone, code); err != nil {
		return nil, err
	}

	now := s.nowF().UTC()
	sess := &domain.Session{
		ID:            domain.SessionIDForPhone(phone),
		PhoneNumber:   phone,
		WalletAddress: s.addresses.Derive(phone),
		CreatedAt:     now,
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encode session: %w", err))
	}
	if err := s.store.Save(ctx, sess.ID.String(), data, s.ttl); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persist session: %w", err))
	}

	if err := s.ensureWallet(ctx, sess.ID, now); err != nil {
		return nil, err
	}

	token, expiry, err := s.tokens.Generate(sess.ID, phone)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	s.log.Info().
		Str("session_id", sess.ID.String()).
		Str("phone", logger.MaskPhone(phone)).
		Msg("session established")

	return &ports.LoginResult{Session: sess, Token: token, Expiry: expiry}, nil
}

// Restore loads a persisted session. A stored value that no longer decodes
// is deleted and reported as "no session" rather than as a failure.
func (s *SessionServiceImpl) Restore(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	key := sessionID.String()

	data, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load session: %w", err))
	}
	if data == nil {
		return nil, apperror.ErrSessionNotFound()
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.ID != sessionID {
		s.log.Warn().Err(err).Str("session_id", key).Msg("discarding unreadable session")
		s.drop(ctx, key)
		return nil, apperror.ErrSessionNotFound()
	}

	if sess.IsExpired(s.nowF()) {
		s.drop(ctx, key)
		return nil, apperror.ErrSessionNotFound()
	}

	return &sess, nil
}

// Logout removes the persisted session. Logging out twice is fine.
func (s *SessionServiceImpl) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.Delete(ctx, sessionID.String()); err != nil {
		return apperror.InternalError(fmt.Errorf("delete session: %w", err))
	}
	s.log.Info().Str("session_id", sessionID.String()).Msg("session closed")
	return nil
}

func (s *SessionServiceImpl) ensureWallet(ctx context.Context, ownerID uuid.UUID, now time.Time) error {
	existing, err := s.wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lookup wallet: %w", err))
	}
	if existing != nil {
		return nil
	}

	w := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Currency:  domain.DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("open wallet: %w", err))
	}
	return nil
}

func (s *SessionServiceImpl) drop(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Error().Err(err).Str("session_id", key).Msg("failed to delete session")
	}
}
