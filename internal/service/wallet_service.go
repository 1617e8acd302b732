package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"railpass-gateway/internal/core/domain"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// WalletOptions bounds the booking gateway call and the cross-instance lock.
type WalletOptions struct {
	GatewayTimeout time.Duration
	LockTTL        time.Duration
}

// WalletServiceImpl implements ports.WalletService.
//
// A booking moves IDLE -> REQUESTING -> CONFIRMED|FAILED and the wallet is
// only debited on CONFIRMED. Re-entrant calls for the same booking collapse
// onto one in-flight request.
type WalletServiceImpl struct {
	wallets    ports.WalletRepository
	bookings   ports.BookingRepository
	gateway    ports.BookingGateway
	lock       ports.BookingLock // nil: in-process dedupe only
	transactor ports.DBTransactor
	inflight   singleflight.Group
	opts       WalletOptions
	nowF       func() time.Time
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	wallets ports.WalletRepository,
	bookings ports.BookingRepository,
	gateway ports.BookingGateway,
	lock ports.BookingLock,
	transactor ports.DBTransactor,
	opts WalletOptions,
	log zerolog.Logger,
) *WalletServiceImpl {
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 15 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * opts.GatewayTimeout
	}
	return &WalletServiceImpl{
		wallets:    wallets,
		bookings:   bookings,
		gateway:    gateway,
		lock:       lock,
		transactor: transactor,
		opts:       opts,
		nowF:       time.Now,
		log:        logger.Component(log, "wallet"),
	}
}

// Balance returns the wallet of a session.
func (s *WalletServiceImpl) Balance(ctx context.Context, sessionID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.wallets.GetByOwner(ctx, sessionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return w, nil
}

// Topup credits a wallet under a row lock.
func (s *WalletServiceImpl) Topup(ctx context.Context, req ports.TopupRequest) (*domain.Wallet, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.wallets.GetByOwnerForUpdate(ctx, dbTx, req.SessionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	if w.Balance > math.MaxInt64-req.Amount {
		return nil, apperror.ErrInvalidAmount()
	}

	newBalance := w.Balance + req.Amount
	if err := s.wallets.UpdateBalance(ctx, dbTx, w.ID, newBalance); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update balance: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	w.Balance = newBalance
	w.UpdatedAt = s.nowF().UTC()

	s.log.Info().
		Str("wallet_id", w.ID.String()).
		Int64("amount", req.Amount).
		Msg("wallet topped up")

	return w, nil
}

// History lists recent bookings of a session, newest first.
func (s *WalletServiceImpl) History(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Booking, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	bookings, err := s.bookings.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return bookings, nil
}

// BookTicket books a trip and pays for it from the session's wallet.
func (s *WalletServiceImpl) BookTicket(ctx context.Context, req ports.BookingRequest) (*domain.Booking, error) {
	if req.Fare <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.ReferenceID == "" {
		return nil, apperror.Validation("reference_id is required")
	}

	key := domain.BookingKey(req.SessionID, req.ReferenceID)

	// Joined callers share the leader's result, so the leader must not be
	// cancelled by any single caller going away.
	v, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		return s.book(context.WithoutCancel(ctx), req, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug().Str("booking_key", key).Msg("joined in-flight booking")
	}

	b := *v.(*domain.Booking)
	return &b, nil
}

func (s *WalletServiceImpl) book(ctx context.Context, req ports.BookingRequest, key string) (*domain.Booking, error) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, key, s.opts.LockTTL)
		if err != nil {
			return nil, apperror.ErrLockTimeout(err)
		}
		if !acquired {
			return nil, apperror.ErrBookingInFlight()
		}
		defer func() {
			if err := s.lock.Release(ctx, key); err != nil {
				s.log.Warn().Err(err).Str("booking_key", key).Msg("failed to release booking lock")
			}
		}()
	}

	existing, err := s.bookings.GetByReference(ctx, req.SessionID, req.ReferenceID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lookup booking: %w", err))
	}
	if existing != nil {
		switch existing.Status {
		case domain.BookingStatusConfirmed:
			return existing, nil
		case domain.BookingStatusRequesting:
			// Left behind by a holder that died mid-request; the lock is ours now.
			if err := s.bookings.MarkFailed(ctx, existing.ID, "superseded by retry"); err != nil {
				s.log.Warn().Err(err).Str("booking_id", existing.ID.String()).Msg("failed to retire stale booking")
			}
		}
	}

	w, err := s.wallets.GetByOwner(ctx, req.SessionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	if !w.CanAfford(req.Fare) {
		return nil, apperror.ErrInsufficientFunds()
	}

	b := &domain.Booking{
		ID:          uuid.New(),
		ReferenceID: req.ReferenceID,
		SessionID:   req.SessionID,
		WalletID:    w.ID,
		TripID:      req.TripID,
		Fare:        req.Fare,
		Currency:    w.Currency,
		Status:      domain.BookingStatusIdle,
		CreatedAt:   s.nowF().UTC(),
	}
	if err := b.TransitionTo(domain.BookingStatusRequesting); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create booking: %w", err))
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.opts.GatewayTimeout)
	conf, err := s.gateway.Book(gwCtx, ports.BookingGatewayRequest{
		ReferenceID: req.ReferenceID,
		TripID:      req.TripID,
		Fare:        req.Fare,
		Currency:    w.Currency,
		PhoneNumber: req.PhoneNumber,
	})
	cancel()
	if err != nil {
		s.fail(ctx, b, err.Error())
		return nil, apperror.ErrBookingRejected(err)
	}

	return s.settle(ctx, b, conf)
}

// settle debits the wallet and confirms the booking in one transaction.
// The booking server has already confirmed, so every failure here marks the
// booking FAILED and is logged with the provider booking id for
// reconciliation. A later retry then starts a fresh booking under the same
// reference, which the booking server deduplicates by Idempotency-Key.
func (s *WalletServiceImpl) settle(ctx context.Context, b *domain.Booking, conf *ports.BookingConfirmation) (*domain.Booking, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, s.unsettled(ctx, b, conf, "settlement error: begin tx",
			apperror.InternalError(fmt.Errorf("begin tx: %w", err)))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.wallets.GetByOwnerForUpdate(ctx, dbTx, b.SessionID)
	if err != nil {
		return nil, s.unsettled(ctx, b, conf, "settlement error: lock wallet",
			apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err)))
	}
	if w == nil {
		return nil, s.unsettled(ctx, b, conf, "settlement error: wallet missing", apperror.ErrNotFound("Wallet"))
	}
	if !w.CanAfford(b.Fare) {
		_ = dbTx.Rollback(ctx)
		return nil, s.unsettled(ctx, b, conf, "insufficient funds at settlement", apperror.ErrInsufficientFunds())
	}

	confirmedAt := s.nowF().UTC()

	if err := s.wallets.UpdateBalance(ctx, dbTx, w.ID, w.Balance-b.Fare); err != nil {
		_ = dbTx.Rollback(ctx)
		return nil, s.unsettled(ctx, b, conf, "settlement error: debit wallet",
			apperror.ErrDatabaseError(fmt.Errorf("debit wallet: %w", err)))
	}
	if err := s.bookings.MarkConfirmed(ctx, dbTx, b.ID, conf.BookingID, confirmedAt); err != nil {
		_ = dbTx.Rollback(ctx)
		return nil, s.unsettled(ctx, b, conf, "settlement error: confirm booking",
			apperror.ErrDatabaseError(fmt.Errorf("confirm booking: %w", err)))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, s.unsettled(ctx, b, conf, "settlement error: commit",
			apperror.InternalError(fmt.Errorf("commit tx: %w", err)))
	}

	if err := b.TransitionTo(domain.BookingStatusConfirmed); err != nil {
		return nil, apperror.InternalError(err)
	}
	b.ProviderBookingID = conf.BookingID
	b.ConfirmedAt = &confirmedAt

	s.log.Info().
		Str("booking_id", b.ID.String()).
		Str("reference_id", b.ReferenceID).
		Str("provider_booking_id", conf.BookingID).
		Int64("fare", b.Fare).
		Msg("booking confirmed and paid")

	return b, nil
}

// unsettled records a booking the server confirmed but the wallet did not
// pay for, and returns appErr.
func (s *WalletServiceImpl) unsettled(ctx context.Context, b *domain.Booking, conf *ports.BookingConfirmation, reason string, appErr error) error {
	s.log.Error().
		Err(appErr).
		Str("booking_id", b.ID.String()).
		Str("reference_id", b.ReferenceID).
		Str("provider_booking_id", conf.BookingID).
		Int64("fare", b.Fare).
		Msg("booking confirmed remotely but not settled, needs reconciliation")
	s.fail(ctx, b, reason)
	return appErr
}

func (s *WalletServiceImpl) fail(ctx context.Context, b *domain.Booking, reason string) {
	if err := b.TransitionTo(domain.BookingStatusFailed); err != nil {
		s.log.Error().Err(err).Msg("booking state")
		return
	}
	b.FailureReason = reason
	if err := s.bookings.MarkFailed(ctx, b.ID, reason); err != nil {
		s.log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to record booking failure")
	}
	s.log.Warn().
		Str("booking_id", b.ID.String()).
		Str("reference_id", b.ReferenceID).
		Str("reason", reason).
		Msg("booking failed, wallet untouched")
}
