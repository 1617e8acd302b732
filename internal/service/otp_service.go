package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math"
	"time"

	"railpass-gateway/internal/core/domain"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/logger"

	"github.com/rs/zerolog"
)

// OTPOptions tunes code lifetime, attempt budget and provider deadlines.
//
// Lock, when set, serializes work on one identifier across instances and is
// required when the store is shared. LockTTL bounds how long a crashed
// holder blocks the identifier; LockWait bounds how long a caller queues.
type OTPOptions struct {
	TTL         time.Duration
	MaxAttempts int
	SendTimeout time.Duration
	Lock        ports.KeyLock
	LockTTL     time.Duration
	LockWait    time.Duration
}

const lockRetryInterval = 25 * time.Millisecond

// OTPServiceImpl implements ports.OTPService.
type OTPServiceImpl struct {
	store     ports.OTPStore
	providers []ports.SMSProvider
	codes     ports.CodeGenerator
	opts      OTPOptions
	locks     *keyedMutex
	nowF      func() time.Time
	log       zerolog.Logger
}

// NewOTPService creates an OTP service. Providers are tried in the given
// order: primary first, then fallback.
func NewOTPService(
	store ports.OTPStore,
	primary ports.SMSProvider,
	fallback ports.SMSProvider,
	codes ports.CodeGenerator,
	opts OTPOptions,
	log zerolog.Logger,
) *OTPServiceImpl {
	if opts.TTL <= 0 {
		opts.TTL = domain.DefaultCodeTTL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = domain.DefaultMaxAttempts
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if opts.LockTTL <= 0 {
		// Both providers may be tried in turn while the lock is held.
		opts.LockTTL = 2*opts.SendTimeout + 5*time.Second
	}
	if opts.LockWait <= 0 {
		opts.LockWait = opts.LockTTL
	}
	return &OTPServiceImpl{
		store:     store,
		providers: []ports.SMSProvider{primary, fallback},
		codes:     codes,
		opts:      opts,
		locks:     newKeyedMutex(),
		nowF:      time.Now,
		log:       logger.Component(log, "otp"),
	}
}

// SendOTP issues a fresh code and delivers it.
func (s *OTPServiceImpl) SendOTP(ctx context.Context, identifier string) (*domain.OTPDispatch, error) {
	if !domain.ValidPhoneIdentifier(identifier) {
		return nil, apperror.ErrInvalidIdentifierFormat()
	}

	unlock, err := s.lock(ctx, identifier)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.issueLocked(ctx, identifier)
}

// ResendOTP discards any pending code, then behaves as SendOTP.
func (s *OTPServiceImpl) ResendOTP(ctx context.Context, identifier string) (*domain.OTPDispatch, error) {
	if !domain.ValidPhoneIdentifier(identifier) {
		return nil, apperror.ErrInvalidIdentifierFormat()
	}

	unlock, err := s.lock(ctx, identifier)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.store.Delete(ctx, identifier); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("discard pending code: %w", err))
	}
	return s.issueLocked(ctx, identifier)
}

// VerifyOTP checks code against the pending verification for identifier.
// A match consumes the entry; the attempt that reaches the limit is terminal.
func (s *OTPServiceImpl) VerifyOTP(ctx context.Context, identifier, code string) error {
	if !domain.ValidPhoneIdentifier(identifier) {
		return apperror.ErrInvalidIdentifierFormat()
	}

	unlock, err := s.lock(ctx, identifier)
	if err != nil {
		return err
	}
	defer unlock()

	pv, err := s.store.Get(ctx, identifier)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("load pending code: %w", err))
	}
	if pv == nil {
		return apperror.ErrOTPNotFound()
	}

	if pv.IsExpired(s.nowF()) {
		s.discard(ctx, identifier)
		return apperror.ErrOTPExpired()
	}
	if pv.AttemptsExhausted(s.opts.MaxAttempts) {
		s.discard(ctx, identifier)
		return apperror.ErrOTPAttemptsExhausted()
	}

	if subtle.ConstantTimeCompare([]byte(pv.Code), []byte(code)) == 1 {
		if err := s.store.Delete(ctx, identifier); err != nil {
			return apperror.InternalError(fmt.Errorf("consume code: %w", err))
		}
		s.log.Info().Str("phone", logger.MaskPhone(identifier)).Msg("code verified")
		return nil
	}

	pv.Attempts++
	if pv.AttemptsExhausted(s.opts.MaxAttempts) {
		s.discard(ctx, identifier)
		s.log.Warn().Str("phone", logger.MaskPhone(identifier)).Msg("verification attempts exhausted")
		return apperror.ErrOTPAttemptsExhausted()
	}
	if err := s.store.Put(ctx, pv); err != nil {
		return apperror.InternalError(fmt.Errorf("record attempt: %w", err))
	}
	return apperror.ErrOTPInvalidCode(pv.AttemptsRemaining(s.opts.MaxAttempts))
}

// ClearOTP drops any pending code for identifier. Clearing nothing is not an error.
func (s *OTPServiceImpl) ClearOTP(ctx context.Context, identifier string) error {
	if !domain.ValidPhoneIdentifier(identifier) {
		return apperror.ErrInvalidIdentifierFormat()
	}

	unlock, err := s.lock(ctx, identifier)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.Delete(ctx, identifier); err != nil {
		return apperror.InternalError(fmt.Errorf("clear pending code: %w", err))
	}
	return nil
}

// issueLocked stores a new code and walks the provider chain. The caller holds
// the identifier lock for the whole exchange, network calls included.
func (s *OTPServiceImpl) issueLocked(ctx context.Context, identifier string) (*domain.OTPDispatch, error) {
	code, err := s.codes.Generate()
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	pv := domain.NewPendingVerification(identifier, code, s.nowF(), s.opts.TTL)
	if err := s.store.Put(ctx, pv); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("store pending code: %w", err))
	}

	message := fmt.Sprintf("Your RailPass verification code is %s. It expires in %s.",
		code, expiryText(s.opts.TTL))

	for _, p := range s.providers {
		if p == nil || !p.Configured() {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
		res := p.Send(sendCtx, identifier, message)
		cancel()

		if res.Success {
			s.log.Info().
				Str("phone", logger.MaskPhone(identifier)).
				Str("provider", string(p.Name())).
				Str("message_id", res.ProviderMessageID).
				Msg("code delivered")
			return &domain.OTPDispatch{
				Provider:  p.Name(),
				MessageID: res.ProviderMessageID,
				ExpiresAt: pv.ExpiresAt,
			}, nil
		}

		s.log.Warn().
			Str("phone", logger.MaskPhone(identifier)).
			Str("provider", string(p.Name())).
			Str("detail", res.ErrorDetail).
			Msg("provider failed, trying next")
	}

	// Nobody received the code, so it must not stay verifiable.
	s.discard(ctx, identifier)
	s.log.Error().Str("phone", logger.MaskPhone(identifier)).Msg("no provider delivered the code")
	return nil, apperror.ErrDeliveryUnavailable()
}

// lock takes the in-process identifier mutex and, if configured, the
// cross-instance lock. The returned func releases both.
func (s *OTPServiceImpl) lock(ctx context.Context, identifier string) (func(), error) {
	unlock := s.locks.Lock(identifier)
	if s.opts.Lock == nil {
		return unlock, nil
	}

	wait := time.NewTimer(s.opts.LockWait)
	defer wait.Stop()
	for {
		acquired, err := s.opts.Lock.Acquire(ctx, identifier, s.opts.LockTTL)
		if err != nil {
			unlock()
			return nil, apperror.ErrLockTimeout(err)
		}
		if acquired {
			return func() {
				if err := s.opts.Lock.Release(context.WithoutCancel(ctx), identifier); err != nil {
					s.log.Warn().Err(err).Str("phone", logger.MaskPhone(identifier)).Msg("failed to release otp lock")
				}
				unlock()
			}, nil
		}

		select {
		case <-ctx.Done():
			unlock()
			return nil, apperror.ErrLockTimeout(ctx.Err())
		case <-wait.C:
			unlock()
			return nil, apperror.ErrLockTimeout(fmt.Errorf("otp lock for %s still held after %s",
				logger.MaskPhone(identifier), s.opts.LockWait))
		case <-time.After(lockRetryInterval):
		}
	}
}

// expiryText renders ttl for the SMS body, rounding up so a code never
// claims to expire sooner than it does.
func expiryText(ttl time.Duration) string {
	if ttl < time.Minute {
		secs := int(math.Ceil(ttl.Seconds()))
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	mins := int(math.Ceil(ttl.Minutes()))
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}

func (s *OTPServiceImpl) discard(ctx context.Context, identifier string) {
	if err := s.store.Delete(ctx, identifier); err != nil {
		s.log.Error().Err(err).Str("phone", logger.MaskPhone(identifier)).Msg("failed to delete pending code")
	}
}
