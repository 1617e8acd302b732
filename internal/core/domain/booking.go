package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of one booking attempt.
type BookingStatus string

const (
	BookingStatusIdle       BookingStatus = "IDLE"
	BookingStatusRequesting BookingStatus = "REQUESTING"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusFailed     BookingStatus = "FAILED"
)

// Booking is a ticket purchase paid from a wallet.
// The wallet balance may only change for a booking in BookingStatusConfirmed.
type Booking struct {
	ID                uuid.UUID     `json:"id"`
	ReferenceID       string        `json:"reference_id"`
	SessionID         uuid.UUID     `json:"session_id"`
	WalletID          uuid.UUID     `json:"wallet_id"`
	TripID            string        `json:"trip_id"`
	Fare              int64         `json:"fare"`
	Currency          string        `json:"currency"`
	Status            BookingStatus `json:"status"`
	ProviderBookingID string        `json:"provider_booking_id,omitempty"`
	FailureReason     string        `json:"failure_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	ConfirmedAt       *time.Time    `json:"confirmed_at,omitempty"`
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusIdle:       {BookingStatusRequesting},
	BookingStatusRequesting: {BookingStatusConfirmed, BookingStatusFailed},
}

// TransitionTo moves the booking to next, rejecting moves the state machine does not allow.
func (b *Booking) TransitionTo(next BookingStatus) error {
	for _, allowed := range bookingTransitions[b.Status] {
		if allowed == next {
			b.Status = next
			return nil
		}
	}
	return fmt.Errorf("booking %s: illegal transition %s -> %s", b.ReferenceID, b.Status, next)
}

// IsTerminal returns true if the booking is in a final state.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusFailed
}

// CanDeduct is true only for confirmed bookings.
func (b *Booking) CanDeduct() bool {
	return b.Status == BookingStatusConfirmed
}

// BookingKey identifies one logical booking for dedupe and locking.
func BookingKey(sessionID uuid.UUID, referenceID string) string {
	return sessionID.String() + ":" + referenceID
}
