package dto

import (
	"time"

	"railpass-gateway/internal/core/domain"
)

// PhoneRequest is the request body for sending, resending or clearing a code.
type PhoneRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
}

// CodeRequest is the request body for verifying a code or logging in with it.
type CodeRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
}

// OTPDispatchResponse is returned once a code has been delivered.
type OTPDispatchResponse struct {
	Provider  string `json:"provider"`
	MessageID string `json:"message_id,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

// VerifyResponse is returned on a correct code.
type VerifyResponse struct {
	Verified bool `json:"verified"`
}

// SessionResponse is the public view of a session.
type SessionResponse struct {
	ID            string  `json:"id"`
	PhoneNumber   string  `json:"phone_number"`
	WalletAddress string  `json:"wallet_address"`
	CreatedAt     string  `json:"created_at"`
	ExpiresAt     *string `json:"expires_at,omitempty"`
}

// LoginResponse is the response body for a successful login.
type LoginResponse struct {
	Token   string          `json:"token"`
	Expiry  int64           `json:"expiry"` // Unix timestamp
	Session SessionResponse `json:"session"`
}

// TopupRequest is the request body for wallet topup.
type TopupRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// BookingRequest is the request body for booking a ticket.
type BookingRequest struct {
	ReferenceID string `json:"reference_id" binding:"required,max=100,safe_id"`
	TripID      string `json:"trip_id" binding:"required,max=100,safe_id"`
	Fare        int64  `json:"fare" binding:"required,gt=0"`
}

// WalletBalanceResponse is the response for balance query.
type WalletBalanceResponse struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// BookingResponse is the response body for one booking.
type BookingResponse struct {
	ID                string  `json:"id"`
	ReferenceID       string  `json:"reference_id"`
	TripID            string  `json:"trip_id"`
	Fare              int64   `json:"fare"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
	ProviderBookingID string  `json:"provider_booking_id,omitempty"`
	FailureReason     string  `json:"failure_reason,omitempty"`
	CreatedAt         string  `json:"created_at"`
	ConfirmedAt       *string `json:"confirmed_at,omitempty"`
}

// BookingListResponse wraps a page of booking history.
type BookingListResponse struct {
	Items []BookingResponse `json:"items"`
	Count int               `json:"count"`
}

// NewSessionResponse converts a domain session.
func NewSessionResponse(s *domain.Session) SessionResponse {
	resp := SessionResponse{
		ID:            s.ID.String(),
		PhoneNumber:   s.PhoneNumber,
		WalletAddress: s.WalletAddress,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &exp
	}
	return resp
}

// NewBookingResponse converts a domain booking.
func NewBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                b.ID.String(),
		ReferenceID:       b.ReferenceID,
		TripID:            b.TripID,
		Fare:              b.Fare,
		Currency:          b.Currency,
		Status:            string(b.Status),
		ProviderBookingID: b.ProviderBookingID,
		FailureReason:     b.FailureReason,
		CreatedAt:         b.CreatedAt.Format(time.RFC3339),
	}
	if b.ConfirmedAt != nil {
		s := b.ConfirmedAt.Format(time.RFC3339)
		resp.ConfirmedAt = &s
	}
	return resp
}
