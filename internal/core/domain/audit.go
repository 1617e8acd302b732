package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionOTPSend   AuditAction = "OTP_SEND"
	AuditActionOTPResend AuditAction = "OTP_RESEND"
	AuditActionOTPVerify AuditAction = "OTP_VERIFY"
	AuditActionOTPClear  AuditAction = "OTP_CLEAR"
	AuditActionLogin     AuditAction = "LOGIN"
	AuditActionLogout    AuditAction = "LOGOUT"
	AuditActionBooking   AuditAction = "BOOKING"
	AuditActionTopup     AuditAction = "TOPUP"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	SessionID    *uuid.UUID  `json:"session_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
