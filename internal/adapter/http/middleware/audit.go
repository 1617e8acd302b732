package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"railpass-gateway/internal/core/domain"
	"railpass-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// It maps HTTP methods and route paths to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapPathToAction(c.Request.URL.Path, c.Request.Method)
		if action == "" {
			return
		}

		var sessionID *uuid.UUID
		if sid, exists := c.Get(CtxSessionID); exists {
			if id, ok := sid.(uuid.UUID); ok {
				sessionID = &id
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(CtxRequestID),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			SessionID:    sessionID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxAuditResourceID),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/api/v1/otp/send" && method == http.MethodPost:
		return domain.AuditActionOTPSend, "otp"
	case path == "/api/v1/otp/resend" && method == http.MethodPost:
		return domain.AuditActionOTPResend, "otp"
	case path == "/api/v1/otp/verify" && method == http.MethodPost:
		return domain.AuditActionOTPVerify, "otp"
	case path == "/api/v1/otp/clear" && method == http.MethodPost:
		return domain.AuditActionOTPClear, "otp"
	case path == "/api/v1/sessions" && method == http.MethodPost:
		return domain.AuditActionLogin, "session"
	case path == "/api/v1/sessions/me" && method == http.MethodDelete:
		return domain.AuditActionLogout, "session"
	case path == "/api/v1/bookings" && method == http.MethodPost:
		return domain.AuditActionBooking, "booking"
	case path == "/api/v1/wallets/topup" && method == http.MethodPost:
		return domain.AuditActionTopup, "wallet"
	}
	return "", ""
}
