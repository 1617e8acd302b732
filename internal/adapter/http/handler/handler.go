// Package handler exposes the OTP, session and wallet services over HTTP.
package handler

import (
	"net/http"
	"time"

	"railpass-gateway/internal/adapter/http/dto"
	"railpass-gateway/internal/adapter/http/middleware"
	"railpass-gateway/internal/core/domain"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// bindJSON binds and sanitizes the request body, writing the error response
// itself on failure. A malformed phone number maps to OTP_001.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if dto.IsPhoneError(err) {
			response.Error(c, apperror.ErrInvalidIdentifierFormat())
		} else {
			response.Error(c, apperror.Validation(err.Error()))
		}
		return false
	}
	dto.SanitizeStruct(req)
	return true
}

// sessionID returns the id set by middleware.SessionAuth.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxSessionID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return id, true
}

// HealthCheck handles GET /health, a deep check of every dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}

func toDispatchResponse(d *domain.OTPDispatch) dto.OTPDispatchResponse {
	return dto.OTPDispatchResponse{
		Provider:  string(d.Provider),
		MessageID: d.MessageID,
		ExpiresAt: d.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
