package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"

	// Context keys
	CtxRequestID = "request_id"
	CtxSessionID = "session_id"
	CtxPhone     = "phone_number"
	CtxSession   = "session"

	// CtxAuditResourceID lets a handler name the resource it touched.
	CtxAuditResourceID = "audit_resource_id"

	maxRequestIDLen = 64
)

// SessionAuth validates the bearer token and restores the session it names.
// A token whose session was logged out, expired, or belongs to another
// phone number is rejected.
func SessionAuth(tokens ports.TokenService, sessions ports.SessionService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			response.Abort(c, apperror.ErrInvalidToken())
			return
		}

		claims, err := tokens.Validate(authHeader[7:])
		if err != nil {
			response.Abort(c, apperror.ErrInvalidToken())
			return
		}

		sess, err := sessions.Restore(c.Request.Context(), claims.SessionID)
		if err != nil {
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.HTTPStatus >= http.StatusInternalServerError {
				log.Error().Err(err).Str("session_id", claims.SessionID.String()).Msg("session restore failed")
			}
			response.Abort(c, err)
			return
		}
		if sess.PhoneNumber != claims.Phone {
			log.Warn().Str("session_id", claims.SessionID.String()).Msg("token phone does not match session")
			response.Abort(c, apperror.ErrInvalidToken())
			return
		}

		c.Set(CtxSessionID, sess.ID)
		c.Set(CtxPhone, sess.PhoneNumber)
		c.Set(CtxSession, sess)
		c.Next()
	}
}

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("request_id", c.GetString(CtxRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("request_id", c.GetString(CtxRequestID)).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				response.Abort(c, apperror.InternalError(nil))
			}
		}()
		c.Next()
	}
}

// MaxBodySize limits the request body. Reads past maxBytes fail, which
// surfaces as a binding error in the handler.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
