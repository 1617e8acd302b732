package handler

import (
	"railpass-gateway/internal/adapter/http/dto"
	"railpass-gateway/internal/adapter/http/middleware"
	"railpass-gateway/internal/core/domain"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// SessionHandler handles login, session lookup and logout.
type SessionHandler struct {
	sessionSvc ports.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionSvc ports.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Login handles POST /api/v1/sessions.
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.CodeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.sessionSvc.Login(c.Request.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxSessionID, result.Session.ID)
	response.Created(c, dto.LoginResponse{
		Token:   result.Token,
		Expiry:  result.Expiry.Unix(),
		Session: dto.NewSessionResponse(result.Session),
	})
}

// Me handles GET /api/v1/sessions/me.
func (h *SessionHandler) Me(c *gin.Context) {
	v, ok := c.Get(middleware.CtxSession)
	sess, isSession := v.(*domain.Session)
	if !ok || !isSession {
		response.Error(c, apperror.ErrSessionNotFound())
		return
	}
	response.OK(c, dto.NewSessionResponse(sess))
}

// Logout handles DELETE /api/v1/sessions/me.
func (h *SessionHandler) Logout(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Logout(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
