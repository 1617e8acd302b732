package handler

import (
	"railpass-gateway/internal/adapter/http/dto"
	"railpass-gateway/internal/adapter/http/middleware"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// OTPHandler handles one-time code endpoints.
type OTPHandler struct {
	otpSvc ports.OTPService
}

// NewOTPHandler creates a new OTPHandler.
func NewOTPHandler(otpSvc ports.OTPService) *OTPHandler {
	return &OTPHandler{otpSvc: otpSvc}
}

// Send handles POST /api/v1/otp/send.
func (h *OTPHandler) Send(c *gin.Context) {
	var req dto.PhoneRequest
	if !bindJSON(c, &req) {
		return
	}

	dispatch, err := h.otpSvc.SendOTP(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toDispatchResponse(dispatch))
}

// Resend handles POST /api/v1/otp/resend.
func (h *OTPHandler) Resend(c *gin.Context) {
	var req dto.PhoneRequest
	if !bindJSON(c, &req) {
		return
	}

	dispatch, err := h.otpSvc.ResendOTP(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toDispatchResponse(dispatch))
}

// Verify handles POST /api/v1/otp/verify.
func (h *OTPHandler) Verify(c *gin.Context) {
	var req dto.CodeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.otpSvc.VerifyOTP(c.Request.Context(), req.PhoneNumber, req.Code); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.VerifyResponse{Verified: true})
}

// Clear handles POST /api/v1/otp/clear. It only ever clears the pending
// code of the authenticated caller's own number.
func (h *OTPHandler) Clear(c *gin.Context) {
	phone := c.GetString(middleware.CtxPhone)
	if phone == "" {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	if err := h.otpSvc.ClearOTP(c.Request.Context(), phone); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
