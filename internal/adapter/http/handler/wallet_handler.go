package handler

import (
	"strconv"

	"railpass-gateway/internal/adapter/http/dto"
	"railpass-gateway/internal/adapter/http/middleware"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet and booking endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetBalance handles GET /api/v1/wallets/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	w, err := h.walletSvc.Balance(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{
		Balance:  w.Balance,
		Currency: w.Currency,
	})
}

// Topup handles POST /api/v1/wallets/topup.
func (h *WalletHandler) Topup(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req dto.TopupRequest
	if !bindJSON(c, &req) {
		return
	}

	w, err := h.walletSvc.Topup(c.Request.Context(), ports.TopupRequest{
		SessionID: id,
		Amount:    req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, w.ID.String())
	response.OK(c, dto.WalletBalanceResponse{
		Balance:  w.Balance,
		Currency: w.Currency,
	})
}

// BookTicket handles POST /api/v1/bookings.
func (h *WalletHandler) BookTicket(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req dto.BookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.walletSvc.BookTicket(c.Request.Context(), ports.BookingRequest{
		SessionID:   id,
		PhoneNumber: c.GetString(middleware.CtxPhone),
		ReferenceID: req.ReferenceID,
		TripID:      req.TripID,
		Fare:        req.Fare,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, b.ReferenceID)
	response.Created(c, dto.NewBookingResponse(b))
}

// ListBookings handles GET /api/v1/bookings?limit=N.
func (h *WalletHandler) ListBookings(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(c, apperror.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	bookings, err := h.walletSvc.History(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, dto.NewBookingResponse(&bookings[i]))
	}
	response.OK(c, dto.BookingListResponse{Items: items, Count: len(items)})
}
