package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"railpass-gateway/internal/adapter/http/middleware"
	"railpass-gateway/internal/core/domain"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/internal/core/ports/mocks"
	"railpass-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testPhone = "+254712345678"

func init() {
	gin.SetMode(gin.TestMode)
}

func newJSONContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		raw, _ = json.Marshal(b)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func withSession(c *gin.Context, id uuid.UUID) {
	c.Set(middleware.CtxSessionID, id)
	c.Set(middleware.CtxPhone, testPhone)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- OTP Handler Tests ---

func TestOTPSend_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	h := NewOTPHandler(otpSvc)

	expires := time.Date(2026, 5, 4, 8, 10, 0, 0, time.UTC)
	otpSvc.EXPECT().SendOTP(gomock.Any(), testPhone).Return(&domain.OTPDispatch{
		Provider:  domain.ProviderTwilio,
		MessageID: "SM123",
		ExpiresAt: expires,
	}, nil)

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/send", map[string]string{"phone_number": testPhone})
	h.Send(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "twilio", data["provider"])
	assert.Equal(t, "SM123", data["message_id"])
	assert.Equal(t, "2026-05-04T08:10:00Z", data["expires_at"])
	assert.NotContains(t, w.Body.String(), "code")
}

func TestOTPSend_InvalidPhone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().SendOTP(gomock.Any(), gomock.Any()).Times(0)
	h := NewOTPHandler(otpSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/send", map[string]string{"phone_number": "0712345678"})
	h.Send(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "OTP_001", decode(t, w)["error_code"])
}

func TestOTPSend_MissingBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewOTPHandler(mocks.NewMockOTPService(ctrl))

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/send", "{}")
	h.Send(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REQ_001", decode(t, w)["error_code"])
}

func TestOTPSend_DeliveryUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().SendOTP(gomock.Any(), testPhone).Return(nil, apperror.ErrDeliveryUnavailable())
	h := NewOTPHandler(otpSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/send", map[string]string{"phone_number": testPhone})
	h.Send(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "OTP_002", decode(t, w)["error_code"])
}

func TestOTPResend_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().ResendOTP(gomock.Any(), testPhone).Return(&domain.OTPDispatch{Provider: domain.ProviderAfricasTalking}, nil)
	h := NewOTPHandler(otpSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/resend", map[string]string{"phone_number": testPhone})
	h.Resend(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOTPVerify_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().VerifyOTP(gomock.Any(), testPhone, "123456").Return(nil)
	h := NewOTPHandler(otpSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/verify", map[string]string{"phone_number": testPhone, "code": "123456"})
	h.Verify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["verified"])
}

func TestOTPVerify_WrongCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().VerifyOTP(gomock.Any(), testPhone, "000000").Return(apperror.ErrOTPInvalidCode(2))
	h := NewOTPHandler(otpSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/verify", map[string]string{"phone_number": testPhone, "code": "000000"})
	h.Verify(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "OTP_006", resp["error_code"])
	assert.Equal(t, float64(2), resp["details"].(map[string]interface{})["attempts_remaining"])
}

func TestOTPVerify_MalformedCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().VerifyOTP(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	h := NewOTPHandler(otpSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/verify", map[string]string{"phone_number": testPhone, "code": "12a4"})
	h.Verify(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REQ_001", decode(t, w)["error_code"])
}

func TestOTPClear_ClearsCallersOwnNumber(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().ClearOTP(gomock.Any(), testPhone).Return(nil)
	h := NewOTPHandler(otpSvc)

	// A phone number in the body is ignored.
	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/clear", map[string]string{"phone_number": "+254700000999"})
	c.Set(middleware.CtxPhone, testPhone)
	h.Clear(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOTPClear_RequiresSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().ClearOTP(gomock.Any(), gomock.Any()).Times(0)
	h := NewOTPHandler(otpSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/otp/clear", map[string]string{"phone_number": testPhone})
	h.Clear(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_003", decode(t, w)["error_code"])
}

func TestRouter_OTPClearIsAuthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().ClearOTP(gomock.Any(), gomock.Any()).Times(0)

	router := SetupRouter(RouterDeps{
		OTPSvc:     otpSvc,
		SessionSvc: mocks.NewMockSessionService(ctrl),
		WalletSvc:  mocks.NewMockWalletService(ctrl),
		TokenSvc:   mocks.NewMockTokenService(ctrl),
		Logger:     zerolog.Nop(),
	})

	body, _ := json.Marshal(map[string]string{"phone_number": testPhone})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/clear", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Session Handler Tests ---

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessionSvc := mocks.NewMockSessionService(ctrl)
	h := NewSessionHandler(sessionSvc)

	sess := &domain.Session{
		ID:            domain.SessionIDForPhone(testPhone),
		PhoneNumber:   testPhone,
		WalletAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		CreatedAt:     time.Now().UTC(),
	}
	expiry := time.Now().Add(24 * time.Hour)
	sessionSvc.EXPECT().Login(gomock.Any(), testPhone, "123456").Return(&ports.LoginResult{
		Session: sess,
		Token:   "jwt-token-123",
		Expiry:  expiry,
	}, nil)

	c, w := newJSONContext(http.MethodPost, "/api/v1/sessions", map[string]string{"phone_number": testPhone, "code": "123456"})
	h.Login(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "jwt-token-123", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
	session := data["session"].(map[string]interface{})
	assert.Equal(t, sess.ID.String(), session["id"])
	assert.Equal(t, sess.WalletAddress, session["wallet_address"])
	assert.NotContains(t, session, "expires_at")

	sid, ok := c.Get(middleware.CtxSessionID)
	require.True(t, ok, "session id is exposed for auditing")
	assert.Equal(t, sess.ID, sid)
}

func TestLogin_Expired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessionSvc := mocks.NewMockSessionService(ctrl)
	sessionSvc.EXPECT().Login(gomock.Any(), testPhone, "123456").Return(nil, apperror.ErrOTPExpired())
	h := NewSessionHandler(sessionSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/sessions", map[string]string{"phone_number": testPhone, "code": "123456"})
	h.Login(c)

	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "OTP_004", decode(t, w)["error_code"])
}

func TestSessionMe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewSessionHandler(mocks.NewMockSessionService(ctrl))
	sess := &domain.Session{ID: uuid.New(), PhoneNumber: testPhone, ExpiresAt: time.Now().Add(time.Hour)}

	c, w := newJSONContext(http.MethodGet, "/api/v1/sessions/me", nil)
	c.Set(middleware.CtxSession, sess)
	h.Me(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, testPhone, data["phone_number"])
	assert.NotEmpty(t, data["expires_at"])

	c, w = newJSONContext(http.MethodGet, "/api/v1/sessions/me", nil)
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessionSvc := mocks.NewMockSessionService(ctrl)
	h := NewSessionHandler(sessionSvc)
	id := uuid.New()
	sessionSvc.EXPECT().Logout(gomock.Any(), id).Return(nil)

	c, w := newJSONContext(http.MethodDelete, "/api/v1/sessions/me", nil)
	withSession(c, id)
	h.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
}

// --- Wallet Handler Tests ---

func TestGetBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)
	id := uuid.New()

	walletSvc.EXPECT().Balance(gomock.Any(), id).Return(&domain.Wallet{Balance: 50000, Currency: "KES"}, nil)

	c, w := newJSONContext(http.MethodGet, "/api/v1/wallets/balance", nil)
	withSession(c, id)
	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(50000), data["balance"])
	assert.Equal(t, "KES", data["currency"])
}

func TestGetBalance_MissingSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))

	c, w := newJSONContext(http.MethodGet, "/api/v1/wallets/balance", nil)
	h.GetBalance(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTopup_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)
	id := uuid.New()

	walletSvc.EXPECT().Topup(gomock.Any(), ports.TopupRequest{SessionID: id, Amount: 1000}).
		Return(&domain.Wallet{ID: uuid.New(), Balance: 1500, Currency: "KES"}, nil)

	c, w := newJSONContext(http.MethodPost, "/api/v1/wallets/topup", map[string]int64{"amount": 1000})
	withSession(c, id)
	h.Topup(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1500), data["balance"])
}

func TestTopup_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	walletSvc.EXPECT().Topup(gomock.Any(), gomock.Any()).Times(0)
	h := NewWalletHandler(walletSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/wallets/topup", map[string]int64{"amount": -5})
	withSession(c, uuid.New())
	h.Topup(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookTicket_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)
	id := uuid.New()
	confirmedAt := time.Now().UTC()

	walletSvc.EXPECT().BookTicket(gomock.Any(), ports.BookingRequest{
		SessionID:   id,
		PhoneNumber: testPhone,
		ReferenceID: "ref-001",
		TripID:      "NBO-MSA-0800",
		Fare:        300,
	}).Return(&domain.Booking{
		ID:                uuid.New(),
		ReferenceID:       "ref-001",
		TripID:            "NBO-MSA-0800",
		Fare:              300,
		Currency:          "KES",
		Status:            domain.BookingStatusConfirmed,
		ProviderBookingID: "BK-77",
		CreatedAt:         confirmedAt,
		ConfirmedAt:       &confirmedAt,
	}, nil)

	c, w := newJSONContext(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"reference_id": "ref-001",
		"trip_id":      "NBO-MSA-0800",
		"fare":         300,
	})
	withSession(c, id)
	h.BookTicket(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "CONFIRMED", data["status"])
	assert.Equal(t, "BK-77", data["provider_booking_id"])
	assert.NotEmpty(t, data["confirmed_at"])
	assert.Equal(t, "ref-001", c.GetString(middleware.CtxAuditResourceID))
}

func TestBookTicket_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	walletSvc.EXPECT().BookTicket(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientFunds())
	h := NewWalletHandler(walletSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"reference_id": "ref-001",
		"trip_id":      "NBO-MSA-0800",
		"fare":         300,
	})
	withSession(c, uuid.New())
	h.BookTicket(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "WAL_001", decode(t, w)["error_code"])
}

func TestBookTicket_UnsafeReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	walletSvc.EXPECT().BookTicket(gomock.Any(), gomock.Any()).Times(0)
	h := NewWalletHandler(walletSvc)

	c, w := newJSONContext(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"reference_id": "ref 001; drop",
		"trip_id":      "NBO-MSA-0800",
		"fare":         300,
	})
	withSession(c, uuid.New())
	h.BookTicket(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBookings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)
	id := uuid.New()

	walletSvc.EXPECT().History(gomock.Any(), id, 5).Return([]domain.Booking{
		{ID: uuid.New(), ReferenceID: "ref-2", Status: domain.BookingStatusFailed, FailureReason: "sold out"},
		{ID: uuid.New(), ReferenceID: "ref-1", Status: domain.BookingStatusConfirmed},
	}, nil)

	c, w := newJSONContext(http.MethodGet, "/api/v1/bookings?limit=5", nil)
	withSession(c, id)
	h.ListBookings(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
	items := data["items"].([]interface{})
	assert.Equal(t, "sold out", items[0].(map[string]interface{})["failure_reason"])
}

func TestListBookings_InvalidLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	walletSvc.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	h := NewWalletHandler(walletSvc)

	c, w := newJSONContext(http.MethodGet, "/api/v1/bookings?limit=abc", nil)
	withSession(c, uuid.New())
	h.ListBookings(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	rd := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Name().Return("postgresql").AnyTimes()
	rd.EXPECT().Name().Return("redis").AnyTimes()
	pg.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)
	gomock.InOrder(
		rd.EXPECT().Ping(gomock.Any()).Return(nil),
		rd.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")),
	)

	c, w := newJSONContext(http.MethodGet, "/health", nil)
	HealthCheck(pg, rd)(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	c, w = newJSONContext(http.MethodGet, "/health", nil)
	HealthCheck(pg, rd)(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Equal(t, "unhealthy", deps["redis"].(map[string]interface{})["status"])
}

// --- Router ---

func TestRouter_AuthenticatedRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokens := mocks.NewMockTokenService(ctrl)
	sessionSvc := mocks.NewMockSessionService(ctrl)
	walletSvc := mocks.NewMockWalletService(ctrl)
	sessionID := domain.SessionIDForPhone(testPhone)

	tokens.EXPECT().Validate("tok").Return(&ports.TokenClaims{SessionID: sessionID, Phone: testPhone}, nil)
	sessionSvc.EXPECT().Restore(gomock.Any(), sessionID).Return(&domain.Session{ID: sessionID, PhoneNumber: testPhone}, nil)
	walletSvc.EXPECT().Balance(gomock.Any(), sessionID).Return(&domain.Wallet{Balance: 10, Currency: "KES"}, nil)

	router := SetupRouter(RouterDeps{
		OTPSvc:     mocks.NewMockOTPService(ctrl),
		SessionSvc: sessionSvc,
		WalletSvc:  walletSvc,
		TokenSvc:   tokens,
		Logger:     zerolog.Nop(),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallets/balance", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/balance", nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set(middleware.HeaderRequestID, "req-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", decode(t, w)["request_id"])
}

func TestRouter_RateLimitsOTPSend(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	otpSvc := mocks.NewMockOTPService(ctrl)
	otpSvc.EXPECT().SendOTP(gomock.Any(), testPhone).Return(&domain.OTPDispatch{Provider: domain.ProviderTwilio}, nil).Times(5)

	router := SetupRouter(RouterDeps{
		OTPSvc:      otpSvc,
		SessionSvc:  mocks.NewMockSessionService(ctrl),
		WalletSvc:   mocks.NewMockWalletService(ctrl),
		TokenSvc:    mocks.NewMockTokenService(ctrl),
		RateLimiter: middleware.NewLocalRateLimitStore(),
		Logger:      zerolog.Nop(),
	})

	send := func() int {
		body, _ := json.Marshal(map[string]string{"phone_number": testPhone})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/send", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, send(), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, send())
}
