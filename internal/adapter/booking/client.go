// Package booking is the HTTP client for the external rail booking server.
package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"railpass-gateway/config"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const maxResponseBody = 64 << 10

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.BookingGateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a booking server client.
func NewClient(cfg config.BookingConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		log:        logger.Component(log, "booking.client"),
	}
}

// Book asks the booking server to reserve a seat. A booking is confirmed only
// on a 2xx answer that carries a booking_id; everything else is an error.
func (c *Client) Book(ctx context.Context, req ports.BookingGatewayRequest) (*ports.BookingConfirmation, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("booking: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("booking: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.ReferenceID)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("booking: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("booking: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "message").String()
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("reference_id", req.ReferenceID).
			Str("message", msg).
			Msg("booking rejected")
		return nil, fmt.Errorf("booking: status=%d message=%q", resp.StatusCode, msg)
	}

	bookingID := gjson.GetBytes(body, "booking_id").String()
	if bookingID == "" {
		return nil, fmt.Errorf("booking: status=%d: response has no booking_id", resp.StatusCode)
	}

	c.log.Info().
		Str("reference_id", req.ReferenceID).
		Str("booking_id", bookingID).
		Str("phone", logger.MaskPhone(req.PhoneNumber)).
		Msg("booking confirmed")

	return &ports.BookingConfirmation{BookingID: bookingID}, nil
}
