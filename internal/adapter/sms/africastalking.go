package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"railpass-gateway/config"
	"railpass-gateway/internal/core/domain"
	"railpass-gateway/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const africasTalkingPath = "/version1/messaging"

// AfricasTalkingClient is the primary provider.
// Auth is a static apiKey header; the body is form-encoded.
type AfricasTalkingClient struct {
	cfg        config.PrimarySMSConfig
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewAfricasTalkingClient creates the primary SMS client.
func NewAfricasTalkingClient(cfg config.PrimarySMSConfig, httpClient HTTPClient, log zerolog.Logger) *AfricasTalkingClient {
	return &AfricasTalkingClient{
		cfg:        cfg,
		httpClient: httpClient,
		log:        logger.Component(log, "sms.africastalking"),
	}
}

// Name returns the provider identifier.
func (c *AfricasTalkingClient) Name() domain.ProviderName {
	return domain.ProviderAfricasTalking
}

// Configured reports whether the API key and username are set.
func (c *AfricasTalkingClient) Configured() bool {
	return c.cfg.Configured()
}

// Send posts one message. Success is decided by the first recipient's status.
func (c *AfricasTalkingClient) Send(ctx context.Context, phone, message string) domain.DeliveryResult {
	if !c.Configured() {
		return domain.DeliveryFailed("africastalking: credentials not configured")
	}

	form := url.Values{}
	form.Set("username", c.cfg.Username)
	form.Set("to", phone)
	form.Set("message", message)
	if c.cfg.SenderID != "" {
		form.Set("from", c.cfg.SenderID)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + africasTalkingPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(phone, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(phone, fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return c.fail(phone, fmt.Errorf("read response: %w", err))
	}
	if !gjson.ValidBytes(body) {
		return c.fail(phone, fmt.Errorf("status=%d: response is not JSON", resp.StatusCode))
	}

	recipient := gjson.GetBytes(body, "SMSMessageData.Recipients.0")
	if status := recipient.Get("status").String(); status != "Success" {
		detail := status
		if detail == "" {
			detail = gjson.GetBytes(body, "SMSMessageData.Message").String()
		}
		return c.fail(phone, fmt.Errorf("status=%d recipient status %q", resp.StatusCode, detail))
	}

	messageID := recipient.Get("messageId").String()
	c.log.Debug().
		Str("phone", logger.MaskPhone(phone)).
		Str("message_id", messageID).
		Msg("sms accepted")

	return domain.DeliveryResult{Success: true, ProviderMessageID: messageID}
}

func (c *AfricasTalkingClient) fail(phone string, err error) domain.DeliveryResult {
	c.log.Warn().Err(err).Str("phone", logger.MaskPhone(phone)).Msg("sms delivery failed")
	return domain.DeliveryFailed("africastalking: " + err.Error())
}
