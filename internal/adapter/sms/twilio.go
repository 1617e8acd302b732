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

// TwilioClient is the fallback provider.
// Auth is HTTP Basic with the account SID and auth token.
type TwilioClient struct {
	cfg        config.FallbackSMSConfig
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewTwilioClient creates the fallback SMS client.
func NewTwilioClient(cfg config.FallbackSMSConfig, httpClient HTTPClient, log zerolog.Logger) *TwilioClient {
	return &TwilioClient{
		cfg:        cfg,
		httpClient: httpClient,
		log:        logger.Component(log, "sms.twilio"),
	}
}

// Name returns the provider identifier.
func (c *TwilioClient) Name() domain.ProviderName {
	return domain.ProviderTwilio
}

// Configured reports whether the account SID and auth token are set.
func (c *TwilioClient) Configured() bool {
	return c.cfg.Configured()
}

// Send posts one message to the account-scoped Messages.json resource.
func (c *TwilioClient) Send(ctx context.Context, phone, message string) domain.DeliveryResult {
	if !c.Configured() {
		return domain.DeliveryFailed("twilio: credentials not configured")
	}

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", c.cfg.FromNumber)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(phone, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(phone, fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return c.fail(phone, fmt.Errorf("read response: %w", err))
	}

	// The Messages resource answers 201 Created; some proxies rewrite it to 200.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.fail(phone, fmt.Errorf("status=%d message=%q", resp.StatusCode, gjson.GetBytes(body, "message").String()))
	}

	sid := gjson.GetBytes(body, "sid").String()
	if sid == "" {
		return c.fail(phone, fmt.Errorf("status=%d: response has no message sid", resp.StatusCode))
	}

	c.log.Debug().
		Str("phone", logger.MaskPhone(phone)).
		Str("message_id", sid).
		Msg("sms accepted")

	return domain.DeliveryResult{Success: true, ProviderMessageID: sid}
}

func (c *TwilioClient) fail(phone string, err error) domain.DeliveryResult {
	c.log.Warn().Err(err).Str("phone", logger.MaskPhone(phone)).Msg("sms delivery failed")
	return domain.DeliveryFailed("twilio: " + err.Error())
}
