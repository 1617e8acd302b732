// Package sms holds the outbound SMS gateway clients used to deliver one-time codes.
// Each client performs exactly one HTTP request per Send and never retries;
// the OTP service decides whether to fall back to another provider.
package sms

import (
	"io"
	"net/http"
)

// maxResponseBody bounds how much of a gateway response is read.
const maxResponseBody = 64 << 10

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
}
