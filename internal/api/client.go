package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is the per-request timeout for external HTTP APIs.
const DefaultTimeout = 30 * time.Second

// NewClient returns a resty client for a JSON API rooted at baseURL.
// Retries are left to the caller, which owns the retry policy.
func NewClient(baseURL string, timeout time.Duration) *resty.Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "liquidity-manager")
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Check converts a resty result into a single error.
func Check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	return &StatusError{
		Method: resp.Request.Method,
		URL:    resp.Request.URL,
		Status: resp.StatusCode(),
		Body:   errorBody(resp.Body()),
	}
}

func errorBody(b []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	text := strings.TrimSpace(string(b))
	if len(text) > 256 {
		text = text[:256]
	}
	return text
}
