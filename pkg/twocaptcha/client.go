// Package twocaptcha is a minimal client for the 2Captcha image solving API.
package twocaptcha

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultSubmitURL = "https://2captcha.com/in.php"
	defaultResultURL = "https://2captcha.com/res.php"
)

// ErrNotReady is returned by Result while the service is still working on
// the challenge. Any other error from Result is terminal.
var ErrNotReady = errors.New("twocaptcha: solution not ready")

// Client defines the 2Captcha API operations.
type Client interface {
	// Submit uploads a challenge image and returns the service job id.
	Submit(ctx context.Context, image []byte) (string, error)
	// Result fetches the solution for a job id. Returns ErrNotReady while
	// the job is still pending.
	Result(ctx context.Context, id string) (string, error)
}

// APIError is returned when the service answers with a terminal error code.
type APIError struct {
	Code string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twocaptcha: %s", e.Code)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithSubmitURL overrides the submission endpoint.
func WithSubmitURL(u string) Option {
	return func(c *httpClient) {
		c.submitURL = u
	}
}

// WithResultURL overrides the result endpoint.
func WithResultURL(u string) Option {
	return func(c *httpClient) {
		c.resultURL = u
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey    string
	submitURL string
	resultURL string
	http      *http.Client
}

// NewClient creates a new 2Captcha client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		submitURL: defaultSubmitURL,
		resultURL: defaultResultURL,
		http:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is the JSON envelope used by both endpoints. Status 1 means
// Request carries the payload (job id or solution); status 0 means Request
// carries an error code.
type apiResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

func (c *httpClient) Submit(ctx context.Context, image []byte) (string, error) {
	form := url.Values{
		"key":    {c.apiKey},
		"method": {"base64"},
		"body":   {base64.StdEncoding.EncodeToString(image)},
		"json":   {"1"},
	}

	resp, err := c.postForm(ctx, c.submitURL, form)
	if err != nil {
		return "", err
	}
	if resp.Status != 1 {
		return "", &APIError{Code: resp.Request}
	}
	return resp.Request, nil
}

func (c *httpClient) Result(ctx context.Context, id string) (string, error) {
	form := url.Values{
		"key":    {c.apiKey},
		"action": {"get"},
		"id":     {id},
		"json":   {"1"},
	}

	resp, err := c.postForm(ctx, c.resultURL, form)
	if err != nil {
		return "", err
	}
	if resp.Status == 1 {
		return resp.Request, nil
	}
	if resp.Request == "CAPCHA_NOT_READY" {
		return "", ErrNotReady
	}
	return "", &APIError{Code: resp.Request}
}

func (c *httpClient) postForm(ctx context.Context, endpoint string, form url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twocaptcha: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twocaptcha: request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("twocaptcha: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twocaptcha: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("twocaptcha: decode response: %w", err)
	}
	return &parsed, nil
}
