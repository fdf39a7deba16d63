// Package scoring is the HTTP client for the bounce-back prediction service.
// A single endpoint accepts either a multipart CSV upload or a customer
// identifier in the query string.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/model"
	"github.com/google/uuid"
)

// DefaultURL is where the service listens in a local deployment.
const DefaultURL = "http://localhost:8000/predict"

// Predictor is the contract the rest of the application depends on.
type Predictor interface {
	PredictFile(ctx context.Context, name string, body io.Reader) (*model.BatchResult, error)
	PredictCustomer(ctx context.Context, customerID string) (*model.CustomerPrediction, error)
}

// Config holds client settings.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUploadProgress copies every uploaded byte to w, typically a progress bar.
func WithUploadProgress(w io.Writer) Option {
	return func(c *Client) {
		c.progress = w
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client implements Predictor over HTTP.
type Client struct {
	httpClient *http.Client
	progress   io.Writer
	logger     *slog.Logger
	endpoint   string
}

// NewClient creates a new scoring client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid scoring URL %q: %w", common.ErrInvalidConfig, endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scoring URL must be http or https, got %q", common.ErrInvalidConfig, endpoint)
	}

	c := &Client{
		endpoint: u.String(),
		logger:   slog.Default(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the prediction URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// PredictFile uploads the CSV as the "file" field of a multipart form. The
// body is streamed; it is never buffered in memory.
func (c *Client) PredictFile(ctx context.Context, name string, body io.Reader) (*model.BatchResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
		header.Set("Content-Type", "text/csv")

		part, err := mw.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		src := body
		if c.progress != nil {
			src = io.TeeReader(body, c.progress)
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result model.BatchResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if result.Predictions == nil {
		return nil, fmt.Errorf("%w: missing predictions", common.ErrMalformedResponse)
	}
	result.Source = name

	return &result, nil
}

// PredictCustomer looks up a single customer by identifier.
func (c *Client) PredictCustomer(ctx context.Context, customerID string) (*model.CustomerPrediction, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("customerID", customerID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var envelope struct {
		CustomerPrediction *model.CustomerPrediction `json:"customer_prediction"`
	}
	if err := c.do(req, &envelope); err != nil {
		return nil, err
	}
	if envelope.CustomerPrediction == nil {
		return nil, fmt.Errorf("%w: missing customer_prediction", common.ErrMalformedResponse)
	}

	return envelope.CustomerPrediction, nil
}

// do sends the request and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Scoring request finished",
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// APIError is a non-2xx reply from the service.
type APIError struct {
	Detail     string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// Unwrap lets 5xx replies match common.ErrServiceUnavailable.
func (e *APIError) Unwrap() error {
	if e.StatusCode >= http.StatusInternalServerError {
		return common.ErrServiceUnavailable
	}
	return nil
}

// newAPIError extracts the optional "detail" field. Validation failures carry
// a list of {msg} objects instead of a string.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		apiErr.Detail = strings.Join(msgs, "; ")
	}

	return apiErr
}

// Describe renders err the way the operator sees it: the service detail when
// there is one, otherwise the transport message, prefixed with "Error: ".
func Describe(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "Error: " + apiErr.Error()
	}
	return "Error: " + err.Error()
}
