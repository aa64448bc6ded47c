// Package backend is the HTTP client for the volume analysis service: it
// uploads DICOM files, fetches windowed slice images and requests ROI
// analyses.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"sliceview/internal/models"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond
)

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	// Timeout bounds a single HTTP round trip
	Timeout time.Duration

	// Attempts is the maximum number of tries for retryable failures
	Attempts int

	// Delay is the initial backoff between attempts
	Delay time.Duration

	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client

	// Logger receives request traces; nil discards them
	Logger *log.Logger
}

// Client talks to one backend base URL. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     hc,
		attempts: attempts,
		delay:    delay,
		logger:   logger,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// LoadDataset uploads files and returns the new session's cache id and
// per-projection slice counts.
func (c *Client) LoadDataset(ctx context.Context, files []File) (Dataset, error) {
	if len(files) == 0 {
		return Dataset{}, fmt.Errorf("no files to upload")
	}

	var resp loadResponse
	if err := c.post(ctx, PathLoadFiles, loadRequest{Files: files}, &resp); err != nil {
		return Dataset{}, err
	}
	if resp.CacheID == "" {
		return Dataset{}, fmt.Errorf("%w: %s: missing cache_id", ErrBadResponse, PathLoadFiles)
	}
	if len(resp.Shape) != models.NumProjections {
		return Dataset{}, fmt.Errorf("%w: %s: expected %d dimensions, got %d",
			ErrBadResponse, PathLoadFiles, models.NumProjections, len(resp.Shape))
	}

	var shape models.Shape
	for i, n := range resp.Shape {
		if n <= 0 {
			return Dataset{}, fmt.Errorf("%w: %s: non-positive dimension %d", ErrBadResponse, PathLoadFiles, n)
		}
		shape[i] = n
	}
	return Dataset{CacheID: resp.CacheID, Shape: shape}, nil
}

// GetProjection fetches one windowed slice and decodes its image.
func (c *Client) GetProjection(ctx context.Context, req ProjectionRequest) (models.ProjectionImage, error) {
	var resp projectionResponse
	if err := c.post(ctx, PathProjection, req, &resp); err != nil {
		return models.ProjectionImage{}, err
	}

	img, err := DecodeDataURL(resp.Image)
	if err != nil {
		return models.ProjectionImage{}, fmt.Errorf("%s: %w", PathProjection, err)
	}

	out := models.ProjectionImage{Image: img}
	if len(resp.Shape) >= 2 && resp.Shape[0] > 0 && resp.Shape[1] > 0 {
		out.Rows, out.Cols = resp.Shape[0], resp.Shape[1]
	} else {
		b := img.Bounds()
		out.Rows, out.Cols = b.Dy(), b.Dx()
	}
	return out, nil
}

// GaussianProfile requests a Gaussian fit of the mean column profile
// across the ROI.
func (c *Client) GaussianProfile(ctx context.Context, req AnalysisRequest) (*models.GaussianResult, error) {
	var res models.GaussianResult
	if err := c.post(ctx, PathGaussian, req, &res); err != nil {
		return nil, err
	}
	if len(res.XData) != len(res.YData) || len(res.YData) != len(res.YFit) {
		return nil, fmt.Errorf("%w: %s: series lengths differ", ErrBadResponse, PathGaussian)
	}
	return &res, nil
}

// MTFAnalysis requests the modulation transfer function along the ROI line.
func (c *Client) MTFAnalysis(ctx context.Context, req AnalysisRequest) (*models.MTFResult, error) {
	var res models.MTFResult
	if err := c.post(ctx, PathMTF, req, &res); err != nil {
		return nil, err
	}
	if len(res.Frequencies) != len(res.MTF) {
		return nil, fmt.Errorf("%w: %s: series lengths differ", ErrBadResponse, PathMTF)
	}
	return &res, nil
}

// post sends body as JSON and decodes the response into v, retrying
// transport failures and 5xx responses.
func (c *Client) post(ctx context.Context, path string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding %s request: %w", path, err)
	}

	requestID := uuid.NewString()
	start := time.Now()
	err = Retry(ctx, c.attempts, c.delay, func() error {
		return c.do(ctx, path, requestID, payload, v)
	})
	c.logger.Debug("backend request",
		"path", path,
		"request_id", requestID,
		"bytes", len(payload),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"err", err)
	return err
}

func (c *Client) do(ctx context.Context, path, requestID string, payload []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set(contentTypeHeader, "application/json")
	req.Header.Set(requestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &RetryableError{Err: fmt.Errorf("%w: %s: %v", ErrNetwork, path, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("%w: %s: reading body: %v", ErrNetwork, path, err)}
	}
	if err := checkStatus(path, resp.StatusCode, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadResponse, path, err)
	}
	return nil
}

func checkStatus(path string, code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	apiErr := &APIError{Endpoint: path, Status: code}
	var er errorResponse
	if json.Unmarshal(body, &er) == nil {
		apiErr.Message = er.Error
	}

	switch {
	case code == http.StatusNotFound:
		apiErr.Err = ErrNotFound
	case code >= 500:
		apiErr.Err = ErrNetwork
		return &RetryableError{Err: apiErr}
	default:
		apiErr.Err = ErrBadResponse
	}
	return apiErr
}
