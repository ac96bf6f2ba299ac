// Package gateway provides image embedding and person detection through
// the HTTP vision gateway (CLIP/DINOv2 behind a small REST API).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
)

// Ensure Client implements the interfaces.
var (
	_ driven.ImageEmbedder  = (*Client)(nil)
	_ driven.PersonDetector = (*Client)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the gateway client.
type Config struct {
	// BaseURL is the gateway base URL (default: http://127.0.0.1:8000).
	BaseURL string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64
}

// Client talks to the vision gateway.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter

	mu         sync.RWMutex
	model      string
	dimensions int
}

type embedResponse struct {
	Embedding  []float64 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

type detectResponse struct {
	PeopleDetected   bool      `json:"people_detected"`
	PeopleCount      int       `json:"people_count"`
	ConfidenceScores []float64 `json:"confidence_scores"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// NewClient creates a new gateway client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(limit, burst),
	}
}

func endpointFor(mode driven.EmbedMode) string {
	switch mode {
	case driven.EmbedRemovePeople:
		return "/encode/preprocessed"
	case driven.EmbedRealtime:
		return "/encode/navigation"
	default:
		return "/encode"
	}
}

// Embed uploads an image and returns its embedding.
func (c *Client) Embed(ctx context.Context, image []byte, mode driven.EmbedMode) ([]float32, error) {
	var resp embedResponse
	if err := c.postImage(ctx, endpointFor(mode), image, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding from %s", domain.ErrEmbeddingService, endpointFor(mode))
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}

	c.mu.Lock()
	if c.dimensions == 0 {
		c.dimensions = len(embedding)
	}
	c.mu.Unlock()

	return embedding, nil
}

// Detect reports people visible in an image.
func (c *Client) Detect(ctx context.Context, image []byte) (domain.Detection, error) {
	var resp detectResponse
	if err := c.postImage(ctx, "/detect/people", image, &resp); err != nil {
		return domain.Detection{}, err
	}
	return domain.Detection{
		PeopleDetected: resp.PeopleDetected,
		PeopleCount:    resp.PeopleCount,
		Confidences:    resp.ConfidenceScores,
	}, nil
}

func (c *Client) postImage(ctx context.Context, endpoint string, image []byte, out any) error {
	if len(image) == 0 {
		return fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return fmt.Errorf("create form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %w", domain.ErrEmbeddingService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, endpoint, out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingService, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return fmt.Errorf("%w: %s returned status %d", domain.ErrEmbeddingService, endpoint, resp.StatusCode)
		}
		return fmt.Errorf("%w: %s returned status %d: %s",
			domain.ErrEmbeddingService, endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrEmbeddingService, endpoint, err)
	}
	return nil
}

// Dimensions returns the embedding size reported by the gateway, 0 until
// the first successful Ping or Embed.
func (c *Client) Dimensions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimensions
}

// ModelName returns the model reported by the gateway's health check.
func (c *Client) ModelName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == "" {
		return "unknown"
	}
	return c.model
}

// Ping checks /health and records the model name and dimensions.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("gateway: failed to create ping request: %w", err)
	}

	var health healthResponse
	if err := c.do(req, "/health", &health); err != nil {
		return err
	}
	if health.Status != "" && health.Status != "ok" && health.Status != "healthy" {
		return fmt.Errorf("%w: gateway status %q", domain.ErrEmbeddingService, health.Status)
	}

	c.mu.Lock()
	c.model = health.Model
	if health.Dimensions > 0 {
		c.dimensions = health.Dimensions
	}
	c.mu.Unlock()
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
