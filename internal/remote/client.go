// Package remote is the HTTP client for the city service the application
// syncs against. The service is consumed, not owned: this package only
// implements the wire contract (list, get, create, delete on /cities) and
// maps transport outcomes onto the domain error taxonomy.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jfenske/worldwise/internal/domain"
)

// CityService defines the remote operations the store depends on.
// Defining the interface here (in the producer package, next to the concrete
// client) keeps the wire contract and its Go shape in one place; the store
// re-declares what it needs on its side.
type CityService interface {
	// List returns all cities in server order.
	List(ctx context.Context) ([]domain.City, error)

	// Get returns a single city by ID.
	// Returns domain.ErrNotFound if no city with that ID exists.
	Get(ctx context.Context, id uuid.UUID) (domain.City, error)

	// Create persists a draft and returns the record with its server-assigned ID.
	Create(ctx context.Context, draft domain.CityDraft) (domain.City, error)

	// Delete removes a city by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Client is the concrete HTTP implementation of CityService.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient constructs a Client for the city service at baseURL.
// The caller owns the http.Client and its timeout; passing nil uses
// http.DefaultClient. A nil logger discards request logging.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(99)}))
	}
	return &Client{baseURL: baseURL, http: httpClient, log: log}
}

var _ CityService = (*Client)(nil)

// List fetches GET /cities.
func (c *Client) List(ctx context.Context) ([]domain.City, error) {
	var cities []domain.City
	if err := c.do(ctx, http.MethodGet, "/cities", nil, &cities); err != nil {
		return nil, fmt.Errorf("remote.Client.List: %w", err)
	}
	return cities, nil
}

// Get fetches GET /cities/{id}.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (domain.City, error) {
	var city domain.City
	if err := c.do(ctx, http.MethodGet, "/cities/"+id.String(), nil, &city); err != nil {
		return domain.City{}, fmt.Errorf("remote.Client.Get: %w", err)
	}
	return city, nil
}

// Create sends POST /cities and returns the record the server persisted,
// including its assigned ID and any normalized field values.
func (c *Client) Create(ctx context.Context, draft domain.CityDraft) (domain.City, error) {
	var city domain.City
	if err := c.do(ctx, http.MethodPost, "/cities", draft, &city); err != nil {
		return domain.City{}, fmt.Errorf("remote.Client.Create: %w", err)
	}
	return city, nil
}

// Delete sends DELETE /cities/{id}.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.do(ctx, http.MethodDelete, "/cities/"+id.String(), nil, nil); err != nil {
		return fmt.Errorf("remote.Client.Delete: %w", err)
	}
	return nil
}

// do runs one request against the service. A non-nil body is JSON-encoded;
// a non-nil out receives the decoded response body. Transport failures and
// undecodable bodies wrap domain.ErrUnavailable, 404 wraps domain.ErrNotFound.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "city service unreachable", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case res.StatusCode < 200 || res.StatusCode > 299:
		// Drain so the connection can be reused, then report the status.
		_, _ = io.Copy(io.Discard, res.Body)
		c.log.WarnContext(ctx, "city service error", "method", method, "path", path, "status", res.StatusCode)
		return fmt.Errorf("%w: unexpected status %d", domain.ErrUnavailable, res.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", domain.ErrUnavailable, err)
		}
	}
	return nil
}
