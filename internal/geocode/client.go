// Package geocode resolves geographic coordinates to a place name via a
// reverse-geocoding HTTP service. Lookups for the same coordinate pair are
// cached for a short TTL because a map position is often re-queried while the
// user fiddles with the add-city form.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jfenske/worldwise/internal/domain"
)

// Place is the result of a successful reverse-geocode lookup.
// City may be empty when only a locality name is known.
type Place struct {
	City        string `json:"city"`
	Locality    string `json:"locality"`
	CountryName string `json:"countryName"`
	CountryCode string `json:"countryCode"`
}

// Name returns the best available place name: city, falling back to locality.
func (p Place) Name() string {
	if p.City != "" {
		return p.City
	}
	return p.Locality
}

// Geocoder is the lookup operation the form depends on.
type Geocoder interface {
	// Reverse resolves a coordinate pair to a Place.
	// Returns domain.ErrUnresolvable when the coordinates do not belong to a
	// city (the payload carries no country code) and domain.ErrUnavailable on
	// transport failure.
	Reverse(ctx context.Context, pos domain.Position) (Place, error)
}

// Client is the HTTP implementation of Geocoder.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
	cache   *gocache.Cache
}

// NewClient constructs a Client for the reverse-geocoding service at baseURL
// (e.g. https://api.bigdatacloud.net/data/reverse-geocode-client).
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(99)}))
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		log:     log,
		cache:   gocache.New(15*time.Minute, 30*time.Minute),
	}
}

var _ Geocoder = (*Client)(nil)

// Reverse implements Geocoder. Unresolvable coordinates are cached like
// successes; pointing at the same patch of ocean twice should not cost two
// round trips.
func (c *Client) Reverse(ctx context.Context, pos domain.Position) (Place, error) {
	key := cacheKey(pos)
	if cached, found := c.cache.Get(key); found {
		place := cached.(Place)
		if place.CountryCode == "" {
			return Place{}, domain.ErrUnresolvable
		}
		return place, nil
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(pos.Lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(pos.Lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("geocode.Client.Reverse: build request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "geocoder unreachable", "lat", pos.Lat, "lng", pos.Lng, "error", err)
		return Place{}, fmt.Errorf("geocode.Client.Reverse: %w: %v", domain.ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return Place{}, fmt.Errorf("geocode.Client.Reverse: %w: unexpected status %d", domain.ErrUnavailable, res.StatusCode)
	}

	var place Place
	if err := json.NewDecoder(res.Body).Decode(&place); err != nil {
		return Place{}, fmt.Errorf("geocode.Client.Reverse: %w: decode response: %v", domain.ErrUnavailable, err)
	}

	c.cache.Set(key, place, gocache.DefaultExpiration)

	if place.CountryCode == "" {
		return Place{}, domain.ErrUnresolvable
	}
	return place, nil
}

// cacheKey rounds to ~0.1m precision so float noise does not split entries.
func cacheKey(pos domain.Position) string {
	return strconv.FormatFloat(pos.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(pos.Lng, 'f', 6, 64)
}
