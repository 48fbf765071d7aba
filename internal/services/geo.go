package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
)

// GeoResolver maps a client IP to approximate coordinates. A nil result
// with a nil error means the IP has no known location.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (*models.Coordinates, error)
}

var errGeoLookup = errors.New("geo lookup failed")

// HTTPGeoResolver queries an ip-api compatible JSON endpoint
// (GET <BaseURL><ip> -> {"status":"success","lat":..,"lon":..}).
type HTTPGeoResolver struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPGeoResolver(baseURL string, timeout time.Duration) *HTTPGeoResolver {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HTTPGeoResolver{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (r *HTTPGeoResolver) Resolve(ctx context.Context, ip string) (*models.Coordinates, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+url.PathEscape(parsed.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errGeoLookup, err)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errGeoLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errGeoLookup, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", errGeoLookup, err)
	}
	if body.Status != "success" {
		return nil, nil
	}
	return &models.Coordinates{Lon: body.Lon, Lat: body.Lat}, nil
}
