// Package geo resolves free-text addresses to coordinates and quotes driving
// distance, time and delivery fee between two points.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Quote struct {
	FeeCents   int64   `json:"fee_cents"`
	ETAMinutes int     `json:"eta_minutes"`
	DistanceKM float64 `json:"distance_km"`
}

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Geocode resolves a free-text address. A miss is an error, not a zero point.
func (c *Client) Geocode(ctx context.Context, addressText string) (Point, error) {
	q := url.Values{"address": {addressText}, "key": {c.apiKey}}
	var out struct {
		Results []Point `json:"results"`
	}
	if err := c.get(ctx, "/geocode?"+q.Encode(), &out); err != nil {
		return Point{}, err
	}
	if len(out.Results) == 0 {
		return Point{}, fmt.Errorf("geocode: no result for address")
	}
	return out.Results[0], nil
}

// DistanceQuote returns fee, ETA and distance for a delivery run.
func (c *Client) DistanceQuote(ctx context.Context, origin, dest Point) (Quote, error) {
	q := url.Values{
		"olat": {fmt.Sprintf("%f", origin.Lat)},
		"olng": {fmt.Sprintf("%f", origin.Lng)},
		"dlat": {fmt.Sprintf("%f", dest.Lat)},
		"dlng": {fmt.Sprintf("%f", dest.Lng)},
		"key":  {c.apiKey},
	}
	var out Quote
	if err := c.get(ctx, "/distance?"+q.Encode(), &out); err != nil {
		return Quote{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geo: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
