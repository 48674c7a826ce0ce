// Package payment talks to the payment-link provider: create a checkout link
// for an amount, later poll its status.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

type Link struct {
	URL        string `json:"url"`
	ExternalID string `json:"external_id"`
}

type Gateway struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewGateway(baseURL, token string) *Gateway {
	return &Gateway{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

func (g *Gateway) CreateLink(ctx context.Context, amountCents int64, reference string) (*Link, error) {
	body, err := json.Marshal(map[string]any{
		"amount":    amountCents,
		"currency":  "local",
		"reference": reference,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/links", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment: create link status %d", resp.StatusCode)
	}
	var link Link
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (g *Gateway) CheckStatus(ctx context.Context, externalID string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/links/"+externalID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment: check status %d", resp.StatusCode)
	}
	var out struct {
		Result Status `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Result, nil
}
