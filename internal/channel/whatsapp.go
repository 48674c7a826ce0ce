// Package channel implements the outbound chat transport. Sends are
// fire-and-forget from the dialogue's point of view: failures are logged by
// the caller and never retried.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

type textPayload struct {
	To   string `json:"to"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

type mediaPayload struct {
	To    string `json:"to"`
	Type  string `json:"type"`
	Image struct {
		Link string `json:"link"`
	} `json:"image"`
}

func (c *Client) SendText(ctx context.Context, channelAddress, text string) error {
	p := textPayload{To: channelAddress, Type: "text"}
	p.Text.Body = text
	return c.post(ctx, p)
}

func (c *Client) SendMedia(ctx context.Context, channelAddress, url string) error {
	p := mediaPayload{To: channelAddress, Type: "image"}
	p.Image.Link = url
	return c.post(ctx, p)
}

func (c *Client) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("channel send: unexpected status %d", resp.StatusCode)
	}
	return nil
}
