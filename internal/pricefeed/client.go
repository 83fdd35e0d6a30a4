// Package pricefeed reads the latest asset price from the configured
// external feed, for display-side conversion of escrow amounts.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Quote is the feed's latest answer.
type Quote struct {
	Price     string    `json:"price"`
	Decimals  int       `json:"decimals"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Client struct {
	feedURL    string
	httpClient *http.Client
}

func NewClient(feedURL string) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Latest fetches the current quote.
func (c *Client) Latest(ctx context.Context) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL+"/latest", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	return &q, nil
}
