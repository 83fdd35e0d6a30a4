package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const dispatchTimeout = 15 * time.Second

// JobRequest is the payload posted to the oracle node. The oracle
// answers later by calling back with the request id.
type JobRequest struct {
	RequestID      string `json:"request_id"`
	JobID          string `json:"job_id"`
	ProjectID      uint64 `json:"project_id"`
	MilestoneIndex int    `json:"milestone_index"`
	Data           string `json:"data"`
	CallbackURL    string `json:"callback_url"`
}

// Client dispatches verification jobs to the external oracle node.
// Dispatches are paced by a rate limiter so a burst of milestone
// requests cannot hammer the oracle endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: dispatchTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Dispatch posts the job to the oracle. A non-2xx answer is an error;
// the oracle's actual verdict arrives asynchronously via the callback
// endpoint.
func (c *Client) Dispatch(ctx context.Context, job JobRequest) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/jobs", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}
	return nil
}
