package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	connectTimeout  = 1 * time.Second
	responseTimeout = 5 * time.Second
	maxConnRetries  = 2
)

// client is the HTTP plumbing shared by the gateway adapters: bounded
// timeouts, retries on connection failures only, and normalized errors.
type client struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

func newClient(name, baseURL string) *client {
	return &client{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: responseTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}
}

type approveResponse struct {
	ApproveNo string    `json:"approve_no"`
	ApproveAt time.Time `json:"approve_at"`
	Amount    int64     `json:"amount"`
	Message   string    `json:"message"`
}

// post sends one JSON request and decodes the approval. Connection
// failures are retried up to maxConnRetries; a timeout or any received
// response is never retried.
func (c *client) post(ctx context.Context, path string, body any) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request body: %w", c.name, err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxConnRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create request: %w", c.name, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = classifyTransportError(c.name, err)
			if !IsRetryable(lastErr) {
				return nil, lastErr
			}
			continue
		}
		return c.decode(resp)
	}
	return nil, lastErr
}

func (c *client) decode(resp *http.Response) (*Result, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return nil, declineError(c.name, fmt.Sprintf("status %d, body %s", resp.StatusCode, string(raw)))
	}

	var approve approveResponse
	if err := json.NewDecoder(resp.Body).Decode(&approve); err != nil {
		return nil, declineError(c.name, fmt.Sprintf("unreadable response: %v", err))
	}
	if approve.ApproveNo == "" {
		return nil, declineError(c.name, "response is missing approve_no")
	}

	return &Result{
		ApproveNo: approve.ApproveNo,
		ApproveAt: approve.ApproveAt,
		Amount:    approve.Amount,
	}, nil
}
