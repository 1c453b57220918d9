// Package remote holds the clients for the identity and catalog services.
// Lookups are idempotent GETs: bounded timeouts, up to two retries on
// transport failures, and a circuit breaker per upstream.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

const (
	connectTimeout  = 1 * time.Second
	responseTimeout = 5 * time.Second
	maxRetries      = 2
)

// envelope is the result-code wrapper every internal API responds with.
type envelope struct {
	ResultCode int             `json:"rtncd"`
	Message    string          `json:"rtnmsg"`
	Response   json.RawMessage `json:"response"`
}

const envelopeSuccess = 1000

type caller struct {
	name       string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*envelope]

	connectionCode resultcode.Code
	responseCode   resultcode.Code
}

func newCaller(name, baseURL string, connectionCode, responseCode resultcode.Code) *caller {
	return &caller{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: responseTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		breaker: gobreaker.NewCircuitBreaker[*envelope](gobreaker.Settings{
			Name: name,
		}),
		connectionCode: connectionCode,
		responseCode:   responseCode,
	}
}

// get fetches path and unmarshals the envelope response into out.
func (c *caller) get(ctx context.Context, path string, out any) error {
	env, err := c.breaker.Execute(func() (*envelope, error) {
		return c.fetch(ctx, path)
	})
	if err != nil {
		if _, coded := err.(*resultcode.Error); coded {
			return err
		}
		// breaker-open and similar local failures never reached the upstream
		return resultcode.Wrap(c.connectionCode, slog.LevelError,
			fmt.Sprintf("%s call rejected: %v", c.name, err), err)
	}

	if env.ResultCode != envelopeSuccess {
		return resultcode.Newf(c.responseCode, slog.LevelInfo,
			fmt.Sprintf("%s responded with code %d: %s", c.name, env.ResultCode, env.Message))
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return resultcode.Wrap(c.responseCode, slog.LevelError,
			fmt.Sprintf("%s response payload is unreadable: %v", c.name, err), err)
	}
	return nil
}

func (c *caller) fetch(ctx context.Context, path string) (*envelope, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, resultcode.Wrap(c.connectionCode, slog.LevelError,
				fmt.Sprintf("%s: failed to create request: %v", c.name, err), err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = resultcode.Wrap(c.connectionCode, slog.LevelError,
				fmt.Sprintf("%s connection failed: %v", c.name, err), err)
			continue
		}

		env := &envelope{}
		err = json.NewDecoder(resp.Body).Decode(env)
		resp.Body.Close()
		if err != nil {
			return nil, resultcode.Wrap(c.responseCode, slog.LevelError,
				fmt.Sprintf("%s returned an unreadable body: %v", c.name, err), err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, resultcode.Newf(c.responseCode, slog.LevelInfo,
				fmt.Sprintf("%s returned status %d: %s", c.name, resp.StatusCode, env.Message))
		}
		return env, nil
	}
	return nil, lastErr
}
