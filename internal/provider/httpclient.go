package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

const (
	httpTimeout  = 10 * time.Second
	httpRetryMax = 2
)

// newRetryClient builds the outbound HTTP client shared by the network
// adapters: bounded timeout, 2 retries, no client-level logging (adapters log
// outcomes themselves).
func newRetryClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = httpRetryMax
	client.HTTPClient.Timeout = httpTimeout
	client.Logger = nil

	return client
}

// getJSON performs a rate-limited GET and decodes the JSON response into out.
// headers may be nil.
func getJSON(
	ctx context.Context,
	client *retryablehttp.Client,
	limiter *rate.Limiter,
	url string,
	headers map[string]string,
	out any,
) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			body = nil
		}

		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
