package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nixlim/presetdeck/internal/contract"
)

const maxErrorBody = 512

type liveRequest struct {
	Spec            contract.ChartSpec `json:"spec"`
	OrgID           string             `json:"orgId"`
	ViewToken       string             `json:"viewToken,omitempty"`
	BypassCache     bool               `json:"bypassCache,omitempty"`
	CacheTTLSeconds int                `json:"cacheTtlSeconds,omitempty"`
}

// fetchLive posts the spec to the backend, retrying network failures with
// exponential backoff. It returns the number of attempts made.
func (c *Client) fetchLive(ctx context.Context, req Request, hash string) (contract.ChartResult, int, error) {
	if c.endpoint == "" {
		return contract.ChartResult{}, 0, &Error{Category: CategoryInvalidSpec, Message: "live mode requires an endpoint"}
	}

	body := liveRequest{
		Spec:            req.Spec,
		OrgID:           req.OrgID,
		BypassCache:     req.BypassCache,
		CacheTTLSeconds: req.CacheTTLSeconds,
	}
	if c.signer != nil {
		token, err := c.signer.Sign(hash, req.OrgID, req.RunID)
		if err != nil {
			return contract.ChartResult{}, 0, &Error{Category: CategoryInvalidSpec, Message: "signing view token", Err: err}
		}
		body.ViewToken = token
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return contract.ChartResult{}, 0, &Error{Category: CategoryInvalidSpec, Message: "encoding request", Err: err}
	}

	var lastErr error
	attempts := 0
	for i := 0; i < c.maxAttempts; i++ {
		if i > 0 {
			if err := c.sleep(ctx, c.backoff(i-1)); err != nil {
				return contract.ChartResult{}, attempts, aborted(err, attempts)
			}
		}
		if err := ctx.Err(); err != nil {
			return contract.ChartResult{}, attempts, aborted(err, attempts)
		}

		attempts++
		start := c.now()
		result, status, err := c.post(ctx, req.RunID, hash, payload)
		c.logger.LogAttempt(Attempt{
			RunID:    req.RunID,
			Hash:     hash,
			Number:   attempts,
			Status:   status,
			Err:      err,
			Duration: c.now().Sub(start),
		})
		if err == nil {
			return result, attempts, nil
		}
		if ctx.Err() != nil {
			return contract.ChartResult{}, attempts, aborted(ctx.Err(), attempts)
		}
		if !CategoryOf(err).Retryable() {
			return contract.ChartResult{}, attempts, err
		}
		lastErr = err
	}
	if te, ok := lastErr.(*Error); ok {
		te.Attempts = attempts
	}
	return contract.ChartResult{}, attempts, lastErr
}

// post performs a single round trip and classifies its failure.
func (c *Client) post(ctx context.Context, runID, hash string, payload []byte) (contract.ChartResult, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return contract.ChartResult{}, 0, &Error{Category: CategoryInvalidSpec, Message: "building request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Run-Id", runID)
	httpReq.Header.Set("X-Spec-Hash", hash)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return contract.ChartResult{}, 0, &Error{Category: CategoryNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		cat := CategoryNetwork
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			cat = CategoryInvalidSpec
		}
		return contract.ChartResult{}, resp.StatusCode, &Error{
			Category: cat,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("backend returned %d: %s", resp.StatusCode, msg),
		}
	}

	var result contract.ChartResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if ctx.Err() != nil {
			return contract.ChartResult{}, resp.StatusCode, aborted(ctx.Err(), 0)
		}
		return contract.ChartResult{}, resp.StatusCode, &Error{
			Category: CategoryInvalidResult,
			Status:   resp.StatusCode,
			Message:  "decoding response",
			Err:      err,
		}
	}
	return result, resp.StatusCode, nil
}
