// Package gateway adapts the external mobile-money network. Outbound
// requests carry the same timestamp-dot-body HMAC scheme the network
// uses for its webhooks, so either side can verify the other.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultTimeout = 30 * time.Second

// HTTPGateway calls the real network over HTTPS.
type HTTPGateway struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

func NewHTTPGateway(baseURL, secret string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (g *HTTPGateway) InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Timestamp", timestamp)
	httpReq.Header.Set("X-Signature", g.sign(timestamp, body))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ChargeResult{
			Accepted: false,
			Message:  fmt.Sprintf("gateway returned %d", resp.StatusCode),
		}, nil
	}

	var result ChargeResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &result, nil
}

func (g *HTTPGateway) sign(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
