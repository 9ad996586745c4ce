// internal/gateway/gateway.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway is the payout provider capability set. Implementations never
// panic on provider errors; declined operations come back in the result with
// Success=false, transport failures come back as the error value.
type Gateway interface {
	ID() string
	Name() string
	VerifyUPI(ctx context.Context, upiID string) (*VerifyResult, error)
	ProcessPayout(ctx context.Context, req *PayoutRequest) (*PayoutResult, error)
	CheckPayoutStatus(ctx context.Context, payoutID string) (*StatusResult, error)
}

// Credentials carries the per-gateway API key pair. TestMode points the
// provider at its sandbox endpoints where it has any.
type Credentials struct {
	APIKey    string
	APISecret string
	TestMode  bool
}

func (c Credentials) configured() bool {
	return c.APIKey != "" && c.APISecret != ""
}

type VerifyResult struct {
	Success     bool                   `json:"success"`
	Gateway     string                 `json:"gateway"`
	AccountName string                 `json:"account_name,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Response    map[string]interface{} `json:"response,omitempty"`
}

type PayoutRequest struct {
	UPIID           string
	Amount          decimal.Decimal
	Currency        string
	BeneficiaryName string
	ReferenceID     string
	Purpose         string
}

type PayoutResult struct {
	Success  bool                   `json:"success"`
	PayoutID string                 `json:"payout_id,omitempty"`
	Status   string                 `json:"status,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Response map[string]interface{} `json:"response,omitempty"`
}

type StatusResult struct {
	Success  bool            `json:"success"`
	PayoutID string          `json:"payout_id,omitempty"`
	Status   string          `json:"status,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	UPIID    string          `json:"upi_id,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Provider calls share one client. 45 seconds matches the slowest observed
// provider response under load; no retries, a failed call is recorded as-is.
var httpClient = &http.Client{Timeout: 45 * time.Second}

func postJSON(ctx context.Context, rawURL string, headers map[string]string, payload interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doJSON(req)
}

func postForm(ctx context.Context, rawURL string, headers map[string]string, form url.Values) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doJSON(req)
}

func getJSON(ctx context.Context, rawURL string, headers map[string]string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doJSON(req)
}

func doJSON(req *http.Request) (map[string]interface{}, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var body map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return body, nil
}

func lower(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return strings.ToLower(s)
}

func strField(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func nestedStr(body map[string]interface{}, outer, inner string) string {
	if m, ok := body[outer].(map[string]interface{}); ok {
		return strField(m, inner)
	}
	return ""
}

func numField(body map[string]interface{}, key string) decimal.Decimal {
	if f, ok := body[key].(float64); ok {
		return decimal.NewFromFloat(f)
	}
	return decimal.Zero
}

func nestedNum(body map[string]interface{}, outer, inner string) decimal.Decimal {
	if m, ok := body[outer].(map[string]interface{}); ok {
		if f, ok := m[inner].(float64); ok {
			return decimal.NewFromFloat(f)
		}
	}
	return decimal.Zero
}
