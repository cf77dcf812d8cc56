package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ledger-service/src/pkg/log"

	"github.com/spf13/viper"
)

// Result is what the external processor reports for a charge or payout.
// ExternalID is the processor-side id used to deduplicate callbacks.
// Pending means the processor accepted the request and will confirm via
// callback later.
type Result struct {
	Success       bool   `json:"success"`
	Pending       bool   `json:"pending"`
	ExternalID    string `json:"externalId"`
	FailureReason string `json:"failureReason"`
}

// Gateway is the opaque external payment/payout processor. It is
// at-least-once-callable: callers must dedup on ExternalID.
type Gateway interface {
	Charge(ctx context.Context, amount float64, currency, methodDetails string) (*Result, error)
	Payout(ctx context.Context, amount float64, currency, methodDetails string) (*Result, error)
}

type httpGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     log.Log
}

func NewHTTPGateway(v *viper.Viper, logger log.Log) Gateway {
	timeout := time.Duration(v.GetInt("payment.gateway_timeout_seconds")) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpGateway{
		baseURL: v.GetString("payment.gateway_url"),
		apiKey:  v.GetString("payment.gateway_api_key"),
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

type gatewayRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	MethodDetails string  `json:"methodDetails"`
}

func (g *httpGateway) Charge(ctx context.Context, amount float64, currency, methodDetails string) (*Result, error) {
	return g.post(ctx, "/v1/charges", amount, currency, methodDetails)
}

func (g *httpGateway) Payout(ctx context.Context, amount float64, currency, methodDetails string) (*Result, error) {
	return g.post(ctx, "/v1/payouts", amount, currency, methodDetails)
}

func (g *httpGateway) post(ctx context.Context, path string, amount float64, currency, methodDetails string) (*Result, error) {
	body, err := json.Marshal(gatewayRequest{
		Amount:        amount,
		Currency:      currency,
		MethodDetails: methodDetails,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("payment-gateway", fmt.Sprintf("gateway call failed: %v", err), path, "")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
