package payment

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
)

const DefaultPaystackURL = "https://api.paystack.co"

// Paystack talks to the Paystack transaction API.
type Paystack struct {
	baseURL   string
	secretKey string
	timeout   time.Duration
	client    *http.Client
}

func NewPaystack(baseURL, secretKey string, timeout time.Duration) *Paystack {
	if baseURL == "" {
		baseURL = DefaultPaystackURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Paystack{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		timeout:   timeout,
		client:    &http.Client{},
	}
}

type paystackResponse[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (Initialized, error) {
	const op = "initialize"
	if req.AmountMinor <= 0 {
		return Initialized{}, rejectedErr(op, "amount must be positive")
	}
	body := map[string]any{
		"email":        req.Email,
		"amount":       req.AmountMinor,
		"callback_url": req.CallbackURL,
	}
	if req.Reference != "" {
		body["reference"] = req.Reference
	}

	var out paystackResponse[initializeData]
	if err := p.do(ctx, op, http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return Initialized{}, err
	}
	if out.Data.AuthorizationURL == "" {
		return Initialized{}, rejectedErr(op, "empty authorization url")
	}
	ref := out.Data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return Initialized{RedirectURL: out.Data.AuthorizationURL, Reference: ref}, nil
}

func (p *Paystack) Verify(ctx context.Context, reference string) (Verification, error) {
	const op = "verify"
	if reference == "" {
		return Verification{}, rejectedErr(op, "empty reference")
	}
	var out paystackResponse[verifyData]
	if err := p.do(ctx, op, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &out); err != nil {
		return Verification{}, err
	}
	v := Verification{
		Reference:      reference,
		AmountMinor:    out.Data.Amount,
		ProviderStatus: out.Data.Status,
	}
	switch out.Data.Status {
	case "success":
		v.Status = StatusSuccess
	case "ongoing", "pending", "processing", "queued":
		v.Status = StatusPending
	default: // failed, abandoned, reversed
		v.Status = StatusFailed
	}
	return v, nil
}

func (p *Paystack) do(ctx context.Context, op, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("payment %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("payment %s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return networkErr(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return networkErr(op, err)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return networkErr(op, fmt.Errorf("provider status %d", resp.StatusCode))
	}

	var envelope struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return rejectedErr(op, fmt.Sprintf("unreadable response (%d)", resp.StatusCode))
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		return rejectedErr(op, fmt.Sprintf("%d %s", resp.StatusCode, envelope.Message))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return rejectedErr(op, "unexpected response shape")
	}
	return nil
}
