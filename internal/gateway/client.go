package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient talks to the real gateway REST API. All endpoints return an
// envelope of {"status": bool, "message": string, "data": {...}}.
type HTTPClient struct {
	BaseURL string
	Secret  string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, secret string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Secret:  secret,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Secret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrGateway, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: bad response (%d)", ErrGateway, resp.StatusCode)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return fmt.Errorf("%w: %s (%d)", ErrGateway, env.Message, resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", ErrGateway, err)
		}
	}
	return nil
}

func (c *HTTPClient) Initialize(ctx context.Context, req InitializeRequest) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &s); err != nil {
		return nil, err
	}
	if s.Reference == "" {
		s.Reference = req.Reference
	}
	return &s, nil
}

func (c *HTTPClient) Verify(ctx context.Context, reference string) (*Transaction, error) {
	var t Transaction
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &t); err != nil {
		return nil, err
	}
	if t.Reference == "" {
		t.Reference = reference
	}
	return &t, nil
}

func (c *HTTPClient) Refund(ctx context.Context, reference string, amountCents int64, reason string) (*Refund, error) {
	payload := map[string]any{"transaction": reference, "merchant_note": reason}
	if amountCents > 0 {
		payload["amount"] = amountCents
	}
	var r Refund
	if err := c.do(ctx, http.MethodPost, "/refund", payload, &r); err != nil {
		return nil, err
	}
	if r.Reference == "" {
		r.Reference = reference
	}
	return &r, nil
}
