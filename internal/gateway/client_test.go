package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewayServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /transaction/initialize", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "unauthorized"})
			return
		}
		var req InitializeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://pay.gateway.test/" + req.Reference,
				"access_code":       "AC_" + req.Reference,
				"reference":         req.Reference,
			},
		})
	})

	mux.HandleFunc("GET /transaction/verify/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"status": "success", "amount": 13499, "channel": "card",
				"card_last4": "4242", "fees": 202,
			},
		})
	})

	mux.HandleFunc("POST /refund", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"refund_reference": "rf_1", "amount": 13499, "status": "processing",
			},
		})
	})

	return httptest.NewServer(mux)
}

func TestHTTPClientInitialize(t *testing.T) {
	srv := gatewayServer(t)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "sk_test")
	sess, err := c.Initialize(context.Background(), InitializeRequest{
		Email: "buyer@example.test", AmountCents: 13499, Reference: "pay-xyz",
		CallbackURL: "http://localhost/cb", Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay-xyz", sess.Reference)
	assert.Equal(t, "AC_pay-xyz", sess.AccessCode)
	assert.Contains(t, sess.AuthorizationURL, "pay-xyz")
}

func TestHTTPClientBadSecret(t *testing.T) {
	srv := gatewayServer(t)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "sk_wrong")
	_, err := c.Initialize(context.Background(), InitializeRequest{Reference: "pay-1", AmountCents: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
}

func TestHTTPClientVerify(t *testing.T) {
	srv := gatewayServer(t)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "sk_test")
	tx, err := c.Verify(context.Background(), "pay-xyz")
	require.NoError(t, err)
	assert.Equal(t, "success", tx.Status)
	assert.Equal(t, int64(13499), tx.AmountCents)
	assert.Equal(t, "4242", tx.CardLast4)
	// Reference backfilled when the gateway omits it.
	assert.Equal(t, "pay-xyz", tx.Reference)
}

func TestHTTPClientRefund(t *testing.T) {
	srv := gatewayServer(t)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "sk_test")
	rf, err := c.Refund(context.Background(), "pay-xyz", 13499, "customer request")
	require.NoError(t, err)
	assert.Equal(t, "rf_1", rf.RefundReference)
	assert.Equal(t, "processing", rf.Status)
}
