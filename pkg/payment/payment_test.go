package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want int64
	}{
		{250, 25000},
		{19.99, 1999},
		{0.1 + 0.2, 30},
		{1.005, 101},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinorUnits(tt.in), "amount %v", tt.in)
	}
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	r := Result{GatewayOrderID: "order_1", PaymentID: "pay_1"}
	r.Signature = Sign("secret", r.GatewayOrderID, r.PaymentID)

	assert.True(t, Verify("secret", r))
	assert.False(t, Verify("other", r))
	assert.False(t, Verify("", r))

	tampered := r
	tampered.PaymentID = "pay_2"
	assert.False(t, Verify("secret", tampered))

	assert.False(t, Verify("secret", Result{GatewayOrderID: "order_1", PaymentID: "pay_1"}))
}

func newProvider(t *testing.T, secret string, decline bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/orders", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key_id" || pass != secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body createOrderBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(25000), body.Amount)
		assert.Equal(t, CurrencyINR, body.Currency)
		_ = json.NewEncoder(w).Encode(orderResponse{ID: "order_abc"})
	})
	mux.HandleFunc("POST /v1/orders/{id}/payments", func(w http.ResponseWriter, r *http.Request) {
		if decline {
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"card declined"}}`))
			return
		}
		id := r.PathValue("id")
		_ = json.NewEncoder(w).Encode(collectResponse{PaymentID: "pay_xyz", Signature: Sign(secret, id, "pay_xyz")})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHostedGateway_Pay(t *testing.T) {
	t.Parallel()

	srv := newProvider(t, "key_secret", false)

	g := NewHostedGateway(srv.URL, "key_id", "key_secret")
	res, err := g.Pay(context.Background(), Request{Amount: 25000, Receipt: "r1", Name: "Alice", Contact: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", res.GatewayOrderID)
	assert.Equal(t, "pay_xyz", res.PaymentID)
	assert.True(t, Verify("key_secret", *res))
}

func TestHostedGateway_Failures(t *testing.T) {
	t.Parallel()

	declining := newProvider(t, "key_secret", true)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(slow.Close)

	tests := []struct {
		name    string
		gateway *HostedGateway
		amount  int64
		wantMsg string
	}{
		{"declined", NewHostedGateway(declining.URL, "key_id", "key_secret"), 25000, "card declined"},
		{"bad credentials", NewHostedGateway(declining.URL, "key_id", "wrong"), 25000, "provider responded 401"},
		{"zero amount", NewHostedGateway(declining.URL, "key_id", "key_secret"), 0, "amount must be positive"},
		{"timeout", func() *HostedGateway {
			g := NewHostedGateway(slow.URL, "key_id", "key_secret")
			g.HTTPClient.Timeout = 20 * time.Millisecond
			return g
		}(), 25000, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := tt.gateway.Pay(context.Background(), Request{Amount: tt.amount})
			require.ErrorIs(t, err, ErrUpstream)
			assert.Nil(t, res)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
