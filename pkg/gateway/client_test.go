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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret"})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v2/payments/pay-1", r.URL.Path)
			assert.Equal(t, "Key secret", r.Header.Get("Authorization"))
			w.Write([]byte(`{
				"identifier": "pay-1",
				"user_uid": "buyer",
				"amount": 10000,
				"metadata": {"transaction_id": "tx-1"},
				"status": {"developer_approved": true, "transaction_verified": true},
				"transaction": {"txid": "abc", "verified": true}
			}`))
		})

		p, err := c.Verify(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), p.Amount)
		assert.Equal(t, "tx-1", p.TransactionID())
		assert.Equal(t, "abc", p.TxID())
		assert.True(t, p.Status.DeveloperApproved)
		assert.False(t, p.IsCancelled())
	})

	t.Run("Not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := c.Verify(ctx, "missing")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("Server error is transient", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := c.Verify(ctx, "pay-1")
		assert.ErrorIs(t, err, ErrTransient)
	})

	t.Run("Unreachable is transient", func(t *testing.T) {
		c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
		_, err := c.Verify(ctx, "pay-1")
		assert.ErrorIs(t, err, ErrTransient)
	})
}

func TestApproveAndComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("Complete sends txid", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/payments/pay-1/complete", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "abc", body["txid"])
			w.Write([]byte(`{"identifier":"pay-1"}`))
		})

		assert.NoError(t, c.Complete(ctx, "pay-1", "abc"))
	})

	t.Run("Payment id stays one path segment", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/payments/pay%2F..%2Fx%3Fy/approve", r.URL.EscapedPath())
			assert.Empty(t, r.URL.RawQuery)
		})

		assert.NoError(t, c.Approve(ctx, "pay/../x?y"))
	})

	t.Run("Already approved is success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"already_approved","error_message":"payment already approved"}`))
		})

		assert.NoError(t, c.Approve(ctx, "pay-1"))
	})

	t.Run("Other client errors fail", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_txid"}`))
		})

		err := c.Complete(ctx, "pay-1", "bad")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrTransient)
		assert.Contains(t, err.Error(), "invalid_txid")
	})
}

func TestCreatePayout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/payments", r.URL.Path)
		var body struct {
			Payment PayoutRequest `json:"payment"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(2500), body.Payment.Amount)
		assert.Equal(t, "tx-9", body.Payment.Metadata[MetadataTransactionID])
		w.Write([]byte(`{"identifier":"payout-1","amount":2500}`))
	})

	p, err := c.CreatePayout(context.Background(), PayoutRequest{
		UserUID:  "creator",
		Amount:   2500,
		Memo:     "withdrawal",
		Metadata: map[string]string{MetadataTransactionID: "tx-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, "payout-1", p.Identifier)
}

func TestIncompletePayouts(t *testing.T) {
	ctx := context.Background()

	t.Run("Lists open payouts", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v2/payments/incomplete_server_payments", r.URL.Path)
			w.Write([]byte(`{"incomplete_server_payments": [
				{"identifier": "payout-1", "amount": 2500, "metadata": {"transaction_id": "tx-9"}}
			]}`))
		})

		got, err := c.IncompletePayouts(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "tx-9", got[0].TransactionID())
	})

	t.Run("Gateway down", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := c.IncompletePayouts(ctx)
		assert.ErrorIs(t, err, ErrTransient)
	})
}
