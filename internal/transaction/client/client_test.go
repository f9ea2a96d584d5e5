package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/billgate/purchasegw/internal/config"
	"github.com/billgate/purchasegw/internal/transaction/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.Config{
		TransactionServiceURL: srv.URL,
		RemoteServiceTimeout:  5 * time.Second,
	}, zap.NewNop())
}

func TestGetTransactionDataBy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/transaction/tx-1", r.URL.Path)
		require.Equal(t, "sess-1", r.URL.Query().Get("sessionId"))
		w.Write([]byte(`{"transactionId": "tx-1", "billerName": "rocketgate", "paymentType": "cc", "status": "approved"}`))
	})

	result, err := c.GetTransactionDataBy(context.Background(), "tx-1", "sess-1")
	require.NoError(t, err)
	require.IsType(t, domain.RocketgateCCResult{}, result)
}

func TestGetTransactionDataByNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	result, err := c.GetTransactionDataBy(context.Background(), "tx-gone", "sess-1")
	require.NoError(t, err)
	require.True(t, domain.IsEmpty(result))
}

func TestGetTransactionDataByLegacyFormat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Legacy-Format", "1")
		w.Write([]byte(`{"data": {"transactionId": "tx-1", "billerName": "netbilling", "paymentType": "cc", "status": "approved"}}`))
	})

	result, err := c.GetTransactionDataBy(context.Background(), "tx-1", "sess-1")
	require.NoError(t, err)
	require.IsType(t, domain.NetbillingCCResult{}, result)
}

func TestGetTransactionDataByUnknownShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"transactionId": "tx-1", "billerName": "unknownpay", "paymentType": "cc"}`))
	})

	_, err := c.GetTransactionDataBy(context.Background(), "tx-1", "sess-1")
	require.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestGetTransactionDataByServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetTransactionDataBy(context.Background(), "tx-1", "sess-1")
	require.Error(t, err)
}
