package ebay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.EbayConfig{BaseURL: serverURL + "/", AccessToken: "fallback-token"}, zap.NewNop())
}

func TestGetActiveListings(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/sell/inventory/v1/listing", r.URL.Path)
		assert.Equal(t, "ACTIVE", r.URL.Query().Get("state"))
		w.Write([]byte(`{"listings":[{"itemId":"330011","sku":"CAM-204","title":"Canon PowerShot"}],"total":1}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GetActiveListings(context.Background(), "user-token")
	require.NoError(t, err)

	assert.Equal(t, "Bearer user-token", gotAuth)
	assert.True(t, result.Success)
	assert.False(t, result.FailedOAuth)
	require.Len(t, result.Listings, 1)
	assert.Equal(t, "CAM-204", result.Listings[0].SKU)
}

func TestAuthFailureIsNotAnError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		client := newTestClient(server.URL)

		listings, err := client.GetActiveListings(context.Background(), "expired")
		require.NoError(t, err)
		assert.True(t, listings.FailedOAuth)

		returns, err := client.GetReturns(context.Background(), "expired")
		require.NoError(t, err)
		assert.True(t, returns.FailedOAuth)

		detail, err := client.GetReturnDetails(context.Background(), "expired", "5100")
		require.NoError(t, err)
		assert.True(t, detail.FailedOAuth)

		server.Close()
	}
}

func TestServerErrorIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetReturns(context.Background(), "token")
	assert.Error(t, err)
}

func TestGetReturnsParsesMembers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/post-order/v2/return/search", r.URL.Path)
		w.Write([]byte(`{
			"members": [
				{"returnId": "5100", "summary": {"status": "OPEN", "sku": "POL-600"}}
			],
			"total": 1
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GetReturns(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Returns, 1)
	assert.Equal(t, "5100", result.Returns[0].ReturnID)
	require.NotNil(t, result.Returns[0].Summary)
	assert.Equal(t, "POL-600", result.Returns[0].Summary.SKU)
}

func TestGetReturnDetailsUsesFallbackToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fallback-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/post-order/v2/return/5100", r.URL.Path)
		w.Write([]byte(`{"status": "CLOSED", "refundStatus": "REFUNDED"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GetReturnDetails(context.Background(), "", "5100")
	require.NoError(t, err)

	require.NotNil(t, result.Detail)
	assert.Equal(t, "CLOSED", result.Detail.Status)
	assert.Equal(t, "REFUNDED", result.Detail.RefundStatus)
}
