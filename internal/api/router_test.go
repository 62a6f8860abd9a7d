package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/internal/repository/memory"
)

const testAPIKey = "test-api-key"

func newTestRouter(t *testing.T) (*repository.Repositories, *domain.User, http.Handler) {
	t.Helper()
	repos := memory.NewRepositories()
	user := &domain.User{
		Name:       "Test Seller",
		APIKeyHash: testAPIKey, // memory repo matches on the raw key
		IsActive:   true,
	}
	require.NoError(t, repos.User.Create(context.Background(), user))

	cfg := &config.Config{Environment: "test"}
	return repos, user, NewRouter(cfg, repos, nil, zap.NewNop())
}

func doRequest(router http.Handler, method, path, apiKey string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	_, _, router := newTestRouter(t)
	w := doRequest(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	_, _, router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/v1/returns", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/v1/returns", "wrong-key", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListReturns(t *testing.T) {
	repos, user, router := newTestRouter(t)
	require.NoError(t, repos.Return.Create(context.Background(), &domain.Return{
		UserID:       user.ID,
		EbayReturnID: "9001",
		ReturnStatus: domain.ReturnStatusOpen,
	}))

	w := doRequest(router, http.MethodGet, "/v1/returns", testAPIKey, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count   int `json:"count"`
		Returns []struct {
			EbayReturnID string `json:"ebay_return_id"`
			ReturnStatus string `json:"return_status"`
		} `json:"returns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "9001", body.Returns[0].EbayReturnID)
	assert.Equal(t, "OPEN", body.Returns[0].ReturnStatus)
}

func TestGetReturnScopedToOwner(t *testing.T) {
	repos, _, router := newTestRouter(t)

	// A different user's return must not be readable.
	other := &domain.User{Name: "Other", APIKeyHash: "other-key", IsActive: true}
	require.NoError(t, repos.User.Create(context.Background(), other))
	ret := &domain.Return{
		UserID:       other.ID,
		EbayReturnID: "9002",
		ReturnStatus: domain.ReturnStatusOpen,
	}
	require.NoError(t, repos.Return.Create(context.Background(), ret))

	w := doRequest(router, http.MethodGet, "/v1/returns/"+ret.ID.String(), testAPIKey, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApplyDispositionRequiresLinkedItem(t *testing.T) {
	repos, user, router := newTestRouter(t)
	ret := &domain.Return{
		UserID:       user.ID,
		EbayReturnID: "9003",
		ReturnStatus: domain.ReturnStatusClosed,
	}
	require.NoError(t, repos.Return.Create(context.Background(), ret))

	w := doRequest(router, http.MethodPost, "/v1/returns/"+ret.ID.String()+"/disposition",
		testAPIKey, `{"action":"WASTE"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, "/v1/returns/"+ret.ID.String()+"/disposition",
		testAPIKey, `{"action":"SHRED"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkReturnEndpoint(t *testing.T) {
	repos, user, router := newTestRouter(t)
	ctx := context.Background()

	item := &domain.InventoryItem{UserID: user.ID, SKU: "LNK-01"}
	require.NoError(t, repos.Inventory.Create(ctx, item))
	ret := &domain.Return{
		UserID:       user.ID,
		EbayReturnID: "9004",
		ReturnStatus: domain.ReturnStatusOpen,
	}
	require.NoError(t, repos.Return.Create(ctx, ret))

	w := doRequest(router, http.MethodPost, "/v1/returns/"+ret.ID.String()+"/link",
		testAPIKey, `{"inventory_item_id":"`+item.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		InventoryItemID string `json:"inventory_item_id"`
		MatchStrategy   string `json:"match_strategy"`
		MatchConfidence int    `json:"match_confidence"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, item.ID.String(), body.InventoryItemID)
	assert.Equal(t, "ManualLink", body.MatchStrategy)
	assert.Equal(t, 100, body.MatchConfidence)
}
