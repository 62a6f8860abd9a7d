package ebay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/config"
)

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a new sales-platform REST client
func NewClient(cfg config.EbayConfig, logger *zap.Logger) *Client {
	// Normalize base URL - remove trailing slashes
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// ListingsResult is the outcome of an active-listings fetch. Token expiry is
// reported through FailedOAuth rather than an error; callers handle
// re-authentication out of band.
type ListingsResult struct {
	Success     bool
	FailedOAuth bool
	Listings    []Listing
}

// ReturnsResult is the outcome of a returns-list fetch
type ReturnsResult struct {
	Success     bool
	FailedOAuth bool
	Returns     []ReturnPayload
	Total       int
}

// ReturnDetailResult is the outcome of a single-return detail fetch
type ReturnDetailResult struct {
	Success     bool
	FailedOAuth bool
	Detail      *ReturnDetail
}

// GetActiveListings fetches the seller's currently active listings
func (c *Client) GetActiveListings(ctx context.Context, token string) (*ListingsResult, error) {
	var envelope struct {
		Listings []Listing `json:"listings"`
		Total    int       `json:"total"`
	}

	status, body, err := c.get(ctx, token, "/sell/inventory/v1/listing?state=ACTIVE&limit=200")
	if err != nil {
		return nil, err
	}
	if isAuthFailure(status) {
		c.logger.Warn("Active listings fetch rejected, token expired", zap.Int("status", status))
		return &ListingsResult{Success: false, FailedOAuth: true}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ebay API error: status %d, body: %s", status, string(body))
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listings response: %w", err)
	}

	return &ListingsResult{Success: true, Listings: envelope.Listings}, nil
}

// GetReturns fetches the seller's return events, most recent first
func (c *Client) GetReturns(ctx context.Context, token string) (*ReturnsResult, error) {
	var envelope struct {
		Members []ReturnPayload `json:"members"`
		Total   int             `json:"total"`
	}

	status, body, err := c.get(ctx, token, "/post-order/v2/return/search?limit=200&sort=-creationDate")
	if err != nil {
		return nil, err
	}
	if isAuthFailure(status) {
		c.logger.Warn("Returns fetch rejected, token expired", zap.Int("status", status))
		return &ReturnsResult{Success: false, FailedOAuth: true}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ebay API error: status %d, body: %s", status, string(body))
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal returns response: %w", err)
	}

	return &ReturnsResult{Success: true, Returns: envelope.Members, Total: envelope.Total}, nil
}

// GetReturnDetails fetches the full detail record for one return
func (c *Client) GetReturnDetails(ctx context.Context, token, returnID string) (*ReturnDetailResult, error) {
	status, body, err := c.get(ctx, token, "/post-order/v2/return/"+returnID)
	if err != nil {
		return nil, err
	}
	if isAuthFailure(status) {
		c.logger.Warn("Return detail fetch rejected, token expired",
			zap.String("return_id", returnID),
			zap.Int("status", status),
		)
		return &ReturnDetailResult{Success: false, FailedOAuth: true}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ebay API error: status %d, body: %s", status, string(body))
	}

	var detail ReturnDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal return detail: %w", err)
	}

	return &ReturnDetailResult{Success: true, Detail: &detail}, nil
}

// get executes an authenticated GET and returns status plus raw body
func (c *Client) get(ctx context.Context, token, path string) (int, []byte, error) {
	return c.do(ctx, token, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, token, method, path string, payload interface{}) (int, []byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if token == "" {
		token = c.accessToken
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
