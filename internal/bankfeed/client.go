package bankfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// syncPageSize is the number of deltas requested per page.
const syncPageSize = 500

// HTTPClient talks to the provider's JSON API.
type HTTPClient struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

// NewHTTPClient creates a provider client. The http.Client is injected so
// callers control timeouts at the external-call boundary.
func NewHTTPClient(baseURL, clientID, secret string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		secret:     secret,
		httpClient: httpClient,
	}
}

// SyncTransactions fetches one page of deltas after the given cursor.
func (c *HTTPClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncResponse, error) {
	body := struct {
		ClientID    string `json:"client_id"`
		Secret      string `json:"secret"`
		AccessToken string `json:"access_token"`
		Cursor      string `json:"cursor,omitempty"`
		Count       int    `json:"count"`
	}{c.clientID, c.secret, accessToken, cursor, syncPageSize}

	var resp SyncResponse
	if err := c.post(ctx, "/transactions/sync", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBalances fetches current balances for all accounts on the item.
func (c *HTTPClient) GetBalances(ctx context.Context, accessToken string) ([]AccountBalance, error) {
	body := struct {
		ClientID    string `json:"client_id"`
		Secret      string `json:"secret"`
		AccessToken string `json:"access_token"`
	}{c.clientID, c.secret, accessToken}

	var resp struct {
		Accounts []struct {
			AccountID string `json:"account_id"`
			Balances  struct {
				Current   float64 `json:"current"`
				Available float64 `json:"available"`
			} `json:"balances"`
		} `json:"accounts"`
	}
	if err := c.post(ctx, "/accounts/balance/get", body, &resp); err != nil {
		return nil, err
	}

	balances := make([]AccountBalance, len(resp.Accounts))
	for i, a := range resp.Accounts {
		balances[i] = AccountBalance{
			AccountID: a.AccountID,
			Current:   a.Balances.Current,
			Available: a.Balances.Available,
		}
	}
	return balances, nil
}

// post sends a JSON request and decodes either the success payload or a
// structured provider error.
func (c *HTTPClient) post(ctx context.Context, path string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var provErr Error
		if decodeErr := json.NewDecoder(resp.Body).Decode(&provErr); decodeErr != nil || provErr.Code == "" {
			return fmt.Errorf("calling %s: unexpected status %d", path, resp.StatusCode)
		}
		return &provErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
