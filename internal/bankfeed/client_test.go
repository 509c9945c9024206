package bankfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSyncTransactions(t *testing.T) {
	t.Run("decodes_page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/transactions/sync" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var req map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decoding request: %v", err)
			}
			if req["access_token"] != "access-token-1" {
				t.Errorf("expected access token in body, got %v", req["access_token"])
			}
			if req["cursor"] != "cursor-a" {
				t.Errorf("expected cursor-a, got %v", req["cursor"])
			}
			_ = json.NewEncoder(w).Encode(SyncResponse{
				Added:      []TransactionDelta{{TransactionID: "t1", AccountID: "a1", Amount: 45.23, Date: "2025-01-15", Name: "WHOLE FOODS"}},
				Removed:    []RemovedDelta{{TransactionID: "t0"}},
				NextCursor: "cursor-b",
				HasMore:    true,
			})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "cid", "secret", &http.Client{Timeout: 5 * time.Second})
		resp, err := client.SyncTransactions(context.Background(), "access-token-1", "cursor-a")
		if err != nil {
			t.Fatalf("SyncTransactions returned error: %v", err)
		}
		if len(resp.Added) != 1 || resp.Added[0].TransactionID != "t1" {
			t.Errorf("unexpected added: %+v", resp.Added)
		}
		if resp.NextCursor != "cursor-b" || !resp.HasMore {
			t.Errorf("unexpected cursor state: %q has_more=%v", resp.NextCursor, resp.HasMore)
		}
	})

	t.Run("provider_error_is_typed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(Error{Code: CodeRateLimit, Type: "RATE_LIMIT", Message: "rate limit exceeded"})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "cid", "secret", server.Client())
		_, err := client.SyncTransactions(context.Background(), "tok", "")
		if !IsRateLimited(err) {
			t.Fatalf("expected rate-limit error, got %v", err)
		}
	})

	t.Run("opaque_failure_is_not_classified", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "cid", "secret", server.Client())
		_, err := client.SyncTransactions(context.Background(), "tok", "")
		if err == nil {
			t.Fatal("expected error")
		}
		if IsRateLimited(err) || IsAuthRequired(err) {
			t.Errorf("opaque failure should not classify: %v", err)
		}
	})
}

func TestGetBalances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/balance/get" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"accounts":[{"account_id":"a1","balances":{"current":1250.75,"available":1200}}]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "cid", "secret", server.Client())
	balances, err := client.GetBalances(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetBalances returned error: %v", err)
	}
	if len(balances) != 1 {
		t.Fatalf("expected 1 balance, got %d", len(balances))
	}
	if balances[0].AccountID != "a1" || balances[0].Current != 1250.75 {
		t.Errorf("unexpected balance: %+v", balances[0])
	}
}

func TestErrorClassification(t *testing.T) {
	t.Run("auth_codes", func(t *testing.T) {
		for _, code := range []string{CodeItemLoginRequired, CodeInvalidAccessToken} {
			if !IsAuthRequired(&Error{Code: code}) {
				t.Errorf("expected %s to classify as auth-required", code)
			}
		}
	})

	t.Run("wrapped_errors_classify", func(t *testing.T) {
		wrapped := fmt.Errorf("sync failed: %w", &Error{Code: CodeRateLimit, Message: "slow down"})
		if !IsRateLimited(wrapped) {
			t.Errorf("expected wrapped rate-limit to classify: %v", wrapped)
		}
	})

	t.Run("plain_errors_do_not", func(t *testing.T) {
		err := errors.New("connection refused")
		if IsRateLimited(err) || IsAuthRequired(err) || ErrorCode(err) != "" {
			t.Errorf("plain error misclassified: %v", err)
		}
	})
}
