// Package bankfeed defines the interface to the external bank-sync provider
// and an HTTP implementation of it. The sync engine depends only on the
// Client interface so it can be driven by a test double and so multiple
// items can be synced with isolated credentials.
package bankfeed

import (
	"context"
	"errors"
	"fmt"
)

// TransactionDelta is one added or modified transaction in a sync page.
// Amounts use the provider's native convention: positive = money out.
type TransactionDelta struct {
	TransactionID string  `json:"transaction_id"`
	AccountID     string  `json:"account_id"` // provider's account identifier
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"` // YYYY-MM-DD
	Name          string  `json:"name"`
	MerchantName  string  `json:"merchant_name,omitempty"`
	Pending       bool    `json:"pending"`
}

// RemovedDelta identifies a transaction the provider has deleted.
type RemovedDelta struct {
	TransactionID string `json:"transaction_id"`
}

// SyncResponse is one page of incremental deltas for an item.
type SyncResponse struct {
	Added      []TransactionDelta `json:"added"`
	Modified   []TransactionDelta `json:"modified"`
	Removed    []RemovedDelta     `json:"removed"`
	NextCursor string             `json:"next_cursor"`
	HasMore    bool               `json:"has_more"`
}

// AccountBalance is the current balance of one provider account.
type AccountBalance struct {
	AccountID string  `json:"account_id"`
	Current   float64 `json:"current"`
	Available float64 `json:"available"`
}

// Client is the bank-sync provider capability consumed by the sync engine.
type Client interface {
	// SyncTransactions fetches one page of deltas after the given cursor.
	// An empty cursor requests the item's history from the beginning.
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncResponse, error)

	// GetBalances fetches current balances for all accounts on the item.
	GetBalances(ctx context.Context, accessToken string) ([]AccountBalance, error)
}

// Provider error codes the sync engine classifies on.
const (
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeItemLoginRequired  = "ITEM_LOGIN_REQUIRED"
	CodeInvalidAccessToken = "INVALID_ACCESS_TOKEN"
)

// Error is a structured provider error.
type Error struct {
	Code    string `json:"error_code"`
	Type    string `json:"error_type"`
	Message string `json:"error_message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("bankfeed: %s (%s)", e.Message, e.Code)
}

// IsRateLimited reports whether err is a provider rate-limit response.
// Rate limits are transient; callers retry the same page with backoff.
func IsRateLimited(err error) bool {
	var provErr *Error
	return errors.As(err, &provErr) && provErr.Code == CodeRateLimit
}

// IsAuthRequired reports whether err is an authentication-class failure
// requiring external re-auth of the item.
func IsAuthRequired(err error) bool {
	var provErr *Error
	if !errors.As(err, &provErr) {
		return false
	}
	switch provErr.Code {
	case CodeItemLoginRequired, CodeInvalidAccessToken:
		return true
	}
	return false
}

// ErrorCode extracts the provider error code, or empty for non-provider errors.
func ErrorCode(err error) string {
	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.Code
	}
	return ""
}
