// Package httpclient calls the ledger procedures as JSON over HTTP.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/rpc"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client implements rpc.Procedures against {baseURL}/api/rpc/{procedure}.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.StructuredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTransport sets the round tripper while keeping the client timeout.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithLogger sets the logger used for per-call records.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = log.NewStructuredLogger(l.WithComponent(log.ComponentRPC))
	}
}

// New creates a client for baseURL. A zero timeout selects the default.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.NewStructuredLogger(log.Default(log.ComponentRPC)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ rpc.Procedures = (*Client)(nil)

// call validates req, posts it and decodes the response into out (if non-nil).
func (c *Client) call(ctx context.Context, proc string, req, out any) error {
	if err := rpc.Validate(proc, req); err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", proc, err)
	}

	url := c.baseURL + "/api/rpc/" + proc
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", proc, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.LogRPCCall(ctx, proc, 0, time.Since(start), err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", proc, ctxErr)
		}
		return fmt.Errorf("%w: %s: %v", rpc.ErrUnavailable, proc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rpcErr := &rpc.Error{Procedure: proc, StatusCode: resp.StatusCode, Message: errorMessage(data)}
		c.logger.LogRPCCall(ctx, proc, resp.StatusCode, time.Since(start), rpcErr)
		return rpcErr
	}
	c.logger.LogRPCCall(ctx, proc, resp.StatusCode, time.Since(start), nil)

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode %s response: %v", rpc.ErrUnavailable, proc, err)
	}
	return nil
}

// errorMessage extracts a message from a JSON error body, falling back to
// the raw text.
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// balance accepts a decimal string, a bare number or null.
func (c *Client) balance(ctx context.Context, proc string, req any) (decimal.Decimal, error) {
	var raw json.RawMessage
	if err := c.call(ctx, proc, req, &raw); err != nil {
		return decimal.Zero, err
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "null" {
		s = ""
	}
	v, err := core.ParseBalance(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", proc, err)
	}
	return v, nil
}

func (c *Client) FindUser(ctx context.Context, req rpc.FindUserRequest) (*core.User, error) {
	var user *core.User
	if err := c.call(ctx, rpc.ProcFindUser, req, &user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) GetAccounts(ctx context.Context, req rpc.GetAccountsRequest) ([]core.Account, error) {
	var accounts []core.Account
	err := c.call(ctx, rpc.ProcGetAccounts, req, &accounts)
	return accounts, err
}

func (c *Client) GetPartitions(ctx context.Context, req rpc.GetPartitionsRequest) ([]core.Partition, error) {
	var partitions []core.Partition
	err := c.call(ctx, rpc.ProcGetPartitions, req, &partitions)
	return partitions, err
}

func (c *Client) GetPartitionOptions(ctx context.Context, req rpc.ScopeRequest) ([]core.PartitionOption, error) {
	var options []core.PartitionOption
	err := c.call(ctx, rpc.ProcGetPartitionOptions, req, &options)
	return options, err
}

func (c *Client) GetUserCategories(ctx context.Context, req rpc.ScopeRequest) (rpc.UserCategories, error) {
	var cats rpc.UserCategories
	err := c.call(ctx, rpc.ProcGetUserCategories, req, &cats)
	return cats, err
}

func (c *Client) FindTransactions(ctx context.Context, req rpc.FindTransactionsRequest) (rpc.FindTransactionsResponse, error) {
	var resp rpc.FindTransactionsResponse
	err := c.call(ctx, rpc.ProcFindTransactions, req, &resp)
	return resp, err
}

func (c *Client) CreateTransaction(ctx context.Context, req rpc.CreateTransactionRequest) (rpc.CreateTransactionResponse, error) {
	var resp rpc.CreateTransactionResponse
	err := c.call(ctx, rpc.ProcCreateTransaction, req, &resp)
	return resp, err
}

func (c *Client) DeleteTransaction(ctx context.Context, req rpc.TransactionRequest) error {
	return c.call(ctx, rpc.ProcDeleteTransaction, req, nil)
}

func (c *Client) CreatePartition(ctx context.Context, req rpc.CreatePartitionRequest) (rpc.CreatePartitionResponse, error) {
	var resp rpc.CreatePartitionResponse
	err := c.call(ctx, rpc.ProcCreatePartition, req, &resp)
	return resp, err
}

func (c *Client) UpdatePartition(ctx context.Context, req rpc.UpdatePartitionRequest) error {
	return c.call(ctx, rpc.ProcUpdatePartition, req, nil)
}

func (c *Client) DeletePartition(ctx context.Context, req rpc.PartitionRequest) error {
	return c.call(ctx, rpc.ProcDeletePartition, req, nil)
}

func (c *Client) CreateCategory(ctx context.Context, req rpc.CreateCategoryRequest) (rpc.CreateCategoryResponse, error) {
	var resp rpc.CreateCategoryResponse
	err := c.call(ctx, rpc.ProcCreateCategory, req, &resp)
	return resp, err
}

func (c *Client) UpdateCategory(ctx context.Context, req rpc.UpdateCategoryRequest) error {
	return c.call(ctx, rpc.ProcUpdateCategory, req, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, req rpc.CategoryRequest) error {
	return c.call(ctx, rpc.ProcDeleteCategory, req, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, req rpc.AccountRequest) error {
	return c.call(ctx, rpc.ProcDeleteAccount, req, nil)
}

func (c *Client) GetAccountBalance(ctx context.Context, req rpc.AccountBalanceRequest) (decimal.Decimal, error) {
	return c.balance(ctx, rpc.ProcGetAccountBalance, req)
}

func (c *Client) GetPartitionBalance(ctx context.Context, req rpc.PartitionBalanceRequest) (decimal.Decimal, error) {
	return c.balance(ctx, rpc.ProcGetPartitionBalance, req)
}

func (c *Client) GetCategoryBalance(ctx context.Context, req rpc.CategoryBalanceRequest) (decimal.Decimal, error) {
	return c.balance(ctx, rpc.ProcGetCategoryBalance, req)
}

func (c *Client) GetCategoryKindBalance(ctx context.Context, req rpc.CategoryKindBalanceRequest) (decimal.Decimal, error) {
	return c.balance(ctx, rpc.ProcGetCategoryKindBalance, req)
}

func (c *Client) AccountCanBeDeleted(ctx context.Context, req rpc.AccountRequest) (bool, error) {
	var ok bool
	err := c.call(ctx, rpc.ProcAccountCanBeDeleted, req, &ok)
	return ok, err
}

func (c *Client) PartitionCanBeDeleted(ctx context.Context, req rpc.PartitionRequest) (bool, error) {
	var ok bool
	err := c.call(ctx, rpc.ProcPartitionCanBeDeleted, req, &ok)
	return ok, err
}

func (c *Client) CategoryCanBeDeleted(ctx context.Context, req rpc.CategoryRequest) (bool, error) {
	var ok bool
	err := c.call(ctx, rpc.ProcCategoryCanBeDeleted, req, &ok)
	return ok, err
}
