// Package rpc defines the request and response shapes of the remote
// procedures the tracker consumes, plus the Procedures interface that
// transports implement.
package rpc

import (
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
)

// Scope identifies the tenant every procedure runs against.
type Scope struct {
	UserID string `json:"userId" validate:"required"`
	DBName string `json:"dbname" validate:"required"`
}

// Period is an optional date range for balance getters.
type Period struct {
	TSSDate *core.Date `json:"tssDate,omitempty"`
	TSEDate *core.Date `json:"tseDate,omitempty"`
}

func (p Period) Range() core.DateRange {
	return core.DateRange{Start: p.TSSDate, End: p.TSEDate}
}

type FindUserRequest struct {
	Username string `json:"username" validate:"required"`
	DBName   string `json:"dbname" validate:"required"`
}

type GetAccountsRequest struct {
	Scope
	Owned bool `json:"owned"`
}

type GetPartitionsRequest struct {
	Scope
	AccountID string `json:"accountId" validate:"required"`
}

type ScopeRequest struct {
	Scope
}

// UserCategories is keyed by kind name on the wire.
type UserCategories struct {
	Income   []core.Category `json:"Income"`
	Expense  []core.Category `json:"Expense"`
	Transfer []core.Category `json:"Transfer"`
}

// ByKind returns the categories of one kind.
func (u UserCategories) ByKind(kind core.CategoryKind) []core.Category {
	switch kind {
	case core.Income:
		return u.Income
	case core.Expense:
		return u.Expense
	case core.Transfer:
		return u.Transfer
	}
	return nil
}

// All returns every category in kind display order.
func (u UserCategories) All() []core.Category {
	out := make([]core.Category, 0, len(u.Income)+len(u.Expense)+len(u.Transfer))
	for _, k := range core.CategoryKinds() {
		out = append(out, u.ByKind(k)...)
	}
	return out
}

// Find looks a category up by id.
func (u UserCategories) Find(id string) (core.Category, bool) {
	for _, c := range u.All() {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// IDsOfKind returns the ids of one kind, used for group toggles.
func (u UserCategories) IDsOfKind(kind core.CategoryKind) []string {
	cats := u.ByKind(kind)
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

type FindTransactionsRequest struct {
	PartitionIDs []string   `json:"partitionIds"`
	CategoryIDs  []string   `json:"categoryIds"`
	OwnerID      string     `json:"ownerId" validate:"required"`
	DBName       string     `json:"dbname" validate:"required"`
	TSSDate      *core.Date `json:"tssDate,omitempty"`
	TSEDate      *core.Date `json:"tseDate,omitempty"`
	CurrentPage  int        `json:"currentPage" validate:"min=1"`
	NPerPage     int        `json:"nPerPage" validate:"min=1,max=500"`
}

// FindTransactionsResponse travels as a two element array: the page of
// transactions and whether a next page exists.
type FindTransactionsResponse struct {
	Transactions []core.Transaction
	HasNextPage  bool
}

func (r FindTransactionsResponse) MarshalJSON() ([]byte, error) {
	txs := r.Transactions
	if txs == nil {
		txs = []core.Transaction{}
	}
	return json.Marshal([]any{txs, r.HasNextPage})
}

func (r *FindTransactionsResponse) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("findTransactions: expected 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &r.Transactions); err != nil {
		return fmt.Errorf("findTransactions transactions: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &r.HasNextPage); err != nil {
		return fmt.Errorf("findTransactions hasNextPage: %w", err)
	}
	return nil
}

type CreateTransactionRequest struct {
	SourcePartitionID      string `json:"sourcePartitionId" validate:"required"`
	DestinationPartitionID string `json:"destinationPartitionId,omitempty" validate:"omitempty,nefield=SourcePartitionID"`
	CategoryID             string `json:"categoryId" validate:"required"`
	Value                  Amount `json:"value" validate:"ne=0"`
	Description            string `json:"description,omitempty" validate:"max=200"`
	UserID                 string `json:"userId" validate:"required"`
	DBName                 string `json:"dbname" validate:"required"`
}

// CreateTransactionResponse carries the created row and, for visible
// transfers, the row created on the destination partition.
type CreateTransactionResponse struct {
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Counterpart *core.Transaction `json:"counterpart,omitempty"`
}

type TransactionRequest struct {
	Scope
	TransactionID string `json:"transactionId" validate:"required"`
}

type CreatePartitionRequest struct {
	Scope
	Name            string `json:"name" validate:"required,max=100"`
	IsPrivate       bool   `json:"isPrivate"`
	ForNewAccount   bool   `json:"forNewAccount"`
	AccountID       string `json:"accountId,omitempty" validate:"required_unless=ForNewAccount true"`
	IsSharedAccount bool   `json:"isSharedAccount"`
	NewAccountName  string `json:"newAccountName,omitempty" validate:"required_if=ForNewAccount true,max=100"`
}

// CreatePartitionResponse may come back empty. When the server echoes the
// created ids the planner scopes keys tighter.
type CreatePartitionResponse struct {
	PartitionID string `json:"partitionId,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
}

type UpdatePartitionRequest struct {
	Scope
	PartitionID string `json:"partitionId" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
}

type PartitionRequest struct {
	Scope
	PartitionID string `json:"partitionId" validate:"required"`
}

type CreateCategoryRequest struct {
	Scope
	Name      string            `json:"name" validate:"required,max=100"`
	Kind      core.CategoryKind `json:"kind" validate:"required,oneof=Income Expense Transfer"`
	IsPrivate bool              `json:"isPrivate"`
}

type CreateCategoryResponse struct {
	CategoryID string `json:"categoryId,omitempty"`
}

type UpdateCategoryRequest struct {
	Scope
	CategoryID string `json:"categoryId" validate:"required"`
	Name       string `json:"name" validate:"required,max=100"`
}

type CategoryRequest struct {
	Scope
	CategoryID string `json:"categoryId" validate:"required"`
}

type AccountRequest struct {
	Scope
	AccountID string `json:"accountId" validate:"required"`
}

type AccountBalanceRequest struct {
	AccountRequest
	Period
}

type PartitionBalanceRequest struct {
	PartitionRequest
	Period
}

type CategoryBalanceRequest struct {
	CategoryRequest
	Period
}

type CategoryKindBalanceRequest struct {
	Scope
	Period
	Kind core.CategoryKind `json:"kind" validate:"required,oneof=Income Expense Transfer"`
}
