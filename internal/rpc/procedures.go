package rpc

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Procedure names as they appear in the RPC path.
const (
	ProcFindUser               = "findUser"
	ProcGetAccounts            = "getAccounts"
	ProcGetPartitions          = "getPartitions"
	ProcGetPartitionOptions    = "getPartitionOptions"
	ProcGetUserCategories      = "getUserCategories"
	ProcFindTransactions       = "findTransactions"
	ProcCreateTransaction      = "createTransaction"
	ProcDeleteTransaction      = "deleteTransaction"
	ProcCreatePartition        = "createPartition"
	ProcUpdatePartition        = "updatePartition"
	ProcDeletePartition        = "deletePartition"
	ProcCreateCategory         = "createUserCategory"
	ProcUpdateCategory         = "updateCategory"
	ProcDeleteCategory         = "deleteCategory"
	ProcDeleteAccount          = "deleteAccount"
	ProcGetAccountBalance      = "getAccountBalance"
	ProcGetPartitionBalance    = "getPartitionBalance"
	ProcGetCategoryBalance     = "getCategoryBalance"
	ProcGetCategoryKindBalance = "getCategoryKindBalance"
	ProcAccountCanBeDeleted    = "accountCanBeDeleted"
	ProcPartitionCanBeDeleted  = "partitionCanBeDeleted"
	ProcCategoryCanBeDeleted   = "categoryCanBeDeleted"
)

// Procedures is the remote surface of the ledger server.
type Procedures interface {
	// FindUser returns nil without error when no such user exists.
	FindUser(ctx context.Context, req FindUserRequest) (*core.User, error)
	GetAccounts(ctx context.Context, req GetAccountsRequest) ([]core.Account, error)
	GetPartitions(ctx context.Context, req GetPartitionsRequest) ([]core.Partition, error)
	GetPartitionOptions(ctx context.Context, req ScopeRequest) ([]core.PartitionOption, error)
	GetUserCategories(ctx context.Context, req ScopeRequest) (UserCategories, error)
	FindTransactions(ctx context.Context, req FindTransactionsRequest) (FindTransactionsResponse, error)

	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (CreateTransactionResponse, error)
	DeleteTransaction(ctx context.Context, req TransactionRequest) error
	CreatePartition(ctx context.Context, req CreatePartitionRequest) (CreatePartitionResponse, error)
	UpdatePartition(ctx context.Context, req UpdatePartitionRequest) error
	DeletePartition(ctx context.Context, req PartitionRequest) error
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (CreateCategoryResponse, error)
	UpdateCategory(ctx context.Context, req UpdateCategoryRequest) error
	DeleteCategory(ctx context.Context, req CategoryRequest) error
	DeleteAccount(ctx context.Context, req AccountRequest) error

	GetAccountBalance(ctx context.Context, req AccountBalanceRequest) (decimal.Decimal, error)
	GetPartitionBalance(ctx context.Context, req PartitionBalanceRequest) (decimal.Decimal, error)
	GetCategoryBalance(ctx context.Context, req CategoryBalanceRequest) (decimal.Decimal, error)
	GetCategoryKindBalance(ctx context.Context, req CategoryKindBalanceRequest) (decimal.Decimal, error)

	AccountCanBeDeleted(ctx context.Context, req AccountRequest) (bool, error)
	PartitionCanBeDeleted(ctx context.Context, req PartitionRequest) (bool, error)
	CategoryCanBeDeleted(ctx context.Context, req CategoryRequest) (bool, error)
}
