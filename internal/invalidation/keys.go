package invalidation

import (
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/rpc"
)

// Invalidation keys. Each is scoped by the entity it belongs to.

func Transactions() Key { return NewKey(OpTransactions) }

func User(username string) Key { return NewKey(OpUser, ParamUsername, username) }

func Accounts(userID string) Key { return NewKey(OpAccounts, ParamUserID, userID) }

// Partitions scopes to one account when accountID is set, else to all of
// the user's accounts.
func Partitions(userID, accountID string) Key {
	return NewKey(OpPartitions, ParamUserID, userID, ParamAccountID, accountID)
}

func PartitionOptions(userID string) Key { return NewKey(OpPartitionOptions, ParamUserID, userID) }

func Categories(userID string) Key { return NewKey(OpCategories, ParamUserID, userID) }

func AccountBalance(accountID string) Key {
	return NewKey(OpAccountBalance, ParamAccountID, accountID)
}

func PartitionBalance(partitionID string) Key {
	return NewKey(OpPartitionBalance, ParamPartitionID, partitionID)
}

func CategoryBalance(categoryID string) Key {
	return NewKey(OpCategoryBalance, ParamCategoryID, categoryID)
}

func CategoryKindBalance(kind core.CategoryKind) Key {
	return NewKey(OpCategoryKindBalance, ParamKind, string(kind))
}

func AccountCanBeDeleted(accountID string) Key {
	return NewKey(OpAccountCanBeDeleted, ParamAccountID, accountID)
}

func PartitionCanBeDeleted(partitionID string) Key {
	return NewKey(OpPartitionCanBeDeleted, ParamPartitionID, partitionID)
}

func CategoryCanBeDeleted(categoryID string) Key {
	return NewKey(OpCategoryCanBeDeleted, ParamCategoryID, categoryID)
}

// Cache keys. These carry every request parameter so that distinct
// queries never share an entry.

func AccountsQuery(req rpc.GetAccountsRequest) Key {
	return NewKey(OpAccounts, ParamUserID, req.UserID, ParamOwned, strconv.FormatBool(req.Owned))
}

func TransactionsQuery(req rpc.FindTransactionsRequest) Key {
	return NewKey(OpTransactions,
		ParamOwnerID, req.OwnerID,
		ParamPartitions, strings.Join(req.PartitionIDs, ","),
		ParamCategories, strings.Join(req.CategoryIDs, ","),
		ParamTSSDate, dateParam(req.TSSDate),
		ParamTSEDate, dateParam(req.TSEDate),
		ParamPage, strconv.Itoa(req.CurrentPage),
		ParamPerPage, strconv.Itoa(req.NPerPage),
	)
}

func AccountBalanceQuery(req rpc.AccountBalanceRequest) Key {
	return withPeriod(AccountBalance(req.AccountID), req.Period)
}

func PartitionBalanceQuery(req rpc.PartitionBalanceRequest) Key {
	return withPeriod(PartitionBalance(req.PartitionID), req.Period)
}

func CategoryBalanceQuery(req rpc.CategoryBalanceRequest) Key {
	return withPeriod(CategoryBalance(req.CategoryID), req.Period)
}

func CategoryKindBalanceQuery(req rpc.CategoryKindBalanceRequest) Key {
	return withPeriod(CategoryKindBalance(req.Kind), req.Period)
}

func withPeriod(k Key, p rpc.Period) Key {
	pairs := make([]string, 0, 2*len(k.Params)+4)
	for _, param := range k.Params {
		pairs = append(pairs, param.Name, param.Value)
	}
	pairs = append(pairs, ParamTSSDate, dateParam(p.TSSDate), ParamTSEDate, dateParam(p.TSEDate))
	return NewKey(k.Op, pairs...)
}

func dateParam(d *core.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
