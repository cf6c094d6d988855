package invalidation

import (
	"slices"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/rpc"
)

// keySet collects keys once each and returns them in canonical order.
type keySet map[string]Key

// add skips entity keys built from an empty id: without params they would
// match every entity of their kind. transactions is the only key that is
// unscoped on purpose.
func (s keySet) add(keys ...Key) {
	for _, k := range keys {
		if len(k.Params) == 0 && k.Op != OpTransactions {
			continue
		}
		s[k.String()] = k
	}
}

func (s keySet) sorted() []Key {
	out := make([]Key, 0, len(s))
	for _, k := range s {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b Key) int { return strings.Compare(a.String(), b.String()) })
	return out
}

// PlanCreateTransaction returns the keys made stale by a created
// transaction: the transaction lists, the category, partition, account and
// category kind balances of the source side, and for a visible transfer the
// partition and account balances of the destination. A counterpart booked
// on a different category also stales that category and its kind.
func PlanCreateTransaction(res rpc.CreateTransactionResponse) []Key {
	set := keySet{}
	if tx := res.Transaction; tx != nil {
		set.add(
			Transactions(),
			CategoryBalance(tx.Category.ID),
			PartitionBalance(tx.SourcePartition.ID),
			AccountBalance(tx.AccountID()),
			CategoryKindBalance(tx.Category.Kind),
		)
	}
	if cp := res.Counterpart; cp != nil {
		set.add(
			Transactions(),
			PartitionBalance(cp.SourcePartition.ID),
			AccountBalance(cp.AccountID()),
		)
		if res.Transaction == nil || cp.Category.ID != res.Transaction.Category.ID {
			set.add(CategoryBalance(cp.Category.ID), CategoryKindBalance(cp.Category.Kind))
		}
	}
	return set.sorted()
}

// PlanDeleteTransaction returns the keys made stale by deleting tx. Besides
// balances, the deletability predicates of its partition, account and
// category change since they may have lost their last transaction. The
// counterpart side mirrors only the partition and account keys.
func PlanDeleteTransaction(tx core.Transaction) []Key {
	set := keySet{}
	set.add(
		Transactions(),
		PartitionBalance(tx.SourcePartition.ID),
		PartitionCanBeDeleted(tx.SourcePartition.ID),
		AccountBalance(tx.AccountID()),
		AccountCanBeDeleted(tx.AccountID()),
		CategoryBalance(tx.Category.ID),
		CategoryCanBeDeleted(tx.Category.ID),
		CategoryKindBalance(tx.Category.Kind),
	)
	if cp := tx.Counterpart; cp != nil {
		set.add(
			PartitionBalance(cp.SourcePartition.ID),
			PartitionCanBeDeleted(cp.SourcePartition.ID),
			AccountBalance(cp.SourcePartition.Account.ID),
			AccountCanBeDeleted(cp.SourcePartition.Account.ID),
		)
	}
	return set.sorted()
}

// PlanCreatePartition covers both a partition added to an existing account
// and one created together with a new account.
func PlanCreatePartition(userID string, req rpc.CreatePartitionRequest, res rpc.CreatePartitionResponse) []Key {
	accountID := req.AccountID
	if res.AccountID != "" {
		accountID = res.AccountID
	}
	set := keySet{}
	set.add(PartitionOptions(userID))
	if req.ForNewAccount {
		set.add(Accounts(userID))
	}
	set.add(Partitions(userID, accountID), AccountCanBeDeleted(accountID))
	return set.sorted()
}

// PlanUpdatePartition handles a rename. Balances are unaffected.
func PlanUpdatePartition(userID, accountID, partitionID string) []Key {
	set := keySet{}
	set.add(Partitions(userID, accountID), PartitionOptions(userID), PartitionCanBeDeleted(partitionID))
	return set.sorted()
}

func PlanDeletePartition(userID, accountID, partitionID string) []Key {
	set := keySet{}
	set.add(
		Partitions(userID, accountID),
		PartitionOptions(userID),
		PartitionCanBeDeleted(partitionID),
		AccountCanBeDeleted(accountID),
	)
	return set.sorted()
}

func PlanCreateCategory(userID string) []Key {
	set := keySet{}
	set.add(Categories(userID))
	return set.sorted()
}

func PlanUpdateCategory(userID, categoryID string) []Key {
	set := keySet{}
	set.add(Categories(userID), CategoryCanBeDeleted(categoryID))
	return set.sorted()
}

func PlanDeleteCategory(userID, categoryID string) []Key {
	set := keySet{}
	set.add(Categories(userID), CategoryCanBeDeleted(categoryID))
	return set.sorted()
}

func PlanDeleteAccount(userID, accountID string) []Key {
	set := keySet{}
	set.add(
		Accounts(userID),
		Partitions(userID, accountID),
		PartitionOptions(userID),
		AccountCanBeDeleted(accountID),
	)
	return set.sorted()
}
