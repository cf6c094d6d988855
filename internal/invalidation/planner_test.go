package invalidation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/rpc"
)

func partitionRef(id, accountID string) core.PartitionRef {
	return core.PartitionRef{ID: id, Account: core.AccountRef{ID: accountID}}
}

func TestPlanCreateTransactionNonTransfer(t *testing.T) {
	res := rpc.CreateTransactionResponse{
		Transaction: &core.Transaction{
			ID:              "t1",
			Category:        core.CategoryRef{ID: "C", Kind: core.Expense},
			SourcePartition: partitionRef("P", "A"),
		},
	}

	got := Strings(PlanCreateTransaction(res))

	assert.ElementsMatch(t, []string{
		"transactions",
		"categoryBalance?categoryId=C",
		"partitionBalance?partitionId=P",
		"accountBalance?accountId=A",
		"categoryKindBalance?kind=Expense",
	}, got)
}

func TestPlanCreateTransactionTransfer(t *testing.T) {
	transfer := core.CategoryRef{ID: "T", Kind: core.Transfer}
	res := rpc.CreateTransactionResponse{
		Transaction: &core.Transaction{ID: "t1", Category: transfer, SourcePartition: partitionRef("P1", "A1")},
		Counterpart: &core.Transaction{ID: "t2", Category: transfer, SourcePartition: partitionRef("P2", "A2")},
	}

	got := Strings(PlanCreateTransaction(res))

	assert.ElementsMatch(t, []string{
		"transactions",
		"categoryBalance?categoryId=T",
		"partitionBalance?partitionId=P1",
		"partitionBalance?partitionId=P2",
		"accountBalance?accountId=A1",
		"accountBalance?accountId=A2",
		"categoryKindBalance?kind=Transfer",
	}, got)
}

func TestPlanCreateTransactionCounterpartOwnCategory(t *testing.T) {
	res := rpc.CreateTransactionResponse{
		Transaction: &core.Transaction{Category: core.CategoryRef{ID: "T1", Kind: core.Transfer}, SourcePartition: partitionRef("P1", "A")},
		Counterpart: &core.Transaction{Category: core.CategoryRef{ID: "T2", Kind: core.Transfer}, SourcePartition: partitionRef("P2", "A")},
	}

	got := Strings(PlanCreateTransaction(res))

	assert.Contains(t, got, "categoryBalance?categoryId=T1")
	assert.Contains(t, got, "categoryBalance?categoryId=T2")
	// Same account on both sides collapses to one key.
	assert.Len(t, filterOp(PlanCreateTransaction(res), OpAccountBalance), 1)
	assert.Len(t, filterOp(PlanCreateTransaction(res), OpCategoryKindBalance), 1)
}

func TestPlanCreateTransactionEmpty(t *testing.T) {
	assert.Empty(t, PlanCreateTransaction(rpc.CreateTransactionResponse{}))
}

func TestPlanDeleteTransaction(t *testing.T) {
	tx := core.Transaction{
		ID:              "t1",
		Category:        core.CategoryRef{ID: "C", Kind: core.Income},
		SourcePartition: partitionRef("P", "A"),
	}

	got := Strings(PlanDeleteTransaction(tx))

	assert.ElementsMatch(t, []string{
		"transactions",
		"partitionBalance?partitionId=P",
		"partitionCanBeDeleted?partitionId=P",
		"accountBalance?accountId=A",
		"accountCanBeDeleted?accountId=A",
		"categoryBalance?categoryId=C",
		"categoryCanBeDeleted?categoryId=C",
		"categoryKindBalance?kind=Income",
	}, got)
}

func TestPlanDeleteTransferWithCounterpart(t *testing.T) {
	other := core.CategoryRef{ID: "C2", Kind: core.Transfer}
	tx := core.Transaction{
		ID:              "t1",
		Category:        core.CategoryRef{ID: "C", Kind: core.Transfer},
		SourcePartition: partitionRef("P1", "A1"),
		Counterpart: &core.Counterpart{
			ID:              "t2",
			SourcePartition: partitionRef("P2", "A2"),
			Category:        &other,
		},
	}

	keys := PlanDeleteTransaction(tx)
	got := Strings(keys)

	for _, want := range []string{
		"partitionBalance?partitionId=P1",
		"partitionBalance?partitionId=P2",
		"partitionCanBeDeleted?partitionId=P2",
		"accountBalance?accountId=A1",
		"accountBalance?accountId=A2",
		"accountCanBeDeleted?accountId=A2",
	} {
		assert.Contains(t, got, want)
	}
	require.Len(t, filterOp(keys, OpCategoryBalance), 1)
	assert.Equal(t, "categoryBalance?categoryId=C", filterOp(keys, OpCategoryBalance)[0].String())
	assert.NotContains(t, got, "categoryCanBeDeleted?categoryId=C2")
}

func TestPlansAreScoped(t *testing.T) {
	tx := core.Transaction{
		Category:        core.CategoryRef{ID: "C", Kind: core.Expense},
		SourcePartition: partitionRef("P", "A"),
	}
	plans := [][]Key{
		PlanDeleteTransaction(tx),
		PlanCreateTransaction(rpc.CreateTransactionResponse{Transaction: &tx}),
		PlanDeletePartition("u1", "A", "P"),
		PlanDeleteCategory("u1", "C"),
		PlanDeleteAccount("u1", "A"),
		PlanCreatePartition("u1", rpc.CreatePartitionRequest{AccountID: "A"}, rpc.CreatePartitionResponse{}),
	}
	for _, keys := range plans {
		for _, k := range keys {
			if k.Op == OpTransactions {
				continue
			}
			assert.NotEmpty(t, k.Params, "key %s must be scoped", k)
		}
	}
}

func TestPlansDropKeysWithEmptyIDs(t *testing.T) {
	orphan := core.Transaction{
		Category:        core.CategoryRef{ID: "C", Kind: core.Expense},
		SourcePartition: partitionRef("P", ""),
		Counterpart:     &core.Counterpart{SourcePartition: partitionRef("", "")},
	}
	orphanCounterpart := &core.Transaction{SourcePartition: partitionRef("", "")}
	plans := map[string][]Key{
		"create, no account": PlanCreateTransaction(rpc.CreateTransactionResponse{Transaction: &orphan, Counterpart: orphanCounterpart}),
		"delete, no account": PlanDeleteTransaction(orphan),
		"delete category":    PlanDeleteCategory("u1", ""),
		"update category":    PlanUpdateCategory("", ""),
		"delete partition":   PlanDeletePartition("u1", "", ""),
		"delete account":     PlanDeleteAccount("", ""),
		"create partition":   PlanCreatePartition("", rpc.CreatePartitionRequest{ForNewAccount: true}, rpc.CreatePartitionResponse{}),
	}
	unrelated := []Key{
		AccountBalance("A9"),
		AccountCanBeDeleted("A9"),
		PartitionBalance("P9"),
		PartitionCanBeDeleted("P9"),
		CategoryCanBeDeleted("C9"),
		CategoryBalance("C9"),
		Categories("u9"),
		Accounts("u9"),
	}
	for name, keys := range plans {
		t.Run(name, func(t *testing.T) {
			for _, k := range keys {
				if k.Op != OpTransactions {
					assert.NotEmpty(t, k.Params, "key %s must be scoped", k)
				}
				for _, other := range unrelated {
					assert.False(t, k.Matches(other), "%s matches %s", k, other)
				}
			}
		})
	}

	assert.Equal(t, []string{"categories?userId=u1"}, Strings(PlanDeleteCategory("u1", "")))
	assert.Contains(t, Strings(PlanCreateTransaction(rpc.CreateTransactionResponse{Transaction: &orphan})), "partitionBalance?partitionId=P")
}

func TestPlanPartitionMutations(t *testing.T) {
	assert.Equal(t, []string{
		"accountCanBeDeleted?accountId=A",
		"partitionCanBeDeleted?partitionId=P",
		"partitionOptions?userId=u1",
		"partitions?accountId=A&userId=u1",
	}, Strings(PlanDeletePartition("u1", "A", "P")))

	assert.Equal(t, []string{
		"partitionOptions?userId=u1",
		"partitions?userId=u1",
	}, Strings(PlanUpdatePartition("u1", "", "")))
	assert.Equal(t, []string{
		"partitionCanBeDeleted?partitionId=P",
		"partitionOptions?userId=u1",
		"partitions?accountId=A&userId=u1",
	}, Strings(PlanUpdatePartition("u1", "A", "P")))

	created := Strings(PlanCreatePartition("u1",
		rpc.CreatePartitionRequest{ForNewAccount: true, NewAccountName: "Bank"},
		rpc.CreatePartitionResponse{}))
	assert.Equal(t, []string{
		"accounts?userId=u1",
		"partitionOptions?userId=u1",
		"partitions?userId=u1",
	}, created)

	echoed := Strings(PlanCreatePartition("u1",
		rpc.CreatePartitionRequest{ForNewAccount: true},
		rpc.CreatePartitionResponse{AccountID: "A9", PartitionID: "P9"}))
	assert.Contains(t, echoed, "partitions?accountId=A9&userId=u1")
	assert.Contains(t, echoed, "accountCanBeDeleted?accountId=A9")
}

func TestPlanCategoryAndAccountMutations(t *testing.T) {
	assert.Equal(t, []string{"categories?userId=u1"}, Strings(PlanCreateCategory("u1")))
	assert.Equal(t, []string{
		"categories?userId=u1",
		"categoryCanBeDeleted?categoryId=C",
	}, Strings(PlanUpdateCategory("u1", "C")))
	assert.Equal(t, []string{
		"categories?userId=u1",
		"categoryCanBeDeleted?categoryId=C",
	}, Strings(PlanDeleteCategory("u1", "C")))
	assert.Equal(t, []string{
		"accountCanBeDeleted?accountId=A",
		"accounts?userId=u1",
		"partitionOptions?userId=u1",
		"partitions?accountId=A&userId=u1",
	}, Strings(PlanDeleteAccount("u1", "A")))
}

func filterOp(keys []Key, op string) []Key {
	var out []Key
	for _, k := range keys {
		if k.Op == op {
			out = append(out, k)
		}
	}
	return out
}
