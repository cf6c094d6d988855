package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/rpc"
)

var (
	alice = rpc.Scope{UserID: "u1", DBName: "demo"}
	bob   = rpc.Scope{UserID: "u2", DBName: "demo"}
)

func newDemo(t *testing.T) *Store {
	t.Helper()
	clock := func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) }
	return New(DemoSeed(), WithClock(clock))
}

func TestFindUser(t *testing.T) {
	s := newDemo(t)
	u, err := s.FindUser(context.Background(), rpc.FindUserRequest{Username: "bob", DBName: "demo"})
	if err != nil || u == nil || u.ID != "u2" {
		t.Fatalf("FindUser(bob) = %+v, %v", u, err)
	}
	u, err = s.FindUser(context.Background(), rpc.FindUserRequest{Username: "nobody", DBName: "demo"})
	if err != nil || u != nil {
		t.Fatalf("FindUser(nobody) = %+v, %v; want nil, nil", u, err)
	}
}

func TestAccountsAndPrivatePartitions(t *testing.T) {
	s := newDemo(t)
	ctx := context.Background()

	owned, err := s.GetAccounts(ctx, rpc.GetAccountsRequest{Scope: alice, Owned: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(owned) != 2 || owned[0].ID != "a1" || owned[1].ID != "a2" {
		t.Fatalf("owned accounts = %+v", owned)
	}
	if len(owned[0].Partitions) != 2 {
		t.Errorf("alice should see her private partition, got %+v", owned[0].Partitions)
	}

	all, _ := s.GetAccounts(ctx, rpc.GetAccountsRequest{Scope: bob})
	if len(all) != 3 {
		t.Fatalf("all accounts = %d, want 3", len(all))
	}
	if all[0].IsOwned || len(all[0].Partitions) != 1 {
		t.Errorf("bob view of a1 = %+v", all[0])
	}

	opts, _ := s.GetPartitionOptions(ctx, rpc.ScopeRequest{Scope: bob})
	for _, o := range opts {
		if o.Partition.ID == "p2" {
			t.Error("private partition offered to a non owner")
		}
	}
	groups := core.GroupPartitionOptions(opts, bob.UserID, false)
	if len(groups) == 0 || groups[0].Group != core.Owned {
		t.Errorf("expected owned group first, got %+v", groups)
	}
}

func TestFindTransactionsPagingAndCounterpart(t *testing.T) {
	s := newDemo(t)
	ctx := context.Background()

	page, err := s.FindTransactions(ctx, rpc.FindTransactionsRequest{
		OwnerID: "u1", DBName: "demo", CurrentPage: 1, NPerPage: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Transactions) != 2 || !page.HasNextPage {
		t.Fatalf("first page = %d txs, next=%v", len(page.Transactions), page.HasNextPage)
	}
	if page.Transactions[0].ID != "t4" {
		t.Errorf("newest first: got %s", page.Transactions[0].ID)
	}

	page, _ = s.FindTransactions(ctx, rpc.FindTransactionsRequest{
		OwnerID: "u1", DBName: "demo", CurrentPage: 2, NPerPage: 2,
	})
	if len(page.Transactions) != 2 || page.HasNextPage {
		t.Fatalf("second page = %d txs, next=%v", len(page.Transactions), page.HasNextPage)
	}

	from, to := core.NewDate(2024, 5, 3), core.NewDate(2024, 5, 3)
	page, _ = s.FindTransactions(ctx, rpc.FindTransactionsRequest{
		OwnerID: "u1", DBName: "demo", PartitionIDs: []string{"p1"},
		TSSDate: &from, TSEDate: &to, CurrentPage: 1, NPerPage: 10,
	})
	if len(page.Transactions) != 1 {
		t.Fatalf("filtered page = %+v", page.Transactions)
	}
	tx := page.Transactions[0]
	if !tx.IsTransfer() || tx.Counterpart == nil || tx.Counterpart.SourcePartition.Account.ID != "a2" {
		t.Errorf("transfer counterpart = %+v", tx.Counterpart)
	}
}

func TestBalances(t *testing.T) {
	s := newDemo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		get  func() (decimal.Decimal, error)
		want string
	}{
		{"account a1", func() (decimal.Decimal, error) {
			return s.GetAccountBalance(ctx, rpc.AccountBalanceRequest{AccountRequest: rpc.AccountRequest{Scope: alice, AccountID: "a1"}})
		}, "1700"},
		{"partition p3", func() (decimal.Decimal, error) {
			return s.GetPartitionBalance(ctx, rpc.PartitionBalanceRequest{PartitionRequest: rpc.PartitionRequest{Scope: alice, PartitionID: "p3"}})
		}, "254.8"},
		{"category food", func() (decimal.Decimal, error) {
			return s.GetCategoryBalance(ctx, rpc.CategoryBalanceRequest{CategoryRequest: rpc.CategoryRequest{Scope: alice, CategoryID: "c2"}})
		}, "-45.2"},
		{"transfer kind nets to zero", func() (decimal.Decimal, error) {
			return s.GetCategoryKindBalance(ctx, rpc.CategoryKindBalanceRequest{Scope: alice, Kind: core.Transfer})
		}, "0"},
		{"income outside range", func() (decimal.Decimal, error) {
			from := core.NewDate(2024, 5, 2)
			return s.GetCategoryKindBalance(ctx, rpc.CategoryKindBalanceRequest{Scope: alice, Kind: core.Income, Period: rpc.Period{TSSDate: &from}})
		}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.get()
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCreateAndDeleteTransfer(t *testing.T) {
	s := newDemo(t)
	ctx := context.Background()

	resp, err := s.CreateTransaction(ctx, rpc.CreateTransactionRequest{
		SourcePartitionID:      "p1",
		DestinationPartitionID: "p2",
		CategoryID:             "c3",
		Value:                  rpc.NewAmount(decimal.NewFromInt(-50)),
		UserID:                 "u1",
		DBName:                 "demo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Transaction == nil || resp.Counterpart == nil {
		t.Fatalf("expected both sides, got %+v", resp)
	}
	if !resp.Counterpart.Value.Equal(decimal.NewFromInt(50)) {
		t.Errorf("counterpart value = %s", resp.Counterpart.Value)
	}
	if resp.Transaction.Date.String() != "2024-05-10" {
		t.Errorf("date = %s", resp.Transaction.Date)
	}

	// Bob cannot see the private destination.
	page, _ := s.FindTransactions(ctx, rpc.FindTransactionsRequest{
		OwnerID: "u2", DBName: "demo", PartitionIDs: []string{"p1"}, CurrentPage: 1, NPerPage: 10,
	})
	for _, tx := range page.Transactions {
		if tx.ID == resp.Transaction.ID && tx.Counterpart != nil {
			t.Error("counterpart on a private partition must be hidden")
		}
	}

	if err := s.DeleteTransaction(ctx, rpc.TransactionRequest{Scope: alice, TransactionID: resp.Transaction.ID}); err != nil {
		t.Fatal(err)
	}
	ok, _ := s.PartitionCanBeDeleted(ctx, rpc.PartitionRequest{Scope: alice, PartitionID: "p2"})
	if !ok {
		t.Error("both sides should be gone after delete")
	}
	err = s.DeleteTransaction(ctx, rpc.TransactionRequest{Scope: alice, TransactionID: resp.Transaction.ID})
	if !errors.Is(err, rpc.ErrNotFound) {
		t.Errorf("second delete = %v, want not found", err)
	}
}

func TestCreateTransactionRejectsDestinationForNonTransfer(t *testing.T) {
	s := newDemo(t)
	_, err := s.CreateTransaction(context.Background(), rpc.CreateTransactionRequest{
		SourcePartitionID:      "p1",
		DestinationPartitionID: "p3",
		CategoryID:             "c2",
		Value:                  rpc.NewAmount(decimal.NewFromInt(-1)),
		UserID:                 "u1",
		DBName:                 "demo",
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDeleteConflicts(t *testing.T) {
	s := newDemo(t)
	ctx := context.Background()

	if err := s.DeleteAccount(ctx, rpc.AccountRequest{Scope: alice, AccountID: "a1"}); !errors.Is(err, rpc.ErrConflict) {
		t.Errorf("DeleteAccount(a1) = %v, want conflict", err)
	}
	if err := s.DeleteCategory(ctx, rpc.CategoryRequest{Scope: alice, CategoryID: "c2"}); !errors.Is(err, rpc.ErrConflict) {
		t.Errorf("DeleteCategory(c2) = %v, want conflict", err)
	}
	if err := s.DeletePartition(ctx, rpc.PartitionRequest{Scope: bob, PartitionID: "p4"}); err != nil {
		t.Errorf("DeletePartition(p4) = %v", err)
	}
	if err := s.DeleteAccount(ctx, rpc.AccountRequest{Scope: bob, AccountID: "a3"}); err != nil {
		t.Errorf("DeleteAccount(a3) = %v", err)
	}
	ok, _ := s.AccountCanBeDeleted(ctx, rpc.AccountRequest{Scope: alice, AccountID: "a2"})
	if ok {
		t.Error("a2 has transactions")
	}
}

func TestCreatePartitionAndCategory(t *testing.T) {
	s := newDemo(t)
	ctx := context.Background()

	res, err := s.CreatePartition(ctx, rpc.CreatePartitionRequest{
		Scope: alice, Name: "Cash", ForNewAccount: true, NewAccountName: "Wallet", IsSharedAccount: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.PartitionID == "" || res.AccountID == "" {
		t.Fatalf("missing ids: %+v", res)
	}
	accounts, _ := s.GetAccounts(ctx, rpc.GetAccountsRequest{Scope: bob, Owned: true})
	found := false
	for _, a := range accounts {
		if a.ID == res.AccountID {
			found = true
		}
	}
	if !found {
		t.Error("shared account should be owned by bob too")
	}

	if err := s.UpdatePartition(ctx, rpc.UpdatePartitionRequest{Scope: alice, PartitionID: res.PartitionID, Name: "Petty cash"}); err != nil {
		t.Fatal(err)
	}
	parts, _ := s.GetPartitions(ctx, rpc.GetPartitionsRequest{Scope: alice, AccountID: res.AccountID})
	if len(parts) != 1 || parts[0].Name != "Petty cash" {
		t.Errorf("partitions = %+v", parts)
	}

	cat, err := s.CreateCategory(ctx, rpc.CreateCategoryRequest{Scope: alice, Name: "Gifts", Kind: core.Expense})
	if err != nil {
		t.Fatal(err)
	}
	cats, _ := s.GetUserCategories(ctx, rpc.ScopeRequest{Scope: alice})
	if _, ok := cats.Find(cat.CategoryID); !ok {
		t.Error("created category not listed")
	}
	if err := s.DeleteCategory(ctx, rpc.CategoryRequest{Scope: alice, CategoryID: cat.CategoryID}); err != nil {
		t.Errorf("DeleteCategory = %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil || s == nil {
		t.Fatalf("missing file should give the demo seed: %v", err)
	}

	path := filepath.Join(dir, "seed.json")
	seed := `{"users":[{"id":"x","username":"xavier","dbname":"db"}],
		"accounts":[{"id":"acc","name":"Only","ownerIds":["x"]}],
		"partitions":[{"id":"part","name":"Main","accountId":"acc"}],
		"categories":[{"id":"cat","name":"Misc","kind":"Expense"}],
		"transactions":[{"id":"tx","date":"2024-01-02","value":"-3.5","categoryId":"cat","partitionId":"part"}]}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	bal, err := s.GetAccountBalance(context.Background(), rpc.AccountBalanceRequest{
		AccountRequest: rpc.AccountRequest{Scope: rpc.Scope{UserID: "x", DBName: "db"}, AccountID: "acc"},
	})
	if err != nil || !bal.Equal(decimal.RequireFromString("-3.5")) {
		t.Errorf("balance = %s, %v", bal, err)
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Error("expected decode error")
	}
}
