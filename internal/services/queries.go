package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/filter"
	"fintrack/internal/invalidation"
	"fintrack/internal/log"
	"fintrack/internal/rpc"
)

// TransactionsPage is one page of the filtered transaction list.
type TransactionsPage struct {
	Request      rpc.FindTransactionsRequest
	Transactions []core.Transaction
	HasNextPage  bool
	// Version is the filter store version the page was loaded for.
	Version uint64
}

// Transactions loads the page selected by the current filter. If the
// filter changes before the load completes the result is dropped and
// ErrSuperseded is returned.
func (s *TrackerService) Transactions(ctx context.Context) (TransactionsPage, error) {
	state, version := s.store.Snapshot()
	req := filter.FindTransactionsRequest(state, s.user)

	resp, err := cache.Fetch(ctx, s.cache, invalidation.TransactionsQuery(req), func(ctx context.Context) (rpc.FindTransactionsResponse, error) {
		return s.procs.FindTransactions(ctx, req)
	})
	if err != nil {
		return TransactionsPage{}, fmt.Errorf("find transactions: %w", err)
	}
	if s.store.Version() != version {
		s.logger.DebugContext(ctx, "Dropping superseded transactions page", "version", version)
		return TransactionsPage{}, ErrSuperseded
	}
	return TransactionsPage{
		Request:      req,
		Transactions: resp.Transactions,
		HasNextPage:  resp.HasNextPage,
		Version:      version,
	}, nil
}

// maxLookupPages bounds the scan done by LookupTransaction.
const maxLookupPages = 20

// LookupTransaction finds a visible transaction by id regardless of the
// current filter. Deleting needs the full record to plan invalidations.
func (s *TrackerService) LookupTransaction(ctx context.Context, id string) (core.Transaction, error) {
	req := rpc.FindTransactionsRequest{
		OwnerID:     s.user.ID,
		DBName:      s.user.DBName,
		CurrentPage: 1,
		NPerPage:    500,
	}
	for ; req.CurrentPage <= maxLookupPages; req.CurrentPage++ {
		resp, err := s.procs.FindTransactions(ctx, req)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("lookup transaction: %w", err)
		}
		for _, tx := range resp.Transactions {
			if tx.ID == id {
				return tx, nil
			}
		}
		if !resp.HasNextPage {
			break
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, rpc.ErrNotFound)
}

// Accounts lists the accounts visible to the user, or only the owned ones.
func (s *TrackerService) Accounts(ctx context.Context, owned bool) ([]core.Account, error) {
	req := rpc.GetAccountsRequest{Scope: s.scope(), Owned: owned}
	return cache.Fetch(ctx, s.cache, invalidation.AccountsQuery(req), func(ctx context.Context) ([]core.Account, error) {
		return s.procs.GetAccounts(ctx, req)
	})
}

// GroupedAccounts buckets the visible accounts by ownership.
func (s *TrackerService) GroupedAccounts(ctx context.Context) (map[core.OwnershipGroup][]core.Account, error) {
	accounts, err := s.Accounts(ctx, false)
	if err != nil {
		return nil, err
	}
	return core.GroupAccounts(accounts, s.user.ID), nil
}

func (s *TrackerService) Partitions(ctx context.Context, accountID string) ([]core.Partition, error) {
	req := rpc.GetPartitionsRequest{Scope: s.scope(), AccountID: accountID}
	return cache.Fetch(ctx, s.cache, invalidation.Partitions(s.user.ID, accountID), func(ctx context.Context) ([]core.Partition, error) {
		return s.procs.GetPartitions(ctx, req)
	})
}

func (s *TrackerService) PartitionOptions(ctx context.Context) ([]core.PartitionOption, error) {
	req := rpc.ScopeRequest{Scope: s.scope()}
	return cache.Fetch(ctx, s.cache, invalidation.PartitionOptions(s.user.ID), func(ctx context.Context) ([]core.PartitionOption, error) {
		return s.procs.GetPartitionOptions(ctx, req)
	})
}

// GroupedPartitionOptions returns the options ordered and grouped for a
// partition picker.
func (s *TrackerService) GroupedPartitionOptions(ctx context.Context, onlyOwned bool) ([]core.PartitionGroup, error) {
	options, err := s.PartitionOptions(ctx)
	if err != nil {
		return nil, err
	}
	return core.GroupPartitionOptions(options, s.user.ID, onlyOwned), nil
}

func (s *TrackerService) Categories(ctx context.Context) (rpc.UserCategories, error) {
	req := rpc.ScopeRequest{Scope: s.scope()}
	return cache.Fetch(ctx, s.cache, invalidation.Categories(s.user.ID), func(ctx context.Context) (rpc.UserCategories, error) {
		return s.procs.GetUserCategories(ctx, req)
	})
}

func (s *TrackerService) AccountCanBeDeleted(ctx context.Context, accountID string) (bool, error) {
	req := rpc.AccountRequest{Scope: s.scope(), AccountID: accountID}
	return cache.Fetch(ctx, s.cache, invalidation.AccountCanBeDeleted(accountID), func(ctx context.Context) (bool, error) {
		return s.procs.AccountCanBeDeleted(ctx, req)
	})
}

func (s *TrackerService) PartitionCanBeDeleted(ctx context.Context, partitionID string) (bool, error) {
	req := rpc.PartitionRequest{Scope: s.scope(), PartitionID: partitionID}
	return cache.Fetch(ctx, s.cache, invalidation.PartitionCanBeDeleted(partitionID), func(ctx context.Context) (bool, error) {
		return s.procs.PartitionCanBeDeleted(ctx, req)
	})
}

func (s *TrackerService) CategoryCanBeDeleted(ctx context.Context, categoryID string) (bool, error) {
	req := rpc.CategoryRequest{Scope: s.scope(), CategoryID: categoryID}
	return cache.Fetch(ctx, s.cache, invalidation.CategoryCanBeDeleted(categoryID), func(ctx context.Context) (bool, error) {
		return s.procs.CategoryCanBeDeleted(ctx, req)
	})
}

// Balances loads every account, partition, category and category kind
// balance for the current filter period. Fetches run concurrently, bounded
// by the configured concurrency. Each line keeps its position so output
// order does not depend on completion order. A balance that fails to load
// sets Err on its own line only; the error return is reserved for the
// account and category lists the lines are built from, and for ctx.
func (s *TrackerService) Balances(ctx context.Context) (core.Overview, error) {
	period := filter.Period(s.store.State())

	accounts, err := s.Accounts(ctx, false)
	if err != nil {
		return core.Overview{}, fmt.Errorf("load accounts: %w", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return core.Overview{}, fmt.Errorf("load categories: %w", err)
	}

	overview := core.Overview{Range: period.Range()}
	for _, a := range accounts {
		group := string(core.ClassifyAccount(a, s.user.ID))
		overview.Accounts = append(overview.Accounts, core.BalanceLine{
			Entity: core.AccountEntity, ID: a.ID, Label: a.Name, Group: group, Expected: core.NonNegative,
		})
		for _, p := range a.Partitions {
			overview.Partitions = append(overview.Partitions, core.BalanceLine{
				Entity: core.PartitionEntity, ID: p.ID, Label: a.Name + " / " + p.Name, Group: group, Expected: core.NonNegative,
			})
		}
	}
	for _, kind := range core.CategoryKinds() {
		for _, c := range categories.ByKind(kind) {
			overview.Categories = append(overview.Categories, core.BalanceLine{
				Entity: core.CategoryEntity, ID: c.ID, Label: c.Name, Group: string(kind), Expected: core.ExpectedSign(kind),
			})
		}
		overview.Kinds = append(overview.Kinds, core.BalanceLine{
			Entity: core.CategoryKindEntity, ID: string(kind), Label: string(kind), Group: string(kind), Expected: core.ExpectedSign(kind),
		})
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i := range overview.Accounts {
		line := &overview.Accounts[i]
		req := rpc.AccountBalanceRequest{AccountRequest: rpc.AccountRequest{Scope: s.scope(), AccountID: line.ID}, Period: period}
		g.Go(func() error {
			return s.balance(ctx, line, invalidation.AccountBalanceQuery(req), func(ctx context.Context) (decimal.Decimal, error) {
				return s.procs.GetAccountBalance(ctx, req)
			})
		})
	}
	for i := range overview.Partitions {
		line := &overview.Partitions[i]
		req := rpc.PartitionBalanceRequest{PartitionRequest: rpc.PartitionRequest{Scope: s.scope(), PartitionID: line.ID}, Period: period}
		g.Go(func() error {
			return s.balance(ctx, line, invalidation.PartitionBalanceQuery(req), func(ctx context.Context) (decimal.Decimal, error) {
				return s.procs.GetPartitionBalance(ctx, req)
			})
		})
	}
	for i := range overview.Categories {
		line := &overview.Categories[i]
		req := rpc.CategoryBalanceRequest{CategoryRequest: rpc.CategoryRequest{Scope: s.scope(), CategoryID: line.ID}, Period: period}
		g.Go(func() error {
			return s.balance(ctx, line, invalidation.CategoryBalanceQuery(req), func(ctx context.Context) (decimal.Decimal, error) {
				return s.procs.GetCategoryBalance(ctx, req)
			})
		})
	}
	for i := range overview.Kinds {
		line := &overview.Kinds[i]
		req := rpc.CategoryKindBalanceRequest{Scope: s.scope(), Period: period, Kind: core.CategoryKind(line.ID)}
		g.Go(func() error {
			return s.balance(ctx, line, invalidation.CategoryKindBalanceQuery(req), func(ctx context.Context) (decimal.Decimal, error) {
				return s.procs.GetCategoryKindBalance(ctx, req)
			})
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return overview, err
	}
	return overview, nil
}

func (s *TrackerService) balance(ctx context.Context, line *core.BalanceLine, key invalidation.Key, load func(context.Context) (decimal.Decimal, error)) error {
	v, err := cache.Fetch(ctx, s.cache, key, load)
	if err != nil {
		line.Err = fmt.Errorf("%s balance %s: %w", line.Entity, line.ID, err)
		s.logger.WarnContext(ctx, "Balance unavailable", "key", key.String(), log.FieldError, err)
		return nil
	}
	line.Balance = v
	return nil
}
