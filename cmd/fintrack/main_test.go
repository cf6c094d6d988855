package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/filter"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func testApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("FINTRACK_USERNAME", "alice")
	t.Setenv("FINTRACK_DBNAME", "demo")
	t.Setenv("RPC_BACKEND", "memory")
	t.Setenv("BROADCAST_BACKEND", "none")
	t.Setenv("CACHE_SNAPSHOT_PATH", "")

	cfg := config.Load()
	require.NoError(t, cfg.Validate())

	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Component: log.ComponentApp})

	a, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNewAppUnknownUser(t *testing.T) {
	t.Setenv("FINTRACK_DBNAME", "demo")
	t.Setenv("RPC_BACKEND", "memory")
	cfg := config.Load()
	cfg.Username = "mallory"

	_, err := newApp(context.Background(), cfg, log.New(log.Config{Output: &bytes.Buffer{}}))
	assert.Error(t, err)
}

func TestFilterFlagsActions(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()

	flags := filterFlags{
		accounts: []string{"a1"},
		kinds:    []string{"expense"},
		from:     "2024-05-01",
		to:       "2024-05-31",
		perPage:  10,
		page:     2,
	}
	actions, err := flags.actions(ctx, a.tracker)
	require.NoError(t, err)

	state := a.tracker.Dispatch(actions...)
	assert.True(t, state.PartitionIDs.Has("p1"))
	assert.False(t, state.PartitionIDs.Has("p3"))
	assert.Equal(t, []string{"c2"}, state.CategoryIDs.Sorted())
	assert.Equal(t, "2024-05-01", state.TSSDate.String())
	assert.Equal(t, "2024-05-31", state.TSEDate.String())
	assert.Equal(t, 10, state.NPerPage)
	assert.Equal(t, 2, state.CurrentPage)

	// Same account again clears its partitions.
	actions, err = (&filterFlags{accounts: []string{"a1"}}).actions(ctx, a.tracker)
	require.NoError(t, err)
	state = a.tracker.Dispatch(actions...)
	assert.False(t, state.PartitionIDs.Has("p1"))
	assert.Equal(t, 1, state.CurrentPage)
}

func TestFilterFlagsErrors(t *testing.T) {
	a := testApp(t)

	tests := []struct {
		name  string
		flags filterFlags
	}{
		{"bad from", filterFlags{from: "May 1st"}},
		{"bad to", filterFlags{to: "2024-13-01"}},
		{"bad kind", filterFlags{kinds: []string{"Loan"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.actions(context.Background(), a.tracker)
			assert.Error(t, err)
		})
	}
}

func TestFilterFlagsAllTime(t *testing.T) {
	a := testApp(t)
	actions, err := (&filterFlags{allTime: true}).actions(context.Background(), a.tracker)
	require.NoError(t, err)

	state := a.tracker.Dispatch(actions...)
	assert.Nil(t, state.TSSDate)
	assert.Nil(t, state.TSEDate)
}

func TestPrintTransactions(t *testing.T) {
	a := testApp(t)
	from, to := core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31)
	a.tracker.Dispatch(filter.SetTSSDate{Date: &from}, filter.SetTSEDate{Date: &to})

	page, err := a.tracker.Transactions(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	printTransactions(&buf, page)
	out := buf.String()

	assert.Contains(t, out, "May salary")
	assert.Contains(t, out, "2000.00")
	assert.Contains(t, out, "transfer → Household / Groceries")
	assert.Contains(t, out, "page 1")
}

func TestPrintTransactionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printTransactions(&buf, servicesPage(nil))
	assert.Equal(t, "No transactions found.\n", buf.String())
}

func TestPrintOverviewFlagsAnomalies(t *testing.T) {
	a := testApp(t)
	// New transactions are dated today, so look at all time.
	a.tracker.Dispatch(filter.SetTSSDate{}, filter.SetTSEDate{})

	_, err := a.tracker.CreateTransaction(context.Background(), core.TransactionInput{
		SourcePartitionID: "p1",
		CategoryID:        "c1",
		Value:             mustValue(t, "-5000"),
	})
	require.NoError(t, err)

	overview, err := a.tracker.Balances(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	printOverview(&buf, overview)
	out := buf.String()

	assert.Contains(t, out, "Alice Bank")
	assert.Contains(t, out, "! expected >=0")
	assert.Contains(t, out, "balance(s) with an unexpected sign")
}

func TestPrintOverviewMarksFailedLines(t *testing.T) {
	o := core.Overview{
		Accounts: []core.BalanceLine{
			{Entity: core.AccountEntity, ID: "a1", Label: "Alice Bank", Balance: mustValue(t, "12.50"), Expected: core.NonNegative},
		},
		Categories: []core.BalanceLine{
			{Entity: core.CategoryEntity, ID: "c1", Label: "Salary", Expected: core.NonNegative, Err: errors.New("category balance c1: boom")},
		},
	}

	var buf bytes.Buffer
	printOverview(&buf, o)
	out := buf.String()

	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "! unavailable")
	assert.Contains(t, out, "error: category balance c1: boom")
	assert.NotContains(t, out, "unexpected sign")
}

func TestPrintCategoriesAndAccounts(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()

	cats, err := a.tracker.Categories(ctx)
	require.NoError(t, err)
	var buf bytes.Buffer
	printCategories(&buf, cats)
	assert.Contains(t, buf.String(), "Salary")
	assert.Contains(t, buf.String(), "Expense")

	groups, err := a.tracker.GroupedAccounts(ctx)
	require.NoError(t, err)
	buf.Reset()
	printAccounts(&buf, groups)
	assert.Contains(t, buf.String(), "owned")
	assert.Contains(t, buf.String(), "alice,bob")
}

func servicesPage(txs []core.Transaction) services.TransactionsPage {
	return services.TransactionsPage{Transactions: txs}
}

func mustValue(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := core.ParseValue(s)
	require.NoError(t, err)
	return v
}
