package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/filter"
	"fintrack/internal/services"
)

// filterFlags are the list filters accepted by transactions and balances.
type filterFlags struct {
	partitions []string
	accounts   []string
	categories []string
	kinds      []string
	from       string
	to         string
	allTime    bool
	thisMonth  bool
	prev       int
	next       int
	page       int
	perPage    int
}

func (f *filterFlags) register(cmd *cobra.Command, paging bool) {
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.partitions, "partition", "p", nil, "toggle partition ids")
	fl.StringSliceVarP(&f.accounts, "account", "a", nil, "toggle all partitions of account ids")
	fl.StringSliceVarP(&f.categories, "category", "c", nil, "toggle category ids")
	fl.StringSliceVarP(&f.kinds, "kind", "k", nil, "toggle all categories of a kind (Income, Expense, Transfer)")
	fl.StringVar(&f.from, "from", "", "start date YYYY-MM-DD")
	fl.StringVar(&f.to, "to", "", "end date YYYY-MM-DD")
	fl.BoolVar(&f.allTime, "all-time", false, "drop both date bounds")
	fl.BoolVar(&f.thisMonth, "this-month", false, "jump to the current month")
	fl.IntVar(&f.prev, "prev", 0, "step back this many months")
	fl.IntVar(&f.next, "next", 0, "step forward this many months")
	if paging {
		fl.IntVar(&f.page, "page", 0, "page number")
		fl.IntVar(&f.perPage, "per-page", 0, "rows per page")
	}
}

// actions turns the flags into filter actions. Month steps apply before
// explicit dates, and the page is set last since every other change resets
// it to 1.
func (f *filterFlags) actions(ctx context.Context, t *services.TrackerService) ([]filter.Action, error) {
	var out []filter.Action

	if f.thisMonth {
		out = append(out, filter.SetThisMonth{})
	}
	for range f.prev {
		out = append(out, filter.SetPrevMonth{})
	}
	for range f.next {
		out = append(out, filter.SetNextMonth{})
	}
	if f.allTime {
		out = append(out, filter.SetTSSDate{}, filter.SetTSEDate{})
	}
	if f.from != "" {
		d, err := core.ParseDate(f.from)
		if err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
		out = append(out, filter.SetTSSDate{Date: &d})
	}
	if f.to != "" {
		d, err := core.ParseDate(f.to)
		if err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
		out = append(out, filter.SetTSEDate{Date: &d})
	}

	if len(f.partitions) > 0 {
		out = append(out, filter.TogglePartitions{IDs: f.partitions})
	}
	for _, id := range f.accounts {
		parts, err := t.Partitions(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", id, err)
		}
		ids := make([]string, len(parts))
		for i, p := range parts {
			ids[i] = p.ID
		}
		out = append(out, filter.ToggleAccount{PartitionIDs: ids})
	}

	if len(f.categories) > 0 {
		out = append(out, filter.ToggleCategories{IDs: f.categories})
	}
	if len(f.kinds) > 0 {
		cats, err := t.Categories(ctx)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		for _, k := range f.kinds {
			kind, err := core.ParseCategoryKind(k)
			if err != nil {
				return nil, err
			}
			out = append(out, filter.ToggleCategoryKind{CategoryIDs: cats.IDsOfKind(kind)})
		}
	}

	if f.perPage > 0 {
		out = append(out, filter.SetNPerPage{N: f.perPage})
	}
	if f.page > 0 {
		out = append(out, filter.SetCurrentPage{Page: f.page})
	}
	return out, nil
}

func transactionsCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"ls"},
		Short:   "List transactions for the current month or a filtered range",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			t := session.tracker

			actions, err := flags.actions(ctx, t)
			if err != nil {
				return err
			}
			t.Dispatch(actions...)

			page, err := t.Transactions(ctx)
			if err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), page)
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func balancesCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show account, partition, category and kind balances",
		Long: `Show the balances of the selected period. Lines whose sign contradicts
what is expected (a negative account, a negative income) are flagged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			t := session.tracker

			actions, err := flags.actions(ctx, t)
			if err != nil {
				return err
			}
			t.Dispatch(actions...)

			overview, err := t.Balances(ctx)
			if err != nil {
				return err
			}
			printOverview(cmd.OutOrStdout(), overview)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}
