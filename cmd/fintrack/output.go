package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fintrack/internal/core"
	"fintrack/internal/rpc"
	"fintrack/internal/services"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatRange(r core.DateRange) string {
	bound := func(d *core.Date) string {
		if d == nil {
			return "…"
		}
		return d.String()
	}
	return bound(r.Start) + " to " + bound(r.End)
}

func printTransactions(w io.Writer, page services.TransactionsPage) {
	if len(page.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tACCOUNT\tPARTITION\tCATEGORY\tVALUE\tDESCRIPTION")
	for _, tx := range page.Transactions {
		desc := tx.Description
		if tx.IsTransfer() {
			desc = transferLabel(tx)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID,
			tx.Date,
			tx.SourcePartition.Account.Name,
			tx.SourcePartition.Name,
			tx.Category.Name,
			core.FormatValue(tx.Value),
			desc)
	}
	tw.Flush()

	more := ""
	if page.HasNextPage {
		more = fmt.Sprintf(", next: --page %d", page.Request.CurrentPage+1)
	}
	fmt.Fprintf(w, "page %d (%d per page%s)\n", page.Request.CurrentPage, page.Request.NPerPage, more)
}

// transferLabel names the other side of a transfer. The counterpart is nil
// when it sits on a partition the viewer cannot see.
func transferLabel(tx core.Transaction) string {
	if tx.Counterpart == nil {
		return "transfer ↔ (private partition)"
	}
	p := tx.Counterpart.SourcePartition
	arrow := "→"
	if tx.Value.IsPositive() {
		arrow = "←"
	}
	return fmt.Sprintf("transfer %s %s / %s", arrow, p.Account.Name, p.Name)
}

func printOverview(w io.Writer, o core.Overview) {
	fmt.Fprintf(w, "Balances %s\n\n", formatRange(o.Range))

	sections := []struct {
		title string
		lines []core.BalanceLine
	}{
		{"ACCOUNTS", o.Accounts},
		{"PARTITIONS", o.Partitions},
		{"CATEGORIES", o.Categories},
		{"KINDS", o.Kinds},
	}
	tw := newTable(w)
	for _, s := range sections {
		fmt.Fprintf(tw, "%s\tGROUP\tBALANCE\t\n", s.title)
		for _, l := range s.lines {
			balance, mark := core.FormatValue(l.Balance), ""
			switch {
			case l.Err != nil:
				balance, mark = "-", "! unavailable"
			case l.Anomalous():
				mark = "! expected " + l.Expected.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Label, l.Group, balance, mark)
		}
		fmt.Fprintln(tw, "\t\t\t")
	}
	tw.Flush()

	if n := len(o.Anomalies()); n > 0 {
		fmt.Fprintf(w, "%d balance(s) with an unexpected sign\n", n)
	}
	for _, l := range o.Failed() {
		fmt.Fprintf(w, "error: %v\n", l.Err)
	}
}

func printAccounts(w io.Writer, groups map[core.OwnershipGroup][]core.Account) {
	tw := newTable(w)
	fmt.Fprintln(tw, "GROUP\tID\tACCOUNT\tOWNERS\tPARTITIONS")
	for _, g := range core.OwnershipGroups() {
		for _, a := range groups[g] {
			owners := make([]string, len(a.Owners))
			for i, u := range a.Owners {
				owners[i] = u.Username
			}
			parts := make([]string, len(a.Partitions))
			for i, p := range a.Partitions {
				parts[i] = p.Name
				if p.IsPrivate {
					parts[i] += " (private)"
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g, a.ID, a.Name, strings.Join(owners, ","), strings.Join(parts, ", "))
		}
	}
	tw.Flush()
}

func printPartitionGroups(w io.Writer, groups []core.PartitionGroup) {
	tw := newTable(w)
	fmt.Fprintln(tw, "GROUP\tACCOUNT\tID\tPARTITION")
	for _, g := range groups {
		for _, o := range g.Options {
			name := o.Partition.Name
			if o.Partition.IsPrivate {
				name += " (private)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Group, g.Account.Name, o.Partition.ID, name)
		}
	}
	tw.Flush()
}

func printCategories(w io.Writer, cats rpc.UserCategories) {
	tw := newTable(w)
	fmt.Fprintln(tw, "KIND\tID\tCATEGORY")
	for _, kind := range core.CategoryKinds() {
		for _, c := range cats.ByKind(kind) {
			name := c.Name
			if c.IsPrivate {
				name += " (private)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", kind, c.ID, name)
		}
	}
	tw.Flush()
}
