package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and delete transactions",
	}
	cmd.AddCommand(txCreateCmd())
	cmd.AddCommand(txDeleteCmd())
	return cmd
}

func txCreateCmd() *cobra.Command {
	var (
		in    core.TransactionInput
		value string
	)

	cmd := &cobra.Command{
		Use:   "create [description...]",
		Short: "Record a transaction, or a transfer when --to is set",
		Example: `  fintrack tx create market --value=-45.20 -p p3 -c c2
  fintrack tx create --value=-300 -p p1 --to p3 -c c3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := core.ParseValue(value)
			if err != nil {
				return err
			}
			in.Value = v
			in.Description = strings.Join(args, " ")
			in.SourcePartitionID = strings.TrimSpace(in.SourcePartitionID)
			in.DestinationPartitionID = strings.TrimSpace(in.DestinationPartitionID)

			resp, err := session.tracker.CreateTransaction(cmd.Context(), in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if resp.Transaction != nil {
				fmt.Fprintf(out, "Created transaction %s (%s)\n", resp.Transaction.ID, core.FormatValue(resp.Transaction.Value))
			}
			if resp.Counterpart != nil {
				fmt.Fprintf(out, "Created counterpart %s (%s)\n", resp.Counterpart.ID, core.FormatValue(resp.Counterpart.Value))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "signed amount, negative for money leaving the partition")
	cmd.Flags().StringVarP(&in.SourcePartitionID, "partition", "p", "", "source partition id")
	cmd.Flags().StringVar(&in.DestinationPartitionID, "to", "", "destination partition id (transfers only)")
	cmd.Flags().StringVarP(&in.CategoryID, "category", "c", "", "category id")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("partition")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func txDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction and its transfer counterpart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := session.tracker.DeleteTransactionByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %s", tx.ID)
			if tx.Counterpart != nil {
				fmt.Fprintf(cmd.OutOrStdout(), " and counterpart %s", tx.Counterpart.ID)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
