package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and delete accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups, err := session.tracker.GroupedAccounts(cmd.Context())
			if err != nil {
				return err
			}
			printAccounts(cmd.OutOrStdout(), groups)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <account-id>",
		Short: "Delete an account with no transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := session.tracker
			ok, err := t.AccountCanBeDeleted(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("account %s still has transactions", args[0])
			}
			if err := t.DeleteAccount(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func partitionsCmd() *cobra.Command {
	var onlyOwned bool

	cmd := &cobra.Command{
		Use:   "partitions",
		Short: "List, create, rename and delete partitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups, err := session.tracker.GroupedPartitionOptions(cmd.Context(), onlyOwned)
			if err != nil {
				return err
			}
			printPartitionGroups(cmd.OutOrStdout(), groups)
			return nil
		},
	}
	cmd.Flags().BoolVar(&onlyOwned, "owned", false, "only partitions of accounts you own")

	var in core.PartitionInput
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a partition in an account, or together with a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			in.ForNewAccount = in.NewAccountName != ""
			resp, err := session.tracker.CreatePartition(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created partition %s", resp.PartitionID)
			if resp.AccountID != "" && in.ForNewAccount {
				fmt.Fprintf(cmd.OutOrStdout(), " in new account %s", resp.AccountID)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	create.Flags().StringVarP(&in.AccountID, "account", "a", "", "existing account id")
	create.Flags().StringVar(&in.NewAccountName, "new-account", "", "create a new account with this name")
	create.Flags().BoolVar(&in.IsSharedAccount, "shared", false, "share the new account with every user")
	create.Flags().BoolVar(&in.IsPrivate, "private", false, "hide the partition from other owners")
	create.MarkFlagsMutuallyExclusive("account", "new-account")

	cmd.AddCommand(create)
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <partition-id> <name>",
		Short: "Rename a partition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.tracker.UpdatePartition(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed partition %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <partition-id>",
		Short: "Delete a partition with no transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := session.tracker
			ok, err := t.PartitionCanBeDeleted(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("partition %s still has transactions", args[0])
			}
			if err := t.DeletePartition(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted partition %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List, create, rename and delete categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := session.tracker.Categories(cmd.Context())
			if err != nil {
				return err
			}
			printCategories(cmd.OutOrStdout(), cats)
			return nil
		},
	}

	var (
		kind      string
		isPrivate bool
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseCategoryKind(kind)
			if err != nil {
				return err
			}
			resp, err := session.tracker.CreateCategory(cmd.Context(), core.CategoryInput{Name: args[0], Kind: k, IsPrivate: isPrivate})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s\n", resp.CategoryID)
			return nil
		},
	}
	create.Flags().StringVarP(&kind, "kind", "k", "", "Income, Expense or Transfer")
	create.Flags().BoolVar(&isPrivate, "private", false, "only visible to you")
	_ = create.MarkFlagRequired("kind")

	cmd.AddCommand(create)
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <category-id> <name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.tracker.UpdateCategory(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed category %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a category with no transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := session.tracker
			ok, err := t.CategoryCanBeDeleted(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("category %s still has transactions", args[0])
			}
			if err := t.DeleteCategory(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
			return nil
		},
	})
	return cmd
}
