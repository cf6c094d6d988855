package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/invalidation"
	"fintrack/internal/log"
	"fintrack/internal/rpc"
)

// CreateTransaction validates the input, creates the transaction and
// invalidates the lists and balances it touches. When the input does not
// name its category kind, the kind is looked up so a destination on a
// non-transfer category is rejected before dispatch.
func (s *TrackerService) CreateTransaction(ctx context.Context, in core.TransactionInput) (rpc.CreateTransactionResponse, error) {
	if in.CategoryKind == "" && in.CategoryID != "" {
		if cats, err := s.Categories(ctx); err == nil {
			if c, ok := cats.Find(in.CategoryID); ok {
				in.CategoryKind = c.Kind
			}
		}
	}
	if err := in.Validate(); err != nil {
		return rpc.CreateTransactionResponse{}, err
	}

	req := rpc.CreateTransactionRequest{
		SourcePartitionID:      in.SourcePartitionID,
		DestinationPartitionID: in.DestinationPartitionID,
		CategoryID:             in.CategoryID,
		Value:                  rpc.NewAmount(in.Value),
		Description:            strings.TrimSpace(in.Description),
		UserID:                 s.user.ID,
		DBName:                 s.user.DBName,
	}
	resp, err := s.procs.CreateTransaction(ctx, req)
	if err != nil {
		return rpc.CreateTransactionResponse{}, fmt.Errorf("create transaction: %w", err)
	}

	var id string
	if resp.Transaction != nil {
		id = resp.Transaction.ID
	}
	s.commit(ctx, log.OpCreate, id, invalidation.PlanCreateTransaction(resp))
	return resp, nil
}

// DeleteTransaction deletes tx and its counterpart. tx must be the full
// record as listed, since the invalidation plan depends on its partition,
// account and category.
func (s *TrackerService) DeleteTransaction(ctx context.Context, tx core.Transaction) error {
	release, err := s.acquire("transaction:" + tx.ID)
	if err != nil {
		return err
	}
	defer release()

	req := rpc.TransactionRequest{Scope: s.scope(), TransactionID: tx.ID}
	if err := s.procs.DeleteTransaction(ctx, req); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.commit(ctx, log.OpDelete, tx.ID, invalidation.PlanDeleteTransaction(tx))
	return nil
}

// DeleteTransactionByID looks the transaction up and deletes it.
func (s *TrackerService) DeleteTransactionByID(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := s.LookupTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, s.DeleteTransaction(ctx, tx)
}

func (s *TrackerService) CreatePartition(ctx context.Context, in core.PartitionInput) (rpc.CreatePartitionResponse, error) {
	if err := in.Validate(); err != nil {
		return rpc.CreatePartitionResponse{}, err
	}
	req := rpc.CreatePartitionRequest{
		Scope:           s.scope(),
		Name:            strings.TrimSpace(in.Name),
		IsPrivate:       in.IsPrivate,
		ForNewAccount:   in.ForNewAccount,
		IsSharedAccount: in.IsSharedAccount,
	}
	if in.ForNewAccount {
		req.NewAccountName = strings.TrimSpace(in.NewAccountName)
	} else {
		req.AccountID = in.AccountID
	}

	resp, err := s.procs.CreatePartition(ctx, req)
	if err != nil {
		return rpc.CreatePartitionResponse{}, fmt.Errorf("create partition: %w", err)
	}
	s.commit(ctx, log.OpCreate, resp.PartitionID, invalidation.PlanCreatePartition(s.user.ID, req, resp))
	return resp, nil
}

func (s *TrackerService) UpdatePartition(ctx context.Context, partitionID, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	accountID := s.accountOfPartition(ctx, partitionID)
	req := rpc.UpdatePartitionRequest{Scope: s.scope(), PartitionID: partitionID, Name: strings.TrimSpace(name)}
	if err := s.procs.UpdatePartition(ctx, req); err != nil {
		return fmt.Errorf("update partition: %w", err)
	}
	s.commit(ctx, log.OpUpdate, partitionID, invalidation.PlanUpdatePartition(s.user.ID, accountID, partitionID))
	return nil
}

func (s *TrackerService) DeletePartition(ctx context.Context, partitionID string) error {
	release, err := s.acquire("partition:" + partitionID)
	if err != nil {
		return err
	}
	defer release()

	accountID := s.accountOfPartition(ctx, partitionID)
	req := rpc.PartitionRequest{Scope: s.scope(), PartitionID: partitionID}
	if err := s.procs.DeletePartition(ctx, req); err != nil {
		return fmt.Errorf("delete partition: %w", err)
	}
	s.commit(ctx, log.OpDelete, partitionID, invalidation.PlanDeletePartition(s.user.ID, accountID, partitionID))
	return nil
}

// accountOfPartition resolves the owning account from the partition
// options. An unknown partition yields "", which widens the plan to all of
// the user's partition lists.
func (s *TrackerService) accountOfPartition(ctx context.Context, partitionID string) string {
	options, err := s.PartitionOptions(ctx)
	if err != nil {
		s.logger.DebugContext(ctx, "Partition options unavailable", log.FieldPartitionID, partitionID, log.FieldError, err)
		return ""
	}
	for _, o := range options {
		if o.Partition.ID == partitionID {
			return o.Partition.AccountID
		}
	}
	return ""
}

func (s *TrackerService) CreateCategory(ctx context.Context, in core.CategoryInput) (rpc.CreateCategoryResponse, error) {
	if err := in.Validate(); err != nil {
		return rpc.CreateCategoryResponse{}, err
	}
	req := rpc.CreateCategoryRequest{Scope: s.scope(), Name: strings.TrimSpace(in.Name), Kind: in.Kind, IsPrivate: in.IsPrivate}
	resp, err := s.procs.CreateCategory(ctx, req)
	if err != nil {
		return rpc.CreateCategoryResponse{}, fmt.Errorf("create category: %w", err)
	}
	s.commit(ctx, log.OpCreate, resp.CategoryID, invalidation.PlanCreateCategory(s.user.ID))
	return resp, nil
}

func (s *TrackerService) UpdateCategory(ctx context.Context, categoryID, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	req := rpc.UpdateCategoryRequest{Scope: s.scope(), CategoryID: categoryID, Name: strings.TrimSpace(name)}
	if err := s.procs.UpdateCategory(ctx, req); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	s.commit(ctx, log.OpUpdate, categoryID, invalidation.PlanUpdateCategory(s.user.ID, categoryID))
	return nil
}

func (s *TrackerService) DeleteCategory(ctx context.Context, categoryID string) error {
	release, err := s.acquire("category:" + categoryID)
	if err != nil {
		return err
	}
	defer release()

	req := rpc.CategoryRequest{Scope: s.scope(), CategoryID: categoryID}
	if err := s.procs.DeleteCategory(ctx, req); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.commit(ctx, log.OpDelete, categoryID, invalidation.PlanDeleteCategory(s.user.ID, categoryID))
	return nil
}

func (s *TrackerService) DeleteAccount(ctx context.Context, accountID string) error {
	release, err := s.acquire("account:" + accountID)
	if err != nil {
		return err
	}
	defer release()

	req := rpc.AccountRequest{Scope: s.scope(), AccountID: accountID}
	if err := s.procs.DeleteAccount(ctx, req); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.commit(ctx, log.OpDelete, accountID, invalidation.PlanDeleteAccount(s.user.ID, accountID))
	return nil
}

func checkName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return core.ErrEmptyName
	case len(name) > 100:
		return core.ErrNameTooLong
	}
	return nil
}
