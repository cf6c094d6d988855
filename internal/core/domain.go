package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income   CategoryKind = "Income"
	Expense  CategoryKind = "Expense"
	Transfer CategoryKind = "Transfer"
)

type (
	CategoryKind string

	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		DBName   string `json:"dbname"`
	}

	Account struct {
		ID         string      `json:"id"`
		Name       string      `json:"name"`
		Label      string      `json:"label,omitempty"`
		Owners     []User      `json:"owners"`
		Partitions []Partition `json:"partitions,omitempty"`
		IsOwned    bool        `json:"is_owned,omitempty"`
	}

	Partition struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Label     string `json:"label,omitempty"`
		AccountID string `json:"accountId"`
		IsPrivate bool   `json:"is_private"`
	}

	// PartitionOption is a partition flattened together with its account,
	// as offered by transaction entry selects.
	PartitionOption struct {
		Partition Partition `json:"partition"`
		Account   Account   `json:"account"`
	}

	Category struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Kind      CategoryKind `json:"kind"`
		IsPrivate bool         `json:"is_private"`
	}

	AccountRef struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
	}

	PartitionRef struct {
		ID      string     `json:"id"`
		Name    string     `json:"name,omitempty"`
		Account AccountRef `json:"account"`
	}

	CategoryRef struct {
		ID   string       `json:"id"`
		Name string       `json:"name,omitempty"`
		Kind CategoryKind `json:"kind"`
	}

	// Counterpart is the other side of a transfer. A nil Counterpart on a
	// transfer means the other side lives on a partition the viewer cannot see.
	Counterpart struct {
		ID              string       `json:"id"`
		SourcePartition PartitionRef `json:"source_partition"`
		Category        *CategoryRef `json:"category,omitempty"`
	}

	Transaction struct {
		ID              string          `json:"id"`
		Date            Date            `json:"date"`
		Value           decimal.Decimal `json:"value"`
		Description     string          `json:"description,omitempty"`
		Category        CategoryRef     `json:"category"`
		SourcePartition PartitionRef    `json:"source_partition"`
		Counterpart     *Counterpart    `json:"counterpart,omitempty"`
	}
)

var (
	ErrEmptyName            = errors.New("empty name")
	ErrNameTooLong          = errors.New("name too long (max 100 characters)")
	ErrInvalidKind          = errors.New("invalid category kind")
	ErrInvalidValue         = errors.New("invalid value")
	ErrMissingPartition     = errors.New("missing source partition")
	ErrMissingCategory      = errors.New("missing category")
	ErrMissingAccount       = errors.New("missing account")
	ErrSamePartition        = errors.New("source and destination partition must differ")
	ErrDestinationForbidden = errors.New("destination partition is only allowed for transfers")
)

// CategoryKinds returns the kinds in display order.
func CategoryKinds() []CategoryKind {
	return []CategoryKind{Income, Expense, Transfer}
}

func (k CategoryKind) Valid() bool {
	switch k {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (k CategoryKind) String() string {
	return string(k)
}

// ParseCategoryKind accepts a kind name in any letter case.
func ParseCategoryKind(s string) (CategoryKind, error) {
	for _, k := range CategoryKinds() {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// AccountID returns the owning account of the source partition.
func (t Transaction) AccountID() string {
	return t.SourcePartition.Account.ID
}

// IsTransfer reports whether the transaction belongs to a transfer category.
func (t Transaction) IsTransfer() bool {
	return t.Category.Kind == Transfer
}

// CounterpartCategory returns the category of the other side, falling back
// to the transaction's own category when the counterpart does not carry one.
func (c Counterpart) CounterpartCategory(fallback CategoryRef) CategoryRef {
	if c.Category == nil {
		return fallback
	}
	return *c.Category
}

// TransactionInput is the user-entered form of a new transaction.
type TransactionInput struct {
	SourcePartitionID      string
	DestinationPartitionID string
	CategoryID             string
	CategoryKind           CategoryKind
	Value                  decimal.Decimal
	Description            string
}

func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.SourcePartitionID) == "" {
		return ErrMissingPartition
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return ErrMissingCategory
	}
	if in.Value.IsZero() {
		return ErrInvalidValue
	}
	if len(in.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if in.DestinationPartitionID != "" {
		if in.CategoryKind != "" && in.CategoryKind != Transfer {
			return ErrDestinationForbidden
		}
		if in.DestinationPartitionID == in.SourcePartitionID {
			return ErrSamePartition
		}
	}
	return nil
}

// PartitionInput creates a partition, optionally together with a new account.
type PartitionInput struct {
	Name            string
	IsPrivate       bool
	ForNewAccount   bool
	AccountID       string
	IsSharedAccount bool
	NewAccountName  string
}

func (in PartitionInput) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	if in.ForNewAccount {
		if err := validateName(in.NewAccountName); err != nil {
			return fmt.Errorf("account name: %w", err)
		}
		return nil
	}
	if strings.TrimSpace(in.AccountID) == "" {
		return ErrMissingAccount
	}
	return nil
}

type CategoryInput struct {
	Name      string
	Kind      CategoryKind
	IsPrivate bool
}

func (in CategoryInput) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	if !in.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}
