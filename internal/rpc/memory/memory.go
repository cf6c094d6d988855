// Package memory is an in-process rpc.Procedures backend for local runs
// and tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/rpc"
)

// Seed is the initial content of a Store, as read from a JSON file.
type Seed struct {
	Users        []core.User       `json:"users"`
	Accounts     []SeedAccount     `json:"accounts"`
	Partitions   []core.Partition  `json:"partitions"`
	Categories   []core.Category   `json:"categories"`
	Transactions []SeedTransaction `json:"transactions"`
}

// SeedAccount lists owners by user id.
type SeedAccount struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	OwnerIDs []string `json:"ownerIds"`
}

// SeedTransaction references its partition and category by id. Transfers
// name the id of the other side in CounterpartID.
type SeedTransaction struct {
	ID            string          `json:"id"`
	Date          core.Date       `json:"date"`
	Value         decimal.Decimal `json:"value"`
	Description   string          `json:"description,omitempty"`
	CategoryID    string          `json:"categoryId"`
	PartitionID   string          `json:"partitionId"`
	CounterpartID string          `json:"counterpartId,omitempty"`
}

type account struct {
	id     string
	name   string
	owners []string
}

type Store struct {
	mu         sync.Mutex
	users      []core.User
	accounts   map[string]*account
	partitions map[string]*core.Partition
	categories map[string]*core.Category
	txs        map[string]*SeedTransaction
	nextID     int
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock that dates created transactions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

var _ rpc.Procedures = (*Store)(nil)

// New builds a store from seed. Seed slices are copied.
func New(seed Seed, opts ...Option) *Store {
	s := &Store{
		users:      append([]core.User(nil), seed.Users...),
		accounts:   make(map[string]*account),
		partitions: make(map[string]*core.Partition),
		categories: make(map[string]*core.Category),
		txs:        make(map[string]*SeedTransaction),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, a := range seed.Accounts {
		s.accounts[a.ID] = &account{id: a.ID, name: a.Name, owners: append([]string(nil), a.OwnerIDs...)}
	}
	for _, p := range seed.Partitions {
		p := p
		s.partitions[p.ID] = &p
	}
	for _, c := range seed.Categories {
		c := c
		s.categories[c.ID] = &c
	}
	for _, t := range seed.Transactions {
		t := t
		s.txs[t.ID] = &t
	}
	return s
}

// NewFromFile loads a JSON seed from path. A missing file yields the demo
// seed.
func NewFromFile(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return New(DemoSeed(), opts...), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(DemoSeed(), opts...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return New(seed, opts...), nil
}

// DemoSeed is a small two-user ledger with a shared account.
func DemoSeed() Seed {
	return Seed{
		Users: []core.User{
			{ID: "u1", Username: "alice", DBName: "demo"},
			{ID: "u2", Username: "bob", DBName: "demo"},
		},
		Accounts: []SeedAccount{
			{ID: "a1", Name: "Alice Bank", OwnerIDs: []string{"u1"}},
			{ID: "a2", Name: "Household", OwnerIDs: []string{"u1", "u2"}},
			{ID: "a3", Name: "Bob Bank", OwnerIDs: []string{"u2"}},
		},
		Partitions: []core.Partition{
			{ID: "p1", Name: "Main", AccountID: "a1"},
			{ID: "p2", Name: "Savings", AccountID: "a1", IsPrivate: true},
			{ID: "p3", Name: "Groceries", AccountID: "a2"},
			{ID: "p4", Name: "Main", AccountID: "a3"},
		},
		Categories: []core.Category{
			{ID: "c1", Name: "Salary", Kind: core.Income},
			{ID: "c2", Name: "Food", Kind: core.Expense},
			{ID: "c3", Name: "Transfer", Kind: core.Transfer},
		},
		Transactions: []SeedTransaction{
			{ID: "t1", Date: core.NewDate(2024, 5, 1), Value: decimal.NewFromInt(2000), CategoryID: "c1", PartitionID: "p1", Description: "May salary"},
			{ID: "t2", Date: core.NewDate(2024, 5, 3), Value: decimal.NewFromInt(-300), CategoryID: "c3", PartitionID: "p1", CounterpartID: "t3"},
			{ID: "t3", Date: core.NewDate(2024, 5, 3), Value: decimal.NewFromInt(300), CategoryID: "c3", PartitionID: "p3", CounterpartID: "t2"},
			{ID: "t4", Date: core.NewDate(2024, 5, 4), Value: decimal.RequireFromString("-45.20"), CategoryID: "c2", PartitionID: "p3", Description: "market"},
		},
	}
}

func notFound(proc, what, id string) error {
	return &rpc.Error{Procedure: proc, StatusCode: http.StatusNotFound, Message: what + " " + id + " not found"}
}

func conflict(proc, msg string) error {
	return &rpc.Error{Procedure: proc, StatusCode: http.StatusConflict, Message: msg}
}

func (s *Store) newID(prefix string) string {
	s.nextID++
	for {
		id := prefix + "-" + strconv.Itoa(s.nextID)
		if !s.idTaken(id) {
			return id
		}
		s.nextID++
	}
}

func (s *Store) idTaken(id string) bool {
	if _, ok := s.accounts[id]; ok {
		return true
	}
	if _, ok := s.partitions[id]; ok {
		return true
	}
	if _, ok := s.categories[id]; ok {
		return true
	}
	_, ok := s.txs[id]
	return ok
}

func (a *account) ownedBy(userID string) bool {
	for _, o := range a.owners {
		if o == userID {
			return true
		}
	}
	return false
}

// visible reports whether userID may see partition p. Private partitions
// are visible to the owners of their account only.
func (s *Store) visible(p *core.Partition, userID string) bool {
	if !p.IsPrivate {
		return true
	}
	a, ok := s.accounts[p.AccountID]
	return ok && a.ownedBy(userID)
}

func (s *Store) accountView(a *account, userID string) core.Account {
	out := core.Account{ID: a.id, Name: a.name, IsOwned: a.ownedBy(userID), Owners: []core.User{}}
	for _, ownerID := range a.owners {
		for _, u := range s.users {
			if u.ID == ownerID {
				out.Owners = append(out.Owners, u)
			}
		}
	}
	for _, p := range s.sortedPartitions() {
		if p.AccountID == a.id && s.visible(p, userID) {
			out.Partitions = append(out.Partitions, *p)
		}
	}
	return out
}

func (s *Store) sortedPartitions() []*core.Partition {
	out := make([]*core.Partition, 0, len(s.partitions))
	for _, p := range s.partitions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) sortedAccounts() []*account {
	out := make([]*account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (s *Store) transaction(row *SeedTransaction, userID string) core.Transaction {
	tx := core.Transaction{
		ID:              row.ID,
		Date:            row.Date,
		Value:           row.Value,
		Description:     row.Description,
		Category:        s.categoryRef(row.CategoryID),
		SourcePartition: s.partitionRef(row.PartitionID),
	}
	if other, ok := s.txs[row.CounterpartID]; ok {
		if p, ok := s.partitions[other.PartitionID]; ok && s.visible(p, userID) {
			cp := &core.Counterpart{ID: other.ID, SourcePartition: s.partitionRef(other.PartitionID)}
			if other.CategoryID != row.CategoryID {
				ref := s.categoryRef(other.CategoryID)
				cp.Category = &ref
			}
			tx.Counterpart = cp
		}
	}
	return tx
}

func (s *Store) categoryRef(id string) core.CategoryRef {
	ref := core.CategoryRef{ID: id}
	if c, ok := s.categories[id]; ok {
		ref.Name, ref.Kind = c.Name, c.Kind
	}
	return ref
}

func (s *Store) partitionRef(id string) core.PartitionRef {
	ref := core.PartitionRef{ID: id}
	if p, ok := s.partitions[id]; ok {
		ref.Name = p.Name
		ref.Account.ID = p.AccountID
		if a, ok := s.accounts[p.AccountID]; ok {
			ref.Account.Name = a.name
		}
	}
	return ref
}

func (s *Store) FindUser(_ context.Context, req rpc.FindUserRequest) (*core.User, error) {
	if err := rpc.Validate(rpc.ProcFindUser, req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == req.Username && (u.DBName == "" || u.DBName == req.DBName) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) GetAccounts(_ context.Context, req rpc.GetAccountsRequest) ([]core.Account, error) {
	if err := rpc.Validate(rpc.ProcGetAccounts, req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Account{}
	for _, a := range s.sortedAccounts() {
		if req.Owned && !a.ownedBy(req.UserID) {
			continue
		}
		out = append(out, s.accountView(a, req.UserID))
	}
	return out, nil
}

func (s *Store) GetPartitions(_ context.Context, req rpc.GetPartitionsRequest) ([]core.Partition, error) {
	if err := rpc.Validate(rpc.ProcGetPartitions, req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[req.AccountID]; !ok {
		return nil, notFound(rpc.ProcGetPartitions, "account", req.AccountID)
	}
	out := []core.Partition{}
	for _, p := range s.sortedPartitions() {
		if p.AccountID == req.AccountID && s.visible(p, req.UserID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Store) GetPartitionOptions(_ context.Context, req rpc.ScopeRequest) ([]core.PartitionOption, error) {
	if err := rpc.Validate(rpc.ProcGetPartitionOptions, req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.PartitionOption{}
	for _, p := range s.sortedPartitions() {
		a, ok := s.accounts[p.AccountID]
		if !ok || !s.visible(p, req.UserID) {
			continue
		}
		view := s.accountView(a, req.UserID)
		view.Partitions = nil
		out = append(out, core.PartitionOption{Partition: *p, Account: view})
	}
	return out, nil
}

func (s *Store) GetUserCategories(_ context.Context, req rpc.ScopeRequest) (rpc.UserCategories, error) {
	if err := rpc.Validate(rpc.ProcGetUserCategories, req); err != nil {
		return rpc.UserCategories{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.categories))
	for id := range s.categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := rpc.UserCategories{Income: []core.Category{}, Expense: []core.Category{}, Transfer: []core.Category{}}
	for _, id := range ids {
		c := *s.categories[id]
		switch c.Kind {
		case core.Income:
			out.Income = append(out.Income, c)
		case core.Expense:
			out.Expense = append(out.Expense, c)
		case core.Transfer:
			out.Transfer = append(out.Transfer, c)
		}
	}
	return out, nil
}

// FindTransactions returns visible transactions newest first. Empty id
// filters match everything.
func (s *Store) FindTransactions(_ context.Context, req rpc.FindTransactionsRequest) (rpc.FindTransactionsResponse, error) {
	if err := rpc.Validate(rpc.ProcFindTransactions, req); err != nil {
		return rpc.FindTransactionsResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := toSet(req.PartitionIDs)
	cats := toSet(req.CategoryIDs)
	rng := core.DateRange{Start: req.TSSDate, End: req.TSEDate}

	var rows []*SeedTransaction
	for _, row := range s.txs {
		p, ok := s.partitions[row.PartitionID]
		if !ok || !s.visible(p, req.OwnerID) {
			continue
		}
		if len(parts) > 0 && !parts[row.PartitionID] {
			continue
		}
		if len(cats) > 0 && !cats[row.CategoryID] {
			continue
		}
		if !rng.Contains(row.Date) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date.Time) {
			return rows[i].Date.After(rows[j].Date.Time)
		}
		return rows[i].ID > rows[j].ID
	})

	start := (req.CurrentPage - 1) * req.NPerPage
	if start > len(rows) {
		start = len(rows)
	}
	end := start + req.NPerPage
	if end > len(rows) {
		end = len(rows)
	}

	resp := rpc.FindTransactionsResponse{
		Transactions: make([]core.Transaction, 0, end-start),
		HasNextPage:  end < len(rows),
	}
	for _, row := range rows[start:end] {
		resp.Transactions = append(resp.Transactions, s.transaction(row, req.OwnerID))
	}
	return resp, nil
}

// CreateTransaction stores the row and, when a destination is given, the
// opposite row on the destination partition.
func (s *Store) CreateTransaction(_ context.Context, req rpc.CreateTransactionRequest) (rpc.CreateTransactionResponse, error) {
	const proc = rpc.ProcCreateTransaction
	if err := rpc.Validate(proc, req); err != nil {
		return rpc.CreateTransactionResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.partitions[req.SourcePartitionID]; !ok {
		return rpc.CreateTransactionResponse{}, notFound(proc, "partition", req.SourcePartitionID)
	}
	cat, ok := s.categories[req.CategoryID]
	if !ok {
		return rpc.CreateTransactionResponse{}, notFound(proc, "category", req.CategoryID)
	}
	if req.DestinationPartitionID != "" {
		if cat.Kind != core.Transfer {
			return rpc.CreateTransactionResponse{}, &rpc.Error{Procedure: proc, StatusCode: http.StatusBadRequest, Message: core.ErrDestinationForbidden.Error()}
		}
		if _, ok := s.partitions[req.DestinationPartitionID]; !ok {
			return rpc.CreateTransactionResponse{}, notFound(proc, "partition", req.DestinationPartitionID)
		}
	}

	row := &SeedTransaction{
		ID:          s.newID("t"),
		Date:        core.DateOf(s.now()),
		Value:       req.Value.Decimal,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		PartitionID: req.SourcePartitionID,
	}
	s.txs[row.ID] = row

	if req.DestinationPartitionID != "" {
		other := &SeedTransaction{
			ID:            s.newID("t"),
			Date:          row.Date,
			Value:         row.Value.Neg(),
			Description:   row.Description,
			CategoryID:    row.CategoryID,
			PartitionID:   req.DestinationPartitionID,
			CounterpartID: row.ID,
		}
		row.CounterpartID = other.ID
		s.txs[other.ID] = other
	}

	tx := s.transaction(row, req.UserID)
	resp := rpc.CreateTransactionResponse{Transaction: &tx}
	if tx.Counterpart != nil {
		other := s.transaction(s.txs[row.CounterpartID], req.UserID)
		resp.Counterpart = &other
	}
	return resp, nil
}

// DeleteTransaction removes the row together with its counterpart.
func (s *Store) DeleteTransaction(_ context.Context, req rpc.TransactionRequest) error {
	if err := rpc.Validate(rpc.ProcDeleteTransaction, req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.txs[req.TransactionID]
	if !ok {
		return notFound(rpc.ProcDeleteTransaction, "transaction", req.TransactionID)
	}
	delete(s.txs, row.ID)
	if row.CounterpartID != "" {
		delete(s.txs, row.CounterpartID)
	}
	return nil
}

func (s *Store) CreatePartition(_ context.Context, req rpc.CreatePartitionRequest) (rpc.CreatePartitionResponse, error) {
	const proc = rpc.ProcCreatePartition
	if err := rpc.Validate(proc, req); err != nil {
		return rpc.CreatePartitionResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	accountID := req.AccountID
	if req.ForNewAccount {
		a := &account{id: s.newID("a"), name: req.NewAccountName, owners: []string{req.UserID}}
		if req.IsSharedAccount {
			a.owners = a.owners[:0]
			for _, u := range s.users {
				if u.DBName == "" || u.DBName == req.DBName {
					a.owners = append(a.owners, u.ID)
				}
			}
		}
		s.accounts[a.id] = a
		accountID = a.id
	} else if _, ok := s.accounts[accountID]; !ok {
		return rpc.CreatePartitionResponse{}, notFound(proc, "account", accountID)
	}

	p := &core.Partition{ID: s.newID("p"), Name: req.Name, AccountID: accountID, IsPrivate: req.IsPrivate}
	s.partitions[p.ID] = p
	return rpc.CreatePartitionResponse{PartitionID: p.ID, AccountID: accountID}, nil
}

func (s *Store) UpdatePartition(_ context.Context, req rpc.UpdatePartitionRequest) error {
	if err := rpc.Validate(rpc.ProcUpdatePartition, req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partitions[req.PartitionID]
	if !ok {
		return notFound(rpc.ProcUpdatePartition, "partition", req.PartitionID)
	}
	p.Name = req.Name
	return nil
}

func (s *Store) DeletePartition(_ context.Context, req rpc.PartitionRequest) error {
	const proc = rpc.ProcDeletePartition
	if err := rpc.Validate(proc, req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partitions[req.PartitionID]; !ok {
		return notFound(proc, "partition", req.PartitionID)
	}
	if s.partitionUsed(req.PartitionID) {
		return conflict(proc, "partition has transactions")
	}
	delete(s.partitions, req.PartitionID)
	return nil
}

func (s *Store) CreateCategory(_ context.Context, req rpc.CreateCategoryRequest) (rpc.CreateCategoryResponse, error) {
	if err := rpc.Validate(rpc.ProcCreateCategory, req); err != nil {
		return rpc.CreateCategoryResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &core.Category{ID: s.newID("c"), Name: req.Name, Kind: req.Kind, IsPrivate: req.IsPrivate}
	s.categories[c.ID] = c
	return rpc.CreateCategoryResponse{CategoryID: c.ID}, nil
}

func (s *Store) UpdateCategory(_ context.Context, req rpc.UpdateCategoryRequest) error {
	if err := rpc.Validate(rpc.ProcUpdateCategory, req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[req.CategoryID]
	if !ok {
		return notFound(rpc.ProcUpdateCategory, "category", req.CategoryID)
	}
	c.Name = req.Name
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, req rpc.CategoryRequest) error {
	const proc = rpc.ProcDeleteCategory
	if err := rpc.Validate(proc, req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[req.CategoryID]; !ok {
		return notFound(proc, "category", req.CategoryID)
	}
	if s.categoryUsed(req.CategoryID) {
		return conflict(proc, "category has transactions")
	}
	delete(s.categories, req.CategoryID)
	return nil
}

// DeleteAccount removes an account with all its partitions. Accounts with
// transactions are kept.
func (s *Store) DeleteAccount(_ context.Context, req rpc.AccountRequest) error {
	const proc = rpc.ProcDeleteAccount
	if err := rpc.Validate(proc, req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[req.AccountID]; !ok {
		return notFound(proc, "account", req.AccountID)
	}
	if s.accountUsed(req.AccountID) {
		return conflict(proc, "account has transactions")
	}
	for id, p := range s.partitions {
		if p.AccountID == req.AccountID {
			delete(s.partitions, id)
		}
	}
	delete(s.accounts, req.AccountID)
	return nil
}

func (s *Store) partitionUsed(id string) bool {
	for _, row := range s.txs {
		if row.PartitionID == id {
			return true
		}
	}
	return false
}

func (s *Store) categoryUsed(id string) bool {
	for _, row := range s.txs {
		if row.CategoryID == id {
			return true
		}
	}
	return false
}

func (s *Store) accountUsed(id string) bool {
	for _, row := range s.txs {
		if p, ok := s.partitions[row.PartitionID]; ok && p.AccountID == id {
			return true
		}
	}
	return false
}

// sum adds the values of visible rows in the period accepted by match.
func (s *Store) sum(userID string, period rpc.Period, match func(row *SeedTransaction, p *core.Partition) bool) decimal.Decimal {
	rng := period.Range()
	total := decimal.Zero
	for _, row := range s.txs {
		p, ok := s.partitions[row.PartitionID]
		if !ok || !s.visible(p, userID) || !rng.Contains(row.Date) {
			continue
		}
		if match(row, p) {
			total = total.Add(row.Value)
		}
	}
	return total
}

func (s *Store) GetAccountBalance(_ context.Context, req rpc.AccountBalanceRequest) (decimal.Decimal, error) {
	if err := rpc.Validate(rpc.ProcGetAccountBalance, req); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum(req.UserID, req.Period, func(_ *SeedTransaction, p *core.Partition) bool {
		return p.AccountID == req.AccountID
	}), nil
}

func (s *Store) GetPartitionBalance(_ context.Context, req rpc.PartitionBalanceRequest) (decimal.Decimal, error) {
	if err := rpc.Validate(rpc.ProcGetPartitionBalance, req); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum(req.UserID, req.Period, func(row *SeedTransaction, _ *core.Partition) bool {
		return row.PartitionID == req.PartitionID
	}), nil
}

func (s *Store) GetCategoryBalance(_ context.Context, req rpc.CategoryBalanceRequest) (decimal.Decimal, error) {
	if err := rpc.Validate(rpc.ProcGetCategoryBalance, req); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum(req.UserID, req.Period, func(row *SeedTransaction, _ *core.Partition) bool {
		return row.CategoryID == req.CategoryID
	}), nil
}

func (s *Store) GetCategoryKindBalance(_ context.Context, req rpc.CategoryKindBalanceRequest) (decimal.Decimal, error) {
	if err := rpc.Validate(rpc.ProcGetCategoryKindBalance, req); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum(req.UserID, req.Period, func(row *SeedTransaction, _ *core.Partition) bool {
		c, ok := s.categories[row.CategoryID]
		return ok && c.Kind == req.Kind
	}), nil
}

func (s *Store) AccountCanBeDeleted(_ context.Context, req rpc.AccountRequest) (bool, error) {
	if err := rpc.Validate(rpc.ProcAccountCanBeDeleted, req); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.accountUsed(req.AccountID), nil
}

func (s *Store) PartitionCanBeDeleted(_ context.Context, req rpc.PartitionRequest) (bool, error) {
	if err := rpc.Validate(rpc.ProcPartitionCanBeDeleted, req); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.partitionUsed(req.PartitionID), nil
}

func (s *Store) CategoryCanBeDeleted(_ context.Context, req rpc.CategoryRequest) (bool, error) {
	if err := rpc.Validate(rpc.ProcCategoryCanBeDeleted, req); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.categoryUsed(req.CategoryID), nil
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
