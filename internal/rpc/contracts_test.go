package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestValidateReportsWireNames(t *testing.T) {
	tests := []struct {
		name       string
		proc       string
		req        any
		wantFields map[string]string // field -> validator tag
	}{
		{
			name:       "valid transaction",
			proc:       ProcCreateTransaction,
			req:        validTransaction(),
			wantFields: nil,
		},
		{
			name: "zero value and same partitions",
			proc: ProcCreateTransaction,
			req: func() CreateTransactionRequest {
				r := validTransaction()
				r.Value = NewAmount(decimal.Zero)
				r.DestinationPartitionID = r.SourcePartitionID
				return r
			}(),
			wantFields: map[string]string{"value": "ne", "destinationPartitionId": "nefield"},
		},
		{
			name:       "missing scope",
			proc:       ProcGetAccounts,
			req:        GetAccountsRequest{},
			wantFields: map[string]string{"userId": "required", "dbname": "required"},
		},
		{
			name: "page bounds",
			proc: ProcFindTransactions,
			req: FindTransactionsRequest{
				OwnerID: "u1", DBName: "db", CurrentPage: 0, NPerPage: 501,
			},
			wantFields: map[string]string{"currentPage": "min", "nPerPage": "max"},
		},
		{
			name: "new account needs a name",
			proc: ProcCreatePartition,
			req: CreatePartitionRequest{
				Scope: Scope{UserID: "u1", DBName: "db"}, Name: "Cash", ForNewAccount: true,
			},
			wantFields: map[string]string{"newAccountName": "required_if"},
		},
		{
			name: "existing account needs an id",
			proc: ProcCreatePartition,
			req: CreatePartitionRequest{
				Scope: Scope{UserID: "u1", DBName: "db"}, Name: "Cash",
			},
			wantFields: map[string]string{"accountId": "required_unless"},
		},
		{
			name: "unknown kind",
			proc: ProcCreateCategory,
			req: CreateCategoryRequest{
				Scope: Scope{UserID: "u1", DBName: "db"}, Name: "Food", Kind: "Savings",
			},
			wantFields: map[string]string{"kind": "oneof"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.proc, tt.req)
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Procedure != tt.proc {
				t.Errorf("Procedure = %q, want %q", ve.Procedure, tt.proc)
			}
			got := make(map[string]string, len(ve.Fields))
			for _, f := range ve.Fields {
				got[f.Field] = f.Type
				if f.Message == "" {
					t.Errorf("field %s has no message", f.Field)
				}
			}
			if len(got) != len(tt.wantFields) {
				t.Errorf("fields = %v, want %v", got, tt.wantFields)
			}
			for field, tag := range tt.wantFields {
				if got[field] != tag {
					t.Errorf("field %s tag = %q, want %q", field, got[field], tag)
				}
			}
			if !IsValidation(fmt.Errorf("wrapped: %w", err)) {
				t.Error("IsValidation should see through wrapping")
			}
		})
	}
}

func validTransaction() CreateTransactionRequest {
	return CreateTransactionRequest{
		SourcePartitionID: "p1",
		CategoryID:        "c1",
		Value:             NewAmount(decimal.RequireFromString("-12.50")),
		UserID:            "u1",
		DBName:            "db",
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(validTransaction())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if got := string(raw["value"]); got != "-12.5" {
		t.Errorf("value encoded as %s, want bare number -12.5", got)
	}
	if _, ok := raw["destinationPartitionId"]; ok {
		t.Error("empty destination should be omitted")
	}

	for _, in := range []string{`42.10`, `"42.10"`} {
		var a Amount
		if err := json.Unmarshal([]byte(in), &a); err != nil {
			t.Fatalf("Unmarshal(%s): %v", in, err)
		}
		if !a.Equal(decimal.RequireFromString("42.1")) {
			t.Errorf("Unmarshal(%s) = %s", in, a)
		}
	}

	var bad Amount
	if err := json.Unmarshal([]byte(`"abc"`), &bad); err == nil {
		t.Error("expected error for non numeric amount")
	}
}

func TestFindTransactionsResponseTuple(t *testing.T) {
	in := `[[{"id":"t1","date":"2024-05-03","value":"-10.00","description":"lunch",
		"category":{"id":"c1","name":"Food","kind":"Expense"},
		"source_partition":{"id":"p1","name":"Main","account":{"id":"a1","name":"Bank"}}}],true]`

	var resp FindTransactionsResponse
	if err := json.Unmarshal([]byte(in), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !resp.HasNextPage {
		t.Error("HasNextPage = false, want true")
	}
	if len(resp.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(resp.Transactions))
	}
	tx := resp.Transactions[0]
	if tx.ID != "t1" || tx.AccountID() != "a1" || !tx.Date.Equal(core.NewDate(2024, 5, 3).Time) {
		t.Errorf("unexpected transaction %+v", tx)
	}

	out, err := json.Marshal(FindTransactionsResponse{})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `[[],false]` {
		t.Errorf("empty page encoded as %s", out)
	}

	for _, bad := range []string{`[[]]`, `{}`, `[[], "yes"]`} {
		if err := json.Unmarshal([]byte(bad), &resp); err == nil {
			t.Errorf("Unmarshal(%s) expected error", bad)
		}
	}
}

func TestErrorIs(t *testing.T) {
	tests := []struct {
		status   int
		notFound bool
		conflict bool
	}{
		{http.StatusNotFound, true, false},
		{http.StatusConflict, false, true},
		{http.StatusInternalServerError, false, false},
	}
	for _, tt := range tests {
		err := fmt.Errorf("delete: %w", &Error{Procedure: ProcDeleteAccount, StatusCode: tt.status})
		if got := errors.Is(err, ErrNotFound); got != tt.notFound {
			t.Errorf("status %d: Is(ErrNotFound) = %v", tt.status, got)
		}
		if got := errors.Is(err, ErrConflict); got != tt.conflict {
			t.Errorf("status %d: Is(ErrConflict) = %v", tt.status, got)
		}
	}
}

func TestUserCategories(t *testing.T) {
	cats := UserCategories{
		Income:  []core.Category{{ID: "i1", Kind: core.Income}},
		Expense: []core.Category{{ID: "e1", Kind: core.Expense}, {ID: "e2", Kind: core.Expense}},
	}
	if got := len(cats.All()); got != 3 {
		t.Errorf("All() len = %d, want 3", got)
	}
	if c, ok := cats.Find("e2"); !ok || c.Kind != core.Expense {
		t.Errorf("Find(e2) = %+v, %v", c, ok)
	}
	if _, ok := cats.Find("missing"); ok {
		t.Error("Find(missing) should fail")
	}
	ids := cats.IDsOfKind(core.Expense)
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e2" {
		t.Errorf("IDsOfKind(Expense) = %v", ids)
	}
	if len(cats.IDsOfKind(core.Transfer)) != 0 {
		t.Error("no transfer categories expected")
	}
}
