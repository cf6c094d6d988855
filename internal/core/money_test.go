package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half away from zero
		{"-1.005", "-1.01", true},
		{" -2.50 ", "-2.50", true},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseValue(tc.in)
		if tc.ok {
			if err != nil || got.StringFixed(2) != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got.StringFixed(2), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseBalance(t *testing.T) {
	d, err := ParseBalance("")
	if err != nil || !d.IsZero() {
		t.Fatalf("expected zero for empty balance, got %s (err=%v)", d, err)
	}
	d, err = ParseBalance("-42.10")
	if err != nil || !d.Equal(decimal.RequireFromString("-42.1")) {
		t.Fatalf("expected -42.10, got %s (err=%v)", d, err)
	}
	if _, err := ParseBalance("n/a"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExpectedSign(t *testing.T) {
	pos := decimal.RequireFromString("10")
	neg := decimal.RequireFromString("-10")
	zero := decimal.Zero

	cases := []struct {
		kind    CategoryKind
		balance decimal.Decimal
		want    bool
	}{
		{Income, pos, true},
		{Income, zero, true},
		{Income, neg, false},
		{Expense, neg, true},
		{Expense, zero, true},
		{Expense, pos, false},
		{Transfer, zero, true},
		{Transfer, pos, false},
		{Transfer, neg, false},
	}
	for _, tc := range cases {
		if got := IsAsExpected(tc.kind, tc.balance); got != tc.want {
			t.Fatalf("%s with %s: expected %v, got %v", tc.kind, tc.balance, tc.want, got)
		}
	}
}

func TestOverviewAnomalies(t *testing.T) {
	o := Overview{
		Accounts: []BalanceLine{
			{ID: "a1", Balance: decimal.RequireFromString("-1"), Expected: NonNegative},
			{ID: "a2", Balance: decimal.RequireFromString("5"), Expected: NonNegative},
		},
		Kinds: []BalanceLine{
			{ID: "Transfer", Balance: decimal.RequireFromString("0.01"), Expected: ExpectedSign(Transfer)},
		},
	}
	got := o.Anomalies()
	if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "Transfer" {
		t.Fatalf("unexpected anomalies: %+v", got)
	}
}
