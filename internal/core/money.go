// Package core provides value parsing and balance sign rules.
//
// This file contains functions for parsing monetary amounts entered by the
// user and for checking aggregated balances against their expected sign.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseValue converts a user-entered amount into a decimal with two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and a
// leading sign, and rounds half away from zero on the third decimal place.
// Zero is rejected since a transaction must move money.
//
// Examples:
//
//	ParseValue("12.34")  -> 12.34, nil
//	ParseValue("-12,345") -> -12.35, nil
//	ParseValue("0")      -> 0, ErrInvalidValue
func ParseValue(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidValue
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidValue
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidValue
	}
	d = d.Round(2)
	if d.IsZero() {
		return decimal.Zero, ErrInvalidValue
	}
	return d, nil
}

// ParseBalance parses a server balance string. An empty string is zero.
func ParseBalance(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidValue
	}
	return d, nil
}

// Sign is the expected sign of an aggregated balance.
type Sign int

const (
	NonNegative Sign = iota
	NonPositive
	ZeroSign
)

func (s Sign) String() string {
	switch s {
	case NonPositive:
		return "<=0"
	case ZeroSign:
		return "==0"
	default:
		return ">=0"
	}
}

// Holds reports whether v satisfies the sign.
func (s Sign) Holds(v decimal.Decimal) bool {
	switch s {
	case NonPositive:
		return v.Sign() <= 0
	case ZeroSign:
		return v.IsZero()
	default:
		return v.Sign() >= 0
	}
}

// ExpectedSign returns the sign a category kind's balance should have:
// income is never negative, expense never positive and transfers net to zero.
func ExpectedSign(kind CategoryKind) Sign {
	switch kind {
	case Expense:
		return NonPositive
	case Transfer:
		return ZeroSign
	default:
		return NonNegative
	}
}

// IsAsExpected reports whether a category-kind balance has its expected sign.
func IsAsExpected(kind CategoryKind, balance decimal.Decimal) bool {
	return ExpectedSign(kind).Holds(balance)
}

// FormatValue renders a value with two decimals.
func FormatValue(v decimal.Decimal) string {
	return v.StringFixed(2)
}
