// Package invalidation computes which cached query results become stale
// after a mutation.
//
// A Key is an operation tag plus named parameters. Invalidation keys match
// cache keys partially: a key matches every cache entry with the same tag
// whose parameters include all of the key's parameters. A balance key
// without dates therefore reaches every cached date range of that entity.
package invalidation

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Operation tags.
const (
	OpUser                  = "user"
	OpTransactions          = "transactions"
	OpAccounts              = "accounts"
	OpPartitions            = "partitions"
	OpPartitionOptions      = "partitionOptions"
	OpCategories            = "categories"
	OpAccountBalance        = "accountBalance"
	OpPartitionBalance      = "partitionBalance"
	OpCategoryBalance       = "categoryBalance"
	OpCategoryKindBalance   = "categoryKindBalance"
	OpAccountCanBeDeleted   = "accountCanBeDeleted"
	OpPartitionCanBeDeleted = "partitionCanBeDeleted"
	OpCategoryCanBeDeleted  = "categoryCanBeDeleted"
)

// Parameter names.
const (
	ParamUserID      = "userId"
	ParamUsername    = "username"
	ParamOwnerID     = "ownerId"
	ParamAccountID   = "accountId"
	ParamPartitionID = "partitionId"
	ParamCategoryID  = "categoryId"
	ParamKind        = "kind"
	ParamOwned       = "owned"
	ParamTSSDate     = "tssDate"
	ParamTSEDate     = "tseDate"
	ParamPartitions  = "partitionIds"
	ParamCategories  = "categoryIds"
	ParamPage        = "currentPage"
	ParamPerPage     = "nPerPage"
)

var ErrInvalidKey = errors.New("invalid key")

type Param struct {
	Name  string
	Value string
}

// Key identifies a cached query or a family of them. Params are kept
// sorted by name.
type Key struct {
	Op     string
	Params []Param
}

// NewKey builds a key from alternating name and value arguments. Empty
// values are dropped so optional parameters stay out of the key.
func NewKey(op string, nameValues ...string) Key {
	if len(nameValues)%2 != 0 {
		panic("invalidation: NewKey needs name/value pairs")
	}
	k := Key{Op: op}
	for i := 0; i < len(nameValues); i += 2 {
		if nameValues[i+1] == "" {
			continue
		}
		k.Params = append(k.Params, Param{Name: nameValues[i], Value: nameValues[i+1]})
	}
	slices.SortFunc(k.Params, func(a, b Param) int { return strings.Compare(a.Name, b.Name) })
	return k
}

// Param returns the value of a named parameter.
func (k Key) Param(name string) (string, bool) {
	for _, p := range k.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Matches reports whether the cache entry key falls under k.
func (k Key) Matches(entry Key) bool {
	if k.Op != entry.Op {
		return false
	}
	for _, p := range k.Params {
		v, ok := entry.Param(p.Name)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// String is the canonical form, e.g. "partitionBalance?partitionId=p1".
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Op
	}
	var b strings.Builder
	b.WriteString(k.Op)
	for i, p := range k.Params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// ParseKey reverses String.
func ParseKey(s string) (Key, error) {
	op, query, _ := strings.Cut(s, "?")
	if op == "" {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, s, err)
	}
	pairs := make([]string, 0, 2*len(values))
	for name, vs := range values {
		if len(vs) != 1 {
			return Key{}, fmt.Errorf("%w: %q: repeated parameter %s", ErrInvalidKey, s, name)
		}
		pairs = append(pairs, name, vs[0])
	}
	return NewKey(op, pairs...), nil
}

// MatchesAny reports whether any of keys matches entry.
func MatchesAny(keys []Key, entry Key) bool {
	for _, k := range keys {
		if k.Matches(entry) {
			return true
		}
	}
	return false
}

// Strings renders keys in canonical form.
func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// ParseKeys parses canonical keys, stopping at the first bad one.
func ParseKeys(ss []string) ([]Key, error) {
	out := make([]Key, 0, len(ss))
	for _, s := range ss {
		k, err := ParseKey(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}
