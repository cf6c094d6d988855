package core

import "github.com/shopspring/decimal"

// BalanceEntity names what a balance line aggregates.
type BalanceEntity string

const (
	AccountEntity      BalanceEntity = "account"
	PartitionEntity    BalanceEntity = "partition"
	CategoryEntity     BalanceEntity = "category"
	CategoryKindEntity BalanceEntity = "kind"
)

// BalanceLine is one aggregated balance with its anomaly flag.
type BalanceLine struct {
	Entity   BalanceEntity
	ID       string
	Label    string
	Group    string // ownership group or category kind
	Balance  decimal.Decimal
	Expected Sign
	// Err is set when the balance could not be loaded. Balance is then zero.
	Err error
}

// Anomalous reports whether the balance contradicts its expected sign.
// A line that failed to load is never anomalous.
func (l BalanceLine) Anomalous() bool {
	return l.Err == nil && !l.Expected.Holds(l.Balance)
}

// Overview collects the balances shown for one date range.
type Overview struct {
	Range      DateRange
	Accounts   []BalanceLine
	Partitions []BalanceLine
	Categories []BalanceLine
	Kinds      []BalanceLine
}

func (o Overview) lines() [][]BalanceLine {
	return [][]BalanceLine{o.Accounts, o.Partitions, o.Categories, o.Kinds}
}

// Failed returns every line whose balance could not be loaded.
func (o Overview) Failed() []BalanceLine {
	var out []BalanceLine
	for _, lines := range o.lines() {
		for _, l := range lines {
			if l.Err != nil {
				out = append(out, l)
			}
		}
	}
	return out
}

// Anomalies returns every line whose sign is unexpected.
func (o Overview) Anomalies() []BalanceLine {
	var out []BalanceLine
	for _, lines := range o.lines() {
		for _, l := range lines {
			if l.Anomalous() {
				out = append(out, l)
			}
		}
	}
	return out
}
