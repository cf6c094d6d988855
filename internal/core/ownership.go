package core

import "slices"

// OwnershipGroup is how an account relates to the viewing user.
type OwnershipGroup string

const (
	Owned  OwnershipGroup = "owned"
	Common OwnershipGroup = "common"
	Others OwnershipGroup = "others"
)

// OwnershipGroups returns the groups in display order.
func OwnershipGroups() []OwnershipGroup {
	return []OwnershipGroup{Owned, Common, Others}
}

// ClassifyAccount derives the ownership group from the owners list. The
// result is never stored so it cannot drift from the owners.
func ClassifyAccount(a Account, userID string) OwnershipGroup {
	switch {
	case len(a.Owners) == 1 && a.Owners[0].ID == userID:
		return Owned
	case len(a.Owners) > 1 && a.HasOwner(userID):
		return Common
	default:
		return Others
	}
}

// HasOwner reports whether userID is among the account owners.
func (a Account) HasOwner(userID string) bool {
	return slices.ContainsFunc(a.Owners, func(u User) bool { return u.ID == userID })
}

// GroupAccounts buckets accounts by ownership group, preserving input order
// within each group.
func GroupAccounts(accounts []Account, userID string) map[OwnershipGroup][]Account {
	groups := make(map[OwnershipGroup][]Account)
	for _, a := range accounts {
		g := ClassifyAccount(a, userID)
		groups[g] = append(groups[g], a)
	}
	return groups
}

// PartitionGroup is a run of partition options sharing one account.
type PartitionGroup struct {
	Account Account
	Group   OwnershipGroup
	Options []PartitionOption
}

// GroupPartitionOptions orders options owned, then common, then others, and
// groups consecutive options by account. With onlyOwned set, options whose
// account is not flagged as owned are dropped first.
func GroupPartitionOptions(options []PartitionOption, userID string, onlyOwned bool) []PartitionGroup {
	byGroup := make(map[OwnershipGroup][]PartitionOption)
	for _, o := range options {
		if onlyOwned && !o.Account.IsOwned {
			continue
		}
		g := ClassifyAccount(o.Account, userID)
		byGroup[g] = append(byGroup[g], o)
	}

	var result []PartitionGroup
	index := make(map[string]int)
	for _, g := range OwnershipGroups() {
		for _, o := range byGroup[g] {
			i, ok := index[o.Account.ID]
			if !ok {
				i = len(result)
				index[o.Account.ID] = i
				result = append(result, PartitionGroup{Account: o.Account, Group: g})
			}
			result[i].Options = append(result[i].Options, o)
		}
	}
	return result
}
