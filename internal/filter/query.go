package filter

import (
	"fintrack/internal/core"
	"fintrack/internal/rpc"
)

// FindTransactionsRequest derives the list query for state. Ids are sorted
// so equal selections always produce equal requests.
func FindTransactionsRequest(state State, user core.User) rpc.FindTransactionsRequest {
	return rpc.FindTransactionsRequest{
		PartitionIDs: state.PartitionIDs.Sorted(),
		CategoryIDs:  state.CategoryIDs.Sorted(),
		OwnerID:      user.ID,
		DBName:       user.DBName,
		TSSDate:      cloneDate(state.TSSDate),
		TSEDate:      cloneDate(state.TSEDate),
		CurrentPage:  state.CurrentPage,
		NPerPage:     state.NPerPage,
	}
}

// Period returns the balance period for state.
func Period(state State) rpc.Period {
	return rpc.Period{TSSDate: cloneDate(state.TSSDate), TSEDate: cloneDate(state.TSEDate)}
}
