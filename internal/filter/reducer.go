package filter

import (
	"time"

	"fintrack/internal/core"
)

// Reducer applies actions to a state. Now is only read by the month
// actions; a nil Now means time.Now.
type Reducer struct {
	Now func() time.Time
}

var defaultReducer = Reducer{}

// Reduce applies action to state with the wall clock.
func Reduce(state State, action Action) State {
	return defaultReducer.Reduce(state, action)
}

// Reduce returns the state after action. It never mutates state and does
// no I/O. Any change to the partitions, categories, loans or date range
// sends the user back to page 1.
func (r Reducer) Reduce(state State, action Action) State {
	next := state.Clone()

	switch a := action.(type) {
	case TogglePartitions:
		next.PartitionIDs = next.PartitionIDs.xor(a.IDs)
		next.SelectedSourceID = ""
		next.CurrentPage = 1
	case ToggleAccount:
		next.PartitionIDs = next.PartitionIDs.toggleGroup(a.PartitionIDs)
		next.CurrentPage = 1
	case ToggleCategories:
		next.CategoryIDs = next.CategoryIDs.xor(a.IDs)
		next.SelectedCategoryID = ""
		next.CurrentPage = 1
	case ToggleCategoryKind:
		next.CategoryIDs = next.CategoryIDs.toggleGroup(a.CategoryIDs)
		next.CurrentPage = 1

	case SetNPerPage:
		// Keeps the current page.
		next.NPerPage = a.N
	case SetCurrentPage:
		next.CurrentPage = a.Page

	case SetTSSDate:
		next.TSSDate = cloneDate(a.Date)
		next.CurrentPage = 1
	case SetTSEDate:
		next.TSEDate = cloneDate(a.Date)
		next.CurrentPage = 1
	case SetThisMonth:
		next.setMonth(r.now())
		next.CurrentPage = 1
	case SetPrevMonth:
		next.setMonth(core.AddMonths(r.anchor(state), -1).Time)
		next.CurrentPage = 1
	case SetNextMonth:
		next.setMonth(core.AddMonths(r.anchor(state), 1).Time)
		next.CurrentPage = 1

	case SetSelectedCategoryID:
		next.SelectedCategoryID = a.ID
	case SetSelectedSourceID:
		next.SelectedSourceID = a.ID
	case SetSelectedDestinationID:
		next.SelectedDestinationID = a.ID

	case ToggleLoanIDs:
		next.LoanIDs = next.LoanIDs.xor(a.IDs)
		next.CurrentPage = 1
	case RemoveLoanIDs:
		next.LoanIDs = next.LoanIDs.without(a.IDs)
		next.CurrentPage = 1
	}
	return next
}

func (r Reducer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// anchor is the month the relative month actions step from.
func (r Reducer) anchor(s State) time.Time {
	if s.TSSDate == nil {
		return r.now()
	}
	return s.TSSDate.Time
}

func (s *State) setMonth(t time.Time) {
	first, last := core.MonthRange(t)
	s.TSSDate = &first
	s.TSEDate = &last
}
