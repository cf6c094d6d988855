// Package filter holds the transaction filter selection: which partitions,
// categories and loans are selected, the date range and pagination.
//
// State only changes through Reduce, which is pure. Store wraps it as the
// single writer for a session.
package filter

import (
	"time"

	"fintrack/internal/core"
)

// DefaultPerPage is the page size of a fresh session.
const DefaultPerPage = 25

type State struct {
	PartitionIDs IDSet
	CategoryIDs  IDSet
	LoanIDs      IDSet

	// Nil bounds are open-ended.
	TSSDate *core.Date
	TSEDate *core.Date

	NPerPage    int
	CurrentPage int

	SelectedCategoryID    string
	SelectedSourceID      string
	SelectedDestinationID string
}

// NewState returns the state of a fresh session: nothing selected, the
// month containing now, first page of DefaultPerPage rows.
func NewState(now time.Time) State {
	first, last := core.MonthRange(now)
	return State{
		PartitionIDs: NewIDSet(),
		CategoryIDs:  NewIDSet(),
		LoanIDs:      NewIDSet(),
		TSSDate:      &first,
		TSEDate:      &last,
		NPerPage:     DefaultPerPage,
		CurrentPage:  1,
	}
}

// Clone returns a deep copy that shares nothing with s.
func (s State) Clone() State {
	out := s
	out.PartitionIDs = s.PartitionIDs.Clone()
	out.CategoryIDs = s.CategoryIDs.Clone()
	out.LoanIDs = s.LoanIDs.Clone()
	out.TSSDate = cloneDate(s.TSSDate)
	out.TSEDate = cloneDate(s.TSEDate)
	return out
}

// Equal compares two states by value.
func (s State) Equal(o State) bool {
	return s.PartitionIDs.Equal(o.PartitionIDs) &&
		s.CategoryIDs.Equal(o.CategoryIDs) &&
		s.LoanIDs.Equal(o.LoanIDs) &&
		sameDate(s.TSSDate, o.TSSDate) &&
		sameDate(s.TSEDate, o.TSEDate) &&
		s.NPerPage == o.NPerPage &&
		s.CurrentPage == o.CurrentPage &&
		s.SelectedCategoryID == o.SelectedCategoryID &&
		s.SelectedSourceID == o.SelectedSourceID &&
		s.SelectedDestinationID == o.SelectedDestinationID
}

// Range returns the selected date range.
func (s State) Range() core.DateRange {
	return core.DateRange{Start: cloneDate(s.TSSDate), End: cloneDate(s.TSEDate)}
}

func cloneDate(d *core.Date) *core.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func sameDate(a, b *core.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b.Time)
}
