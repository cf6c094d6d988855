package filter

import "fintrack/internal/core"

// Action is a filter change. The set of actions is closed.
type Action interface {
	Type() string
	isAction()
}

type (
	// TogglePartitions flips each partition independently.
	TogglePartitions struct{ IDs []string }
	// ToggleAccount selects all of an account's partitions, or clears them
	// when all are already selected.
	ToggleAccount struct{ PartitionIDs []string }
	// ToggleCategories flips each category independently.
	ToggleCategories struct{ IDs []string }
	// ToggleCategoryKind selects all categories of a kind, or clears them
	// when all are already selected.
	ToggleCategoryKind struct{ CategoryIDs []string }

	SetNPerPage struct{ N int }
	SetTSSDate  struct{ Date *core.Date }
	SetTSEDate  struct{ Date *core.Date }

	SetThisMonth struct{}
	SetPrevMonth struct{}
	SetNextMonth struct{}

	SetCurrentPage struct{ Page int }

	SetSelectedCategoryID    struct{ ID string }
	SetSelectedSourceID      struct{ ID string }
	SetSelectedDestinationID struct{ ID string }

	ToggleLoanIDs struct{ IDs []string }
	RemoveLoanIDs struct{ IDs []string }
)

func (TogglePartitions) Type() string         { return "TOGGLE_PARTITIONS" }
func (ToggleAccount) Type() string            { return "TOGGLE_ACCOUNT" }
func (ToggleCategories) Type() string         { return "TOGGLE_CATEGORIES" }
func (ToggleCategoryKind) Type() string       { return "TOGGLE_CATEGORY_KIND" }
func (SetNPerPage) Type() string              { return "SET_N_PER_PAGE" }
func (SetTSSDate) Type() string               { return "SET_TSS_DATE" }
func (SetTSEDate) Type() string               { return "SET_TSE_DATE" }
func (SetThisMonth) Type() string             { return "SET_THIS_MONTH" }
func (SetPrevMonth) Type() string             { return "SET_PREV_MONTH" }
func (SetNextMonth) Type() string             { return "SET_NEXT_MONTH" }
func (SetCurrentPage) Type() string           { return "SET_CURRENT_PAGE" }
func (SetSelectedCategoryID) Type() string    { return "SET_SELECTED_CATEGORY_ID" }
func (SetSelectedSourceID) Type() string      { return "SET_SELECTED_SOURCE_ID" }
func (SetSelectedDestinationID) Type() string { return "SET_SELECTED_DESTINATION_ID" }
func (ToggleLoanIDs) Type() string            { return "TOGGLE_LOAN_IDS" }
func (RemoveLoanIDs) Type() string            { return "REMOVE_LOAN_IDS" }

func (TogglePartitions) isAction()         {}
func (ToggleAccount) isAction()            {}
func (ToggleCategories) isAction()         {}
func (ToggleCategoryKind) isAction()       {}
func (SetNPerPage) isAction()              {}
func (SetTSSDate) isAction()               {}
func (SetTSEDate) isAction()               {}
func (SetThisMonth) isAction()             {}
func (SetPrevMonth) isAction()             {}
func (SetNextMonth) isAction()             {}
func (SetCurrentPage) isAction()           {}
func (SetSelectedCategoryID) isAction()    {}
func (SetSelectedSourceID) isAction()      {}
func (SetSelectedDestinationID) isAction() {}
func (ToggleLoanIDs) isAction()            {}
func (RemoveLoanIDs) isAction()            {}
