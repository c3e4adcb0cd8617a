// Package board maps project pipeline statuses onto the admin kanban
// columns.
package board

import "websiter-server/internal/domain"

// Transition is a column-level affordance: the status a card moves to
// when dragged toward the neighbouring column. The server still checks
// the move against the transition table.
type Transition struct {
	Target domain.ProjectStatus `json:"target"`
	Label  string               `json:"label"`
}

type Column struct {
	Key      string                 `json:"key"`
	Title    string                 `json:"title"`
	Statuses []domain.ProjectStatus `json:"statuses"`
	Prev     *Transition            `json:"prev,omitempty"`
	Next     *Transition            `json:"next,omitempty"`
}

// Columns is the board layout, in display order. Every status belongs to
// exactly one column; a status the layout does not know lands in the
// first column so it stays visible instead of vanishing from the board.
var Columns = []Column{
	{
		Key:      "backlog",
		Title:    "Backlog",
		Statuses: []domain.ProjectStatus{domain.StatusNew, domain.StatusSubmitted},
		Next:     &Transition{Target: domain.StatusWaitingForConfirmation, Label: "Request confirmation"},
	},
	{
		Key:      "confirmed",
		Title:    "Confirmed",
		Statuses: []domain.ProjectStatus{domain.StatusWaitingForConfirmation, domain.StatusConfirmed},
		Prev:     &Transition{Target: domain.StatusSubmitted, Label: "Back to backlog"},
		Next:     &Transition{Target: domain.StatusInProgress, Label: "Start work"},
	},
	{
		Key:      "in_progress",
		Title:    "In Progress",
		Statuses: []domain.ProjectStatus{domain.StatusInProgress, domain.StatusInDesign},
		Prev:     &Transition{Target: domain.StatusConfirmed, Label: "Back to confirmed"},
		Next:     &Transition{Target: domain.StatusReview, Label: "Send to review"},
	},
	{
		Key:      "review",
		Title:    "Review",
		Statuses: []domain.ProjectStatus{domain.StatusReview},
		Prev:     &Transition{Target: domain.StatusInDesign, Label: "Rework design"},
		Next:     &Transition{Target: domain.StatusFinalDelivery, Label: "Deliver"},
	},
	{
		Key:      "done",
		Title:    "Done",
		Statuses: []domain.ProjectStatus{domain.StatusFinalDelivery, domain.StatusCompleted},
		Prev:     &Transition{Target: domain.StatusReview, Label: "Reopen review"},
	},
}

// ColumnFor returns the first column claiming the status, falling back to
// the first column for anything unknown.
func ColumnFor(status domain.ProjectStatus) Column {
	for _, col := range Columns {
		for _, s := range col.Statuses {
			if s == status {
				return col
			}
		}
	}
	return Columns[0]
}

// ColumnView is one rendered column: the layout plus the projects that
// fall into it.
type ColumnView struct {
	Column
	Projects []*domain.Project `json:"projects"`
}

// Build distributes projects over the columns, preserving both the column
// order and the relative order of the input.
func Build(projects []*domain.Project) []ColumnView {
	views := make([]ColumnView, len(Columns))
	index := make(map[string]int, len(Columns))
	for i, col := range Columns {
		views[i] = ColumnView{Column: col, Projects: []*domain.Project{}}
		index[col.Key] = i
	}

	for _, p := range projects {
		i := index[ColumnFor(p.Status).Key]
		views[i].Projects = append(views[i].Projects, p)
	}

	return views
}
