package engine

import (
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
)

// State is a point-in-time copy of an engine.
type State struct {
	CurrentPageIndex int              `json:"currentPageIndex"`
	PageCount        int              `json:"pageCount"`
	CanSubmit        bool             `json:"canSubmit"`
	Progress         float64          `json:"progress"`
	Transitioning    bool             `json:"transitioning"`
	Schema           model.FormSchema `json:"formData"`
}

func newState(current int, schema model.FormSchema, transitioning bool) State {
	pages := schema.PageCount()
	state := State{
		CurrentPageIndex: current,
		PageCount:        pages,
		Transitioning:    transitioning,
		Schema:           schema,
	}
	if pages > 0 {
		state.CanSubmit = current == pages-1
		state.Progress = float64(current+1) / float64(pages) * 100
	}
	return state
}

// CurrentPage returns the active page, if any.
func (s State) CurrentPage() (model.Page, bool) {
	if s.CurrentPageIndex < 0 || s.CurrentPageIndex >= len(s.Schema.Pages) {
		return model.Page{}, false
	}
	return s.Schema.Pages[s.CurrentPageIndex], true
}

// IsFirst reports whether the first page is active.
func (s State) IsFirst() bool {
	return s.CurrentPageIndex == 0
}

// IsLast reports whether the last page is active.
func (s State) IsLast() bool {
	return s.PageCount > 0 && s.CurrentPageIndex == s.PageCount-1
}

// Snapshot converts the state to its persisted form.
func (s State) Snapshot() progress.Snapshot {
	return progress.Snapshot{
		CurrentPageIndex: s.CurrentPageIndex,
		FormData:         s.Schema,
	}
}
