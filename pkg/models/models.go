// Package models defines data structures shared across the application.
package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DetailLevel controls how granular a task extraction should be.
type DetailLevel string

const (
	// DetailLow requests only the essential steps (2-3 subtasks).
	DetailLow DetailLevel = "low"

	// DetailMedium requests a balanced breakdown (3-5 subtasks).
	DetailMedium DetailLevel = "medium"

	// DetailHigh requests a comprehensive breakdown with implementation
	// guidance (5-8 subtasks).
	DetailHigh DetailLevel = "high"
)

// ParseDetailLevel converts a string into a DetailLevel. An empty string
// defaults to DetailMedium.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DetailMedium, nil
	case string(DetailLow):
		return DetailLow, nil
	case string(DetailMedium):
		return DetailMedium, nil
	case string(DetailHigh):
		return DetailHigh, nil
	}
	return "", fmt.Errorf("invalid detail level: %q, expected low, medium or high", s)
}

// SubTask is a child unit of a task. Each selected subtask becomes its
// own GitHub issue referencing the main issue.
type SubTask struct {
	// ID is a unique identifier assigned at extraction time
	ID string `json:"id"`

	// Title is the subtask's short summary
	Title string `json:"title"`

	// Description is the full body text of the subtask
	Description string `json:"description"`

	// Selected reports whether the subtask will be published
	Selected bool `json:"selected"`
}

// Task is the top-level work item extracted from user text. It becomes
// the primary GitHub issue.
type Task struct {
	// ID is a unique identifier assigned at extraction time
	ID string `json:"id"`

	// Title is the task's short summary
	Title string `json:"title"`

	// Description is the full body text of the task
	Description string `json:"description"`

	// Subtasks are the child work items, in publish order
	Subtasks []SubTask `json:"subtasks"`
}

// NewID returns a fresh unique identifier for tasks and subtasks.
func NewID() string {
	return uuid.NewString()
}

// ToggleSubtask flips the Selected flag of the subtask with the given id
// and leaves every other subtask untouched. It returns false when no
// subtask has that id.
func (t *Task) ToggleSubtask(id string) bool {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			t.Subtasks[i].Selected = !t.Subtasks[i].Selected
			return true
		}
	}
	return false
}

// SelectedSubtasks returns the subtasks that will be published, in their
// original order.
func (t *Task) SelectedSubtasks() []SubTask {
	selected := make([]SubTask, 0, len(t.Subtasks))
	for _, st := range t.Subtasks {
		if st.Selected {
			selected = append(selected, st)
		}
	}
	return selected
}

// Markdown renders the task and its selected subtasks as a markdown
// document.
func (t *Task) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", t.Title, t.Description)

	if len(t.Subtasks) > 0 {
		b.WriteString("## Subtasks\n\n")
		for _, st := range t.Subtasks {
			if st.Selected {
				fmt.Fprintf(&b, "### %s\n%s\n\n", st.Title, st.Description)
			}
		}
	}
	return b.String()
}

// ExtractedTasks is the terminal output of the extraction service. On
// failure, Success is false, Error carries the cause and MainTask is an
// empty stub.
type ExtractedTasks struct {
	MainTask Task   `json:"mainTask"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}
