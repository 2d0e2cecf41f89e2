// Package extraction turns free-form text into a task breakdown ready
// for review and publishing.
package extraction

import (
	"context"
	"strings"

	"github.com/vishals9711/task-crafter/internal/llm"
	"github.com/vishals9711/task-crafter/internal/logging"
	"github.com/vishals9711/task-crafter/pkg/models"
)

// Placeholder values substituted when the model omits fields or returns
// no subtasks at all. The caller always gets at least one actionable item.
const (
	untitledSubtask       = "Untitled subtask"
	missingDescription    = "No description provided"
	defaultSubtaskTitle   = "Implement feature"
	defaultSubtaskDetails = "Implement the described feature"
)

// ErrTextRequired is the user-facing message for empty input.
const ErrTextRequired = "Text is required and must not be empty"

// Extractor is the LLM call the service depends on.
type Extractor interface {
	ExtractTasks(ctx context.Context, text string, level models.DetailLevel) (*llm.TaskBreakdown, error)
}

// Service validates input, invokes the model and normalizes its output.
type Service struct {
	llm Extractor
}

// NewService creates an extraction service backed by the given extractor.
func NewService(extractor Extractor) *Service {
	return &Service{llm: extractor}
}

// Extract runs one extraction. It never returns a Go error: failures are
// reported through the result's Success and Error fields so the caller
// can always render something.
func (s *Service) Extract(ctx context.Context, text string, level models.DetailLevel) models.ExtractedTasks {
	if strings.TrimSpace(text) == "" {
		return failedExtraction(ErrTextRequired)
	}

	breakdown, err := s.llm.ExtractTasks(ctx, text, level)
	if err != nil {
		logging.Error("task extraction failed", "error", err)
		return failedExtraction(err.Error())
	}

	subtasks := make([]models.SubTask, 0, len(breakdown.Subtasks))
	for _, raw := range breakdown.Subtasks {
		title := raw.Title
		description := raw.Description
		if title == "" || description == "" {
			logging.Warn("subtask missing title or description, using defaults")
			if title == "" {
				title = untitledSubtask
			}
			if description == "" {
				description = missingDescription
			}
		}
		subtasks = append(subtasks, models.SubTask{
			ID:          models.NewID(),
			Title:       title,
			Description: description,
			Selected:    true,
		})
	}

	// A breakdown with no subtasks would leave nothing to publish.
	if len(subtasks) == 0 {
		subtasks = append(subtasks, models.SubTask{
			ID:          models.NewID(),
			Title:       defaultSubtaskTitle,
			Description: defaultSubtaskDetails,
			Selected:    true,
		})
	}

	return models.ExtractedTasks{
		MainTask: models.Task{
			ID:          models.NewID(),
			Title:       breakdown.MainTask.Title,
			Description: breakdown.MainTask.Description,
			Subtasks:    subtasks,
		},
		Success: true,
	}
}

func failedExtraction(msg string) models.ExtractedTasks {
	return models.ExtractedTasks{
		MainTask: models.Task{ID: models.NewID()},
		Success:  false,
		Error:    msg,
	}
}
