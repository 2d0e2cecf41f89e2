package github

import (
	"context"
	"fmt"

	"github.com/vishals9711/task-crafter/internal/logging"
	"github.com/vishals9711/task-crafter/pkg/models"
)

// LinkPolicy controls how a failed project-link mutation affects the
// per-subtask outcome. Under either policy a link failure never aborts
// the run and never flips the result's aggregate Success.
type LinkPolicy int

const (
	// LinkBestEffort records the link error on the outcome but keeps the
	// item successful. This matches the original product behavior.
	LinkBestEffort LinkPolicy = iota

	// LinkStrict marks an item failed when its project link fails, even
	// though the issue itself was created.
	LinkStrict
)

// Publisher files a task and its selected subtasks as GitHub issues,
// optionally linking each to a Projects v2 board.
//
// All calls are sequential, one in flight at a time: the main issue's
// number must exist before any subtask body can reference it, and
// sequential creation keeps issue numbers in subtask order.
type Publisher struct {
	client *Client
	policy LinkPolicy
}

// NewPublisher creates a publisher with the best-effort link policy.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client, policy: LinkBestEffort}
}

// SetLinkPolicy changes how project-link failures are reported.
func (p *Publisher) SetLinkPolicy(policy LinkPolicy) {
	p.policy = policy
}

// Publish runs the issue creation sequence:
//
//  1. main issue (skipped in project-only mode) - failure is fatal
//  2. link main issue to the board, or create a draft item for the main
//     task in project-only mode - failure is logged, never fatal
//  3. one issue per selected subtask, in order, each referencing the
//     main issue - failures are isolated per subtask
//  4. link each subtask to the board - same policy as step 2
func (p *Publisher) Publish(ctx context.Context, task models.Task, creds models.GitHubCredentials) models.GitHubIssueCreationResult {
	if !creds.HasRepository() && !creds.HasProject() {
		return models.GitHubIssueCreationResult{
			Success: false,
			Error:   "select either a repository or a project",
		}
	}

	var (
		mainIssue models.GitHubIssue
		result    models.GitHubIssueCreationResult
	)

	if creds.HasRepository() {
		issue, err := p.client.CreateIssue(ctx, creds.Owner, creds.Repo, task.Title, task.Description)
		if err != nil {
			// Without a main issue there is nothing for subtasks to
			// reference; abort before any subtask call.
			return models.GitHubIssueCreationResult{
				Success: false,
				Error:   fmt.Sprintf("failed to create main issue: %v", err),
			}
		}
		mainIssue = issue
		result.MainIssueURL = issue.URL

		if creds.HasProject() {
			if err := p.client.AddIssueToProject(ctx, creds.ProjectID, issue.NodeID); err != nil {
				logging.Warn("failed to link main issue to project",
					"project_id", creds.ProjectID,
					"issue_number", issue.Number,
					"error", err)
			}
		}
	} else {
		// Project-only mode: the main task becomes a draft item.
		if err := p.client.CreateDraftIssue(ctx, creds.ProjectID, task.Title, task.Description); err != nil {
			logging.Warn("failed to create draft item for main task",
				"project_id", creds.ProjectID,
				"error", err)
		}
	}

	for _, subtask := range task.SelectedSubtasks() {
		outcome := p.publishSubtask(ctx, subtask, mainIssue, creds)
		result.Subtasks = append(result.Subtasks, outcome)
		if outcome.URL != "" && outcome.Status == models.OutcomeCreated {
			result.SubtaskIssueURLs = append(result.SubtaskIssueURLs, outcome.URL)
		}
	}

	result.Success = true
	return result
}

func (p *Publisher) publishSubtask(ctx context.Context, subtask models.SubTask, mainIssue models.GitHubIssue, creds models.GitHubCredentials) models.SubtaskOutcome {
	outcome := models.SubtaskOutcome{
		SubtaskID: subtask.ID,
		Title:     subtask.Title,
	}

	if !creds.HasRepository() {
		// Project-only mode: draft item, no issue number to reference.
		if err := p.client.CreateDraftIssue(ctx, creds.ProjectID, subtask.Title, subtask.Description); err != nil {
			logging.Warn("failed to create draft item for subtask",
				"subtask", subtask.Title,
				"error", err)
			outcome.Status = models.OutcomeFailed
			outcome.Error = err.Error()
			return outcome
		}
		outcome.Status = models.OutcomeCreated
		return outcome
	}

	body := subtask.Description
	if mainIssue.Number != 0 {
		body = fmt.Sprintf("%s\n\nPart of #%d", subtask.Description, mainIssue.Number)
	}

	issue, err := p.client.CreateIssue(ctx, creds.Owner, creds.Repo, subtask.Title, body)
	if err != nil {
		// One subtask's failure must not abort the remaining subtasks.
		logging.Warn("failed to create subtask issue",
			"subtask", subtask.Title,
			"error", err)
		outcome.Status = models.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Status = models.OutcomeCreated
	outcome.URL = issue.URL

	if creds.HasProject() {
		if err := p.client.AddIssueToProject(ctx, creds.ProjectID, issue.NodeID); err != nil {
			logging.Warn("failed to link subtask issue to project",
				"project_id", creds.ProjectID,
				"issue_number", issue.Number,
				"error", err)
			if p.policy == LinkStrict {
				outcome.Status = models.OutcomeFailed
				outcome.Error = fmt.Sprintf("issue created but project link failed: %v", err)
			}
		}
	}

	return outcome
}
