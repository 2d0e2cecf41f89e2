package models

// GitHubCredentials names the identity and target used for one publish
// attempt. It is constructed fresh per call by the credential resolver
// and never persisted in this shape.
type GitHubCredentials struct {
	// Token is the personal access token or OAuth access token
	Token string `json:"token"`

	// Owner is the repository owner (user or organization login)
	Owner string `json:"owner"`

	// Repo is the repository name
	Repo string `json:"repo"`

	// ProjectID is the Projects v2 node id, when a board was selected
	ProjectID string `json:"projectId,omitempty"`

	// ProjectNumber is the board's number, when a board was selected
	ProjectNumber int `json:"projectNumber,omitempty"`
}

// HasRepository reports whether issues can be filed against a repository.
func (c GitHubCredentials) HasRepository() bool {
	return c.Owner != "" && c.Repo != ""
}

// HasProject reports whether created items should be linked to a
// Projects v2 board.
func (c GitHubCredentials) HasProject() bool {
	return c.ProjectID != ""
}

// GitHubIssue represents a created GitHub issue with the fields the
// pipeline needs.
type GitHubIssue struct {
	// Number is the issue number in GitHub (e.g., 42)
	Number int `json:"number"`

	// Title is the issue's title or summary
	Title string `json:"title"`

	// URL is the issue's html url
	URL string `json:"url"`

	// NodeID is the GraphQL node id, used for Projects v2 linking
	NodeID string `json:"nodeId"`
}

// OutcomeStatus describes how publishing a single subtask went.
type OutcomeStatus string

const (
	// OutcomeCreated means the subtask's issue (or draft item) exists.
	OutcomeCreated OutcomeStatus = "created"

	// OutcomeFailed means the subtask's issue could not be created, or
	// its project link failed under the strict link policy.
	OutcomeFailed OutcomeStatus = "failed"
)

// SubtaskOutcome is the per-subtask publish result, so callers can tell
// "3 of 4 subtasks created" apart from "4 of 4".
type SubtaskOutcome struct {
	SubtaskID string        `json:"subtaskId"`
	Title     string        `json:"title"`
	Status    OutcomeStatus `json:"status"`
	URL       string        `json:"url,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// GitHubIssueCreationResult is the publisher's terminal output. Success
// reflects only the core creation steps; project-link failures never
// flip it to false.
type GitHubIssueCreationResult struct {
	Success          bool             `json:"success"`
	MainIssueURL     string           `json:"mainIssueUrl,omitempty"`
	SubtaskIssueURLs []string         `json:"subtaskIssueUrls,omitempty"`
	Subtasks         []SubtaskOutcome `json:"subtasks,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// GitHubRepository is a repository the authenticated user can file
// issues against.
type GitHubRepository struct {
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	FullName string `json:"fullName"`
	Private  bool   `json:"private"`
}

// GitHubOrganization is an organization the authenticated user belongs to.
type GitHubOrganization struct {
	Login string `json:"login"`
}

// GitHubProject is an open Projects v2 board.
type GitHubProject struct {
	// ID is the GraphQL node id (e.g., "PVT_kwDO...")
	ID string `json:"id"`

	// Number is the project number shown in its url
	Number int `json:"number"`

	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}
