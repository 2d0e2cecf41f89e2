package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vishals9711/task-crafter/internal/apperr"
	"github.com/vishals9711/task-crafter/pkg/models"
)

// Projects v2 has no REST surface in go-github v41, so these calls go
// straight to the GraphQL endpoint.

const addProjectItemMutation = `
mutation($projectId: ID!, $contentId: ID!) {
  addProjectV2ItemById(input: {
    projectId: $projectId
    contentId: $contentId
  }) {
    item {
      id
    }
  }
}`

const addDraftIssueMutation = `
mutation($projectId: ID!, $title: String!, $body: String!) {
  addProjectV2DraftIssue(input: {
    projectId: $projectId
    title: $title
    body: $body
  }) {
    projectItem {
      id
    }
  }
}`

const repositoryProjectsQuery = `
query($owner: String!, $repo: String!) {
  repository(owner: $owner, name: $repo) {
    projectsV2(first: 20, orderBy: {field: UPDATED_AT, direction: DESC}) {
      nodes {
        id
        number
        title
        url
        closed
        shortDescription
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// graphql executes one GraphQL request and decodes its data payload
// into out (out may be nil when the caller only cares about errors).
func (c *Client) graphql(ctx context.Context, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return apperr.GitHubf("failed to encode graphql request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return apperr.GitHubf("failed to build graphql request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.GitHubf("graphql request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.GitHubf("failed to read graphql response: %v", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return apperr.Authf("graphql request rejected, please log in again")
	}
	if resp.StatusCode != http.StatusOK {
		return apperr.GitHubf("graphql request failed: status %d", resp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return apperr.GitHubf("failed to decode graphql response: %v", err)
	}
	if len(gqlResp.Errors) > 0 {
		return apperr.GitHubf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	if out != nil {
		if err := json.Unmarshal(gqlResp.Data, out); err != nil {
			return apperr.GitHubf("failed to decode graphql data: %v", err)
		}
	}
	return nil
}

// AddIssueToProject links an existing issue (by GraphQL node id) to a
// Projects v2 board.
func (c *Client) AddIssueToProject(ctx context.Context, projectID, contentNodeID string) error {
	return c.graphql(ctx, addProjectItemMutation, map[string]any{
		"projectId": projectID,
		"contentId": contentNodeID,
	}, nil)
}

// CreateDraftIssue creates a project-only draft item carrying title and
// body. Used when no repository was selected.
func (c *Client) CreateDraftIssue(ctx context.Context, projectID, title, body string) error {
	return c.graphql(ctx, addDraftIssueMutation, map[string]any{
		"projectId": projectID,
		"title":     title,
		"body":      body,
	}, nil)
}

// ListRepositoryProjects retrieves a repository's open Projects v2
// boards, most recently updated first. Closed boards are filtered out.
func (c *Client) ListRepositoryProjects(ctx context.Context, owner, repo string) ([]models.GitHubProject, error) {
	if owner == "" || repo == "" {
		return nil, apperr.Validationf("owner and repo are required")
	}

	var data struct {
		Repository struct {
			ProjectsV2 struct {
				Nodes []struct {
					ID               string `json:"id"`
					Number           int    `json:"number"`
					Title            string `json:"title"`
					URL              string `json:"url"`
					Closed           bool   `json:"closed"`
					ShortDescription string `json:"shortDescription"`
				} `json:"nodes"`
			} `json:"projectsV2"`
		} `json:"repository"`
	}

	if err := c.graphql(ctx, repositoryProjectsQuery, map[string]any{
		"owner": owner,
		"repo":  repo,
	}, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch projects for %s/%s: %w", owner, repo, err)
	}

	projects := make([]models.GitHubProject, 0, len(data.Repository.ProjectsV2.Nodes))
	for _, node := range data.Repository.ProjectsV2.Nodes {
		if node.Closed {
			continue
		}
		projects = append(projects, models.GitHubProject{
			ID:          node.ID,
			Number:      node.Number,
			Title:       node.Title,
			URL:         node.URL,
			Description: node.ShortDescription,
		})
	}
	return projects, nil
}
