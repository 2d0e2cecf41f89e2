// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/vishals9711/task-crafter/internal/apperr"
	"github.com/vishals9711/task-crafter/internal/config"
	"github.com/vishals9711/task-crafter/internal/logging"
	"github.com/vishals9711/task-crafter/pkg/models"
)

// Client encapsulates the GitHub API client. REST calls go through
// go-github; Projects v2 calls go through the GraphQL endpoint.
type Client struct {
	rest       *github.Client
	httpClient *http.Client
	graphqlURL string
}

// NewClient creates a GitHub API client for the given token, using the
// configured GitHub domain (github.com or an enterprise host). The
// constructor performs no network calls; use CheckAuth to verify the
// token.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, apperr.Authf("github token is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Get domain from config, default to github.com
	domain := cfg.GitHub.Domain
	if domain == "" {
		domain = "github.com"
	}

	// Construct API URLs based on domain
	var apiURL, graphqlURL string
	if domain == "github.com" {
		apiURL = "https://api.github.com/"
		graphqlURL = "https://api.github.com/graphql"
	} else {
		apiURL = fmt.Sprintf("https://%s/api/v3/", domain)
		graphqlURL = fmt.Sprintf("https://%s/api/graphql", domain)
	}

	logging.Debug("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(token))

	// Create the oauth2 client; its transport adds the bearer header to
	// both REST and GraphQL requests.
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	rest := github.NewClient(tc)

	// If not using default GitHub.com, set custom API endpoint
	if domain != "github.com" {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		rest.BaseURL = parsedURL
		rest.UploadURL = parsedURL
	}

	return &Client{
		rest:       rest,
		httpClient: tc,
		graphqlURL: graphqlURL,
	}, nil
}

// SetBaseURL points both the REST and GraphQL endpoints at a different
// host. Used by tests against a local server.
func (c *Client) SetBaseURL(api string) error {
	if !strings.HasSuffix(api, "/") {
		api += "/"
	}
	parsedURL, err := url.Parse(api)
	if err != nil {
		return fmt.Errorf("invalid github api url: %w", err)
	}
	c.rest.BaseURL = parsedURL
	c.rest.UploadURL = parsedURL
	c.graphqlURL = strings.TrimSuffix(api, "/") + "/graphql"
	return nil
}

// CheckAuth verifies the token by fetching the authenticated user. It
// returns the user's login on success.
func (c *Client) CheckAuth(ctx context.Context) (string, error) {
	user, resp, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return "", classifyRESTError("failed to fetch authenticated user", resp, err)
	}
	return user.GetLogin(), nil
}

// CreateIssue creates one issue and returns its number, url and GraphQL
// node id.
func (c *Client) CreateIssue(ctx context.Context, owner, repo, title, body string) (models.GitHubIssue, error) {
	issue, resp, err := c.rest.Issues.Create(ctx, owner, repo, &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	})
	if err != nil {
		logging.Error("failed to create github issue",
			"repository", owner+"/"+repo,
			"title", title,
			"error", err)
		return models.GitHubIssue{}, classifyRESTError(
			fmt.Sprintf("failed to create issue in %s/%s", owner, repo), resp, err)
	}

	created := models.GitHubIssue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
		NodeID: issue.GetNodeID(),
	}
	logging.Debug("created github issue",
		"repository", owner+"/"+repo,
		"issue_number", created.Number)
	return created, nil
}

// ListRepositories retrieves the authenticated user's repositories,
// most recently updated first.
func (c *Client) ListRepositories(ctx context.Context) ([]models.GitHubRepository, error) {
	opts := &github.RepositoryListOptions{
		Sort: "updated",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var all []*github.Repository
	for {
		repos, resp, err := c.rest.Repositories.List(ctx, "", opts)
		if err != nil {
			return nil, classifyRESTError("failed to fetch repositories", resp, err)
		}
		all = append(all, repos...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result := make([]models.GitHubRepository, 0, len(all))
	for _, repo := range all {
		result = append(result, models.GitHubRepository{
			Name:     repo.GetName(),
			Owner:    repo.GetOwner().GetLogin(),
			FullName: repo.GetFullName(),
			Private:  repo.GetPrivate(),
		})
	}
	return result, nil
}

// ListOrganizations retrieves the authenticated user's organizations.
func (c *Client) ListOrganizations(ctx context.Context) ([]models.GitHubOrganization, error) {
	opts := &github.ListOptions{PerPage: 100}

	var all []*github.Organization
	for {
		orgs, resp, err := c.rest.Organizations.List(ctx, "", opts)
		if err != nil {
			return nil, classifyRESTError("failed to fetch organizations", resp, err)
		}
		all = append(all, orgs...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result := make([]models.GitHubOrganization, 0, len(all))
	for _, org := range all {
		result = append(result, models.GitHubOrganization{Login: org.GetLogin()})
	}
	return result, nil
}

// classifyRESTError maps a failed go-github call to the error taxonomy.
// A 401 means the token is stale and the user has to log in again.
func classifyRESTError(msg string, resp *github.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		return apperr.Authf("%s: github token rejected, please log in again", msg)
	}
	return apperr.GitHubf("%s: %v", msg, err)
}
