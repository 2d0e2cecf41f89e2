// Package credentials resolves which GitHub identity and target a
// publish attempt should use. It is the only component allowed to touch
// the persistent token store; the publisher always receives an explicit
// credentials value.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vishals9711/task-crafter/internal/apperr"
	"github.com/vishals9711/task-crafter/internal/logging"
	"github.com/vishals9711/task-crafter/pkg/models"
)

// Mode selects the credential source.
type Mode string

const (
	// ModeManual uses a user-supplied token/owner/repo triple.
	ModeManual Mode = "manual"

	// ModeOAuth uses a session token or the stored OAuth token plus a
	// repository/project selection.
	ModeOAuth Mode = "oauth"
)

// Selection names the publish target picked by the user in OAuth mode.
type Selection struct {
	// Repository in "owner/name" form; may be empty when only a project
	// was selected.
	Repository string `json:"repository"`

	// ProjectID is the Projects v2 node id, empty when no board selected.
	ProjectID string `json:"projectId"`

	// ProjectNumber is the board's number.
	ProjectNumber int `json:"projectNumber"`
}

// TokenSource yields the persisted OAuth token. A Clear that follows a
// failed Load is the implicit logout.
type TokenSource interface {
	Load() (string, error)
	Clear() error
}

// Resolver builds per-publish credentials from one of the two modes.
type Resolver struct {
	store TokenSource
}

// NewResolver creates a resolver over the given token source.
func NewResolver(store TokenSource) *Resolver {
	return &Resolver{store: store}
}

// Resolve validates inputs for the requested mode and returns the
// credentials for one publish attempt. All validation happens before
// any network call is made.
func (r *Resolver) Resolve(mode Mode, manual models.GitHubCredentials, sessionToken string, sel Selection) (models.GitHubCredentials, error) {
	switch mode {
	case ModeManual, "":
		return resolveManual(manual)
	case ModeOAuth:
		return r.resolveOAuth(sessionToken, sel)
	}
	return models.GitHubCredentials{}, apperr.Validationf("unknown credential mode: %q", mode)
}

func resolveManual(manual models.GitHubCredentials) (models.GitHubCredentials, error) {
	if manual.Token == "" || manual.Owner == "" || manual.Repo == "" {
		return models.GitHubCredentials{}, apperr.Validationf("github token, owner, and repo are required")
	}
	return models.GitHubCredentials{
		Token: manual.Token,
		Owner: manual.Owner,
		Repo:  manual.Repo,
	}, nil
}

func (r *Resolver) resolveOAuth(sessionToken string, sel Selection) (models.GitHubCredentials, error) {
	token := sessionToken
	if token == "" {
		if r.store == nil {
			return models.GitHubCredentials{}, apperr.Authf("GitHub token not found, please log in again")
		}
		stored, err := r.store.Load()
		if err != nil {
			if errors.Is(err, apperr.ErrCrypto) {
				// Undecodable stored token: drop it so the next attempt
				// starts a clean login instead of failing the same way.
				logging.Warn("stored github token could not be decoded, logging out", "error", err)
				if clearErr := r.store.Clear(); clearErr != nil {
					logging.Error("failed to clear stale github token", "error", clearErr)
				}
				return models.GitHubCredentials{}, apperr.Authf("error accessing GitHub token, please log in again")
			}
			if errors.Is(err, apperr.ErrAuth) {
				return models.GitHubCredentials{}, apperr.Authf("GitHub token not found, please log in again")
			}
			return models.GitHubCredentials{}, fmt.Errorf("failed to load github token: %w", err)
		}
		token = stored
	}

	if sel.Repository == "" && sel.ProjectID == "" {
		return models.GitHubCredentials{}, apperr.Validationf("select either a repository or a project")
	}

	creds := models.GitHubCredentials{
		Token:         token,
		ProjectID:     sel.ProjectID,
		ProjectNumber: sel.ProjectNumber,
	}

	if sel.Repository != "" {
		owner, repo, err := splitRepository(sel.Repository)
		if err != nil {
			return models.GitHubCredentials{}, err
		}
		creds.Owner = owner
		creds.Repo = repo
	}

	return creds, nil
}

// splitRepository parses an "owner/repo" value.
func splitRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apperr.Validationf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}
