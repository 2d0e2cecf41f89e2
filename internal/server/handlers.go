package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vishals9711/task-crafter/internal/apperr"
	"github.com/vishals9711/task-crafter/internal/config"
	"github.com/vishals9711/task-crafter/internal/credentials"
	"github.com/vishals9711/task-crafter/internal/extraction"
	"github.com/vishals9711/task-crafter/internal/github"
	"github.com/vishals9711/task-crafter/internal/logging"
	"github.com/vishals9711/task-crafter/pkg/models"
)

// extractionTimeout bounds LLM latency per request.
const extractionTimeout = 2 * time.Minute

const (
	tokenCookie = "github_token"
	stateCookie = "oauth_state"
)

type extractRequest struct {
	Text        string `json:"text"`
	DetailLevel string `json:"detailLevel"`

	// ClientID lets unauthenticated callers opt into supersession of
	// their own resubmissions.
	ClientID string `json:"clientId"`
}

func (s *Server) handleExtractTasks(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	level, err := models.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": extraction.ErrTextRequired})
		return
	}

	token := tokenFromRequest(c)
	if token == "" && s.usage.ReachedLimit() {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You have reached the maximum number of free extractions. Please login with GitHub to continue.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), extractionTimeout)
	defer cancel()

	// Supersession is scoped to one client, keyed by session token or the
	// client-supplied id. Requests carrying neither are never superseded.
	var (
		coord *extraction.Coordinator
		gen   uint64
	)
	if key := coordinatorKey(token, req.ClientID); key != "" {
		coord = s.coordinators.For(key)
		ctx, gen = coord.Begin(ctx)
	}

	result := s.extraction.Extract(ctx, req.Text, level)

	// A result from a superseded request must not reach visible state.
	if coord != nil && !coord.Apply(gen) {
		c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer request"})
		return
	}

	if result.Success && token == "" {
		s.usage.Increment()
	}

	c.JSON(http.StatusOK, result)
}

type createIssuesRequest struct {
	Task               models.Task               `json:"task"`
	Mode               credentials.Mode          `json:"mode"`
	Credentials        models.GitHubCredentials  `json:"credentials"`
	Selection          credentials.Selection     `json:"selection"`
	StrictProjectLinks bool                      `json:"strictProjectLinks"`
}

func (s *Server) handleCreateIssues(c *gin.Context) {
	var req createIssuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Task.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task and GitHub credentials are required"})
		return
	}

	resolved, err := s.resolver.Resolve(req.Mode, req.Credentials, tokenFromRequest(c), req.Selection)
	if err != nil {
		writeResolveError(c, err)
		return
	}

	client, err := github.NewClient(resolved.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize GitHub client"})
		return
	}

	publisher := github.NewPublisher(client)
	if req.StrictProjectLinks {
		publisher.SetLinkPolicy(github.LinkStrict)
	}

	result := publisher.Publish(c.Request.Context(), req.Task, resolved)
	c.JSON(http.StatusOK, result)
}

func writeResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrAuth), errors.Is(err, apperr.ErrCrypto):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		logging.Error("credential resolution failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (s *Server) handleUsage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count":        s.usage.Count(),
		"remaining":    s.usage.Remaining(),
		"reachedLimit": s.usage.ReachedLimit(),
	})
}

func (s *Server) handleListRepos(c *gin.Context) {
	client, ok := s.githubClientFor(c)
	if !ok {
		return
	}

	repos, err := client.ListRepositories(c.Request.Context())
	if err != nil {
		writeGitHubError(c, err, "Failed to fetch repositories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"repos": repos})
}

func (s *Server) handleListOrgs(c *gin.Context) {
	client, ok := s.githubClientFor(c)
	if !ok {
		return
	}

	orgs, err := client.ListOrganizations(c.Request.Context())
	if err != nil {
		writeGitHubError(c, err, "Failed to fetch organizations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orgs": orgs})
}

func (s *Server) handleListProjects(c *gin.Context) {
	client, ok := s.githubClientFor(c)
	if !ok {
		return
	}

	owner := c.Query("owner")
	repo := c.Query("repo")
	if owner == "" || repo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Owner and repo parameters are required"})
		return
	}

	projects, err := client.ListRepositoryProjects(c.Request.Context(), owner, repo)
	if err != nil {
		writeGitHubError(c, err, "Failed to fetch projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) handleCheckAuth(c *gin.Context) {
	token := tokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	client, err := github.NewClient(token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	login, err := client.CheckAuth(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrAuth) {
			c.JSON(http.StatusOK, gin.H{"authenticated": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify GitHub authentication"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": true, "login": login})
}

func (s *Server) handleLogin(c *gin.Context) {
	if err := config.ValidateOAuthConfig(s.cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "GitHub OAuth is not configured"})
		return
	}

	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	c.SetCookie(stateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state))
}

func (s *Server) handleCallback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing oauth code"})
		return
	}

	token, err := s.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		logging.Error("oauth code exchange failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to exchange oauth code"})
		return
	}

	if err := s.tokens.Save(token.AccessToken); err != nil {
		logging.Error("failed to persist github token", "error", err)
	}
	if err := s.usage.Reset(); err != nil {
		logging.Warn("failed to reset usage counter after login", "error", err)
	}

	c.SetCookie(tokenCookie, token.AccessToken, 0, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

type exchangeTokenRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleExchangeToken(c *gin.Context) {
	var req exchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	token, err := s.oauth.Exchange(c.Request.Context(), req.Code)
	if err != nil {
		logging.Error("oauth code exchange failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to exchange oauth code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token.AccessToken})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.tokens.Clear(); err != nil {
		logging.Warn("failed to clear stored github token", "error", err)
	}
	c.SetCookie(tokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"loggedOut": true})
}

// githubClientFor builds a client from the request's token, writing the
// 401 response itself when no token is present.
func (s *Server) githubClientFor(c *gin.Context) (*github.Client, bool) {
	token := tokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated with GitHub"})
		return nil, false
	}
	client, err := github.NewClient(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize GitHub client"})
		return nil, false
	}
	return client, true
}

// coordinatorKey picks the supersession scope for an extraction
// request. Prefixes keep token and client id key spaces apart.
func coordinatorKey(token, clientID string) string {
	if token != "" {
		return "token:" + token
	}
	if clientID != "" {
		return "client:" + clientID
	}
	return ""
}

// tokenFromRequest extracts the GitHub token from the Authorization
// header (Bearer) or the session cookie.
func tokenFromRequest(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if token, err := c.Cookie(tokenCookie); err == nil {
		return token
	}
	return ""
}

// writeGitHubError maps client errors to HTTP responses. A stale token
// gets an explicit re-login message.
func writeGitHubError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, apperr.ErrAuth) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "GitHub token rejected, please log in again"})
		return
	}
	logging.Error(fallback, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
