package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishals9711/task-crafter/internal/config"
	"github.com/vishals9711/task-crafter/internal/extraction"
	"github.com/vishals9711/task-crafter/internal/llm"
	"github.com/vishals9711/task-crafter/internal/tokenstore"
	"github.com/vishals9711/task-crafter/internal/usage"
	"github.com/vishals9711/task-crafter/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeExtractor is a scripted stand-in for the LLM client. When the
// started and release channels are set, each call announces itself and
// then blocks until release is closed or its context is cancelled.
type fakeExtractor struct {
	calls   atomic.Int32
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeExtractor) ExtractTasks(ctx context.Context, text string, level models.DetailLevel) (*llm.TaskBreakdown, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	b := &llm.TaskBreakdown{
		Subtasks: []llm.BreakdownSubtask{
			{Title: "Design form", Description: "Sketch the layout"},
			{Title: "Add OAuth", Description: "Wire up the provider"},
		},
	}
	b.MainTask.Title = "Build a login page"
	b.MainTask.Description = "Add authentication"
	return b, nil
}

func (f *fakeExtractor) callCount() int {
	return int(f.calls.Load())
}

func newTestServer(t *testing.T, freeLimit int) (*Server, *fakeExtractor, *usage.Counter) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", DataDir: dir},
		Usage:  config.UsageConfig{FreeExtractionLimit: freeLimit},
	}
	fake := &fakeExtractor{}
	counter := usage.NewCounter(dir, freeLimit)
	srv := New(cfg, extraction.NewService(fake), tokenstore.NewStore(dir), counter)
	return srv, fake, counter
}

func doJSON(srv *Server, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestExtractTasksRejectsEmptyText(t *testing.T) {
	srv, fake, _ := newTestServer(t, 5)

	w := doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "   ", "detailLevel": "medium"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Text is required")
	assert.Zero(t, fake.callCount(), "no LLM call may happen for empty text")
}

func TestExtractTasksRejectsUnknownDetailLevel(t *testing.T) {
	srv, fake, _ := newTestServer(t, 5)

	w := doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "build it", "detailLevel": "extreme"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, fake.callCount())
}

func TestExtractTasksSuccess(t *testing.T) {
	srv, fake, counter := newTestServer(t, 5)

	w := doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{
		"text":        "Build a login page\nAdd OAuth\nAdd password reset",
		"detailLevel": "medium",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fake.callCount())

	var result models.ExtractedTasks
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "Build a login page", result.MainTask.Title)
	require.Len(t, result.MainTask.Subtasks, 2)
	for _, st := range result.MainTask.Subtasks {
		assert.True(t, st.Selected)
		assert.NotEmpty(t, st.ID)
	}

	// Unauthenticated extractions consume the free budget.
	assert.Equal(t, 1, counter.Count())
}

func TestExtractTasksDefaultDetailLevel(t *testing.T) {
	srv, fake, _ := newTestServer(t, 5)

	w := doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "build it"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fake.callCount())
}

func TestExtractTasksUsageLimit(t *testing.T) {
	srv, fake, counter := newTestServer(t, 2)
	counter.Increment()
	counter.Increment()

	w := doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "build it"}, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "maximum number of free extractions")
	assert.Zero(t, fake.callCount())
}

func TestExtractTasksAuthenticatedBypassesLimit(t *testing.T) {
	srv, fake, counter := newTestServer(t, 1)
	counter.Increment()

	header := http.Header{}
	header.Set("Authorization", "Bearer some-token")
	w := doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "build it"}, header)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fake.callCount())
	// Authenticated extractions do not consume the budget.
	assert.Equal(t, 1, counter.Count())
}

func TestExtractTasksResubmissionSupersedes(t *testing.T) {
	srv, fake, _ := newTestServer(t, 5)
	fake.started = make(chan struct{}, 2)
	fake.release = make(chan struct{})

	header := http.Header{}
	header.Set("Authorization", "Bearer client-a")
	body := gin.H{"text": "build it"}

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- doJSON(srv, http.MethodPost, "/api/extract-tasks", body, header)
	}()
	<-fake.started

	// Same client resubmits while the first extraction is in flight.
	second := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		second <- doJSON(srv, http.MethodPost, "/api/extract-tasks", body, header)
	}()
	<-fake.started
	close(fake.release)

	assert.Equal(t, http.StatusConflict, (<-first).Code)
	assert.Equal(t, http.StatusOK, (<-second).Code)
}

func TestExtractTasksClientsDoNotSupersedeEachOther(t *testing.T) {
	srv, fake, _ := newTestServer(t, 5)
	fake.started = make(chan struct{}, 2)
	fake.release = make(chan struct{})

	headerA := http.Header{}
	headerA.Set("Authorization", "Bearer client-a")
	headerB := http.Header{}
	headerB.Set("Authorization", "Bearer client-b")

	a := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		a <- doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "build it"}, headerA)
	}()
	<-fake.started

	// An unrelated client's request arrives while A's is in flight.
	b := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		b <- doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "ship it"}, headerB)
	}()
	<-fake.started
	close(fake.release)

	wA, wB := <-a, <-b
	assert.Equal(t, http.StatusOK, wA.Code, "another client must not supersede this extraction: %s", wA.Body.String())
	assert.Equal(t, http.StatusOK, wB.Code)
}

func TestExtractTasksClientIDScopesResubmission(t *testing.T) {
	srv, fake, _ := newTestServer(t, 5)
	fake.started = make(chan struct{}, 2)
	fake.release = make(chan struct{})

	body := gin.H{"text": "build it", "clientId": "tab-1"}

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- doJSON(srv, http.MethodPost, "/api/extract-tasks", body, nil)
	}()
	<-fake.started

	second := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		second <- doJSON(srv, http.MethodPost, "/api/extract-tasks", body, nil)
	}()
	<-fake.started
	close(fake.release)

	assert.Equal(t, http.StatusConflict, (<-first).Code)
	assert.Equal(t, http.StatusOK, (<-second).Code)
}

func TestExtractTasksAnonymousRequestsAreNeverSuperseded(t *testing.T) {
	srv, fake, _ := newTestServer(t, 5)
	fake.started = make(chan struct{}, 2)
	fake.release = make(chan struct{})

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "build it"}, nil)
	}()
	<-fake.started

	second := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		second <- doJSON(srv, http.MethodPost, "/api/extract-tasks", gin.H{"text": "ship it"}, nil)
	}()
	<-fake.started
	close(fake.release)

	assert.Equal(t, http.StatusOK, (<-first).Code)
	assert.Equal(t, http.StatusOK, (<-second).Code)
}

func TestCreateIssuesRequiresTask(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	w := doJSON(srv, http.MethodPost, "/api/create-github-issues", gin.H{"task": gin.H{}}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Task and GitHub credentials are required")
}

func TestCreateIssuesManualValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	// Manual mode with an incomplete credential triple fails before any
	// network call is possible.
	w := doJSON(srv, http.MethodPost, "/api/create-github-issues", gin.H{
		"task":        gin.H{"id": "t1", "title": "Build a login page"},
		"mode":        "manual",
		"credentials": gin.H{"token": "", "owner": "octocat", "repo": ""},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "token, owner, and repo are required")
}

func TestCreateIssuesOAuthRequiresSelection(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	header := http.Header{}
	header.Set("Authorization", "Bearer session-token")
	w := doJSON(srv, http.MethodPost, "/api/create-github-issues", gin.H{
		"task": gin.H{"id": "t1", "title": "Build a login page"},
		"mode": "oauth",
	}, header)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "select either a repository or a project")
}

func TestCreateIssuesOAuthWithoutTokenAsksForLogin(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	w := doJSON(srv, http.MethodPost, "/api/create-github-issues", gin.H{
		"task":      gin.H{"id": "t1", "title": "Build a login page"},
		"mode":      "oauth",
		"selection": gin.H{"repository": "octocat/hello"},
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "log in again")
}

func TestListReposRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	w := doJSON(srv, http.MethodGet, "/api/github/repos", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Not authenticated with GitHub")
}

func TestListProjectsRequiresParameters(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	header := http.Header{}
	header.Set("Authorization", "Bearer some-token")
	w := doJSON(srv, http.MethodGet, "/api/github/projects", nil, header)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Owner and repo parameters are required")
}

func TestCheckAuthWithoutToken(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	w := doJSON(srv, http.MethodGet, "/api/github/check-auth", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["authenticated"])
}

func TestUsageEndpoint(t *testing.T) {
	srv, _, counter := newTestServer(t, 5)
	counter.Increment()

	w := doJSON(srv, http.MethodGet, "/api/usage", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count        int  `json:"count"`
		Remaining    int  `json:"remaining"`
		ReachedLimit bool `json:"reachedLimit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 4, resp.Remaining)
	assert.False(t, resp.ReachedLimit)
}

func TestLoginWithoutOAuthConfig(t *testing.T) {
	srv, _, _ := newTestServer(t, 5)

	w := doJSON(srv, http.MethodGet, "/api/github/login", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "GitHub OAuth is not configured")
}
