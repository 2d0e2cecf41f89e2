// Package server exposes the task extraction and issue creation
// pipeline over HTTP.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/vishals9711/task-crafter/internal/config"
	"github.com/vishals9711/task-crafter/internal/credentials"
	"github.com/vishals9711/task-crafter/internal/extraction"
	"github.com/vishals9711/task-crafter/internal/tokenstore"
	"github.com/vishals9711/task-crafter/internal/usage"
)

// Server wires the pipeline components to the HTTP routes.
type Server struct {
	router       *gin.Engine
	cfg          *config.Config
	extraction   *extraction.Service
	coordinators *extraction.Registry
	resolver     *credentials.Resolver
	tokens       *tokenstore.Store
	usage        *usage.Counter
	oauth        *oauth2.Config
}

// New creates a server over the given components and registers routes.
func New(cfg *config.Config, svc *extraction.Service, tokens *tokenstore.Store, counter *usage.Counter) *Server {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		router:       router,
		cfg:          cfg,
		extraction:   svc,
		coordinators: extraction.NewRegistry(),
		resolver:     credentials.NewResolver(tokens),
		tokens:       tokens,
		usage:        counter,
		oauth: &oauth2.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  cfg.GitHub.RedirectURL,
			Scopes:       []string{"repo", "project", "read:org"},
			Endpoint:     githuboauth.Endpoint,
		},
	}

	api := router.Group("/api")
	{
		api.POST("/extract-tasks", s.handleExtractTasks)
		api.POST("/create-github-issues", s.handleCreateIssues)
		api.GET("/usage", s.handleUsage)

		gh := api.Group("/github")
		{
			gh.GET("/repos", s.handleListRepos)
			gh.GET("/orgs", s.handleListOrgs)
			gh.GET("/projects", s.handleListProjects)
			gh.GET("/check-auth", s.handleCheckAuth)
			gh.GET("/login", s.handleLogin)
			gh.GET("/callback", s.handleCallback)
			gh.POST("/exchange-token", s.handleExchangeToken)
			gh.POST("/logout", s.handleLogout)
		}
	}

	return s
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the underlying gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
