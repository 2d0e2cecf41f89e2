package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vishals9711/task-crafter/internal/config"
	"github.com/vishals9711/task-crafter/internal/credentials"
	"github.com/vishals9711/task-crafter/internal/extraction"
	"github.com/vishals9711/task-crafter/internal/github"
	"github.com/vishals9711/task-crafter/internal/llm"
	"github.com/vishals9711/task-crafter/internal/logging"
	"github.com/vishals9711/task-crafter/pkg/models"
)

var publishCmd = &cobra.Command{
	Use:   "publish [text]",
	Short: "Extract a task breakdown and file it as GitHub issues",
	Long: `Extract a main task and subtasks from free-form text, then create one
GitHub issue for the main task and one per subtask, each referencing the
main issue. Credentials come from GITHUB_TOKEN and --repository.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.ValidateOpenAIConfig(cfg); err != nil {
			return err
		}

		repository, err := cmd.Flags().GetString("repository")
		if err != nil {
			return err
		}
		if repository == "" {
			return fmt.Errorf("--repository is required (e.g., 'username/repo')")
		}

		text, err := inputText(cmd, args)
		if err != nil {
			return err
		}

		detail, err := cmd.Flags().GetString("detail")
		if err != nil {
			return err
		}
		level, err := models.ParseDetailLevel(detail)
		if err != nil {
			return err
		}

		svc := extraction.NewService(llm.NewClient(cfg.OpenAI))
		extracted := svc.Extract(cmd.Context(), text, level)
		if !extracted.Success {
			return fmt.Errorf("extraction failed: %s", extracted.Error)
		}

		logging.Info("extracted task breakdown",
			"title", extracted.MainTask.Title,
			"subtasks", len(extracted.MainTask.Subtasks))

		resolver := credentials.NewResolver(nil)
		creds, err := resolver.Resolve(credentials.ModeOAuth, models.GitHubCredentials{}, cfg.GitHub.Token, credentials.Selection{
			Repository: repository,
		})
		if err != nil {
			return err
		}

		client, err := github.NewClient(creds.Token)
		if err != nil {
			return fmt.Errorf("failed to initialize GitHub client: %w", err)
		}

		result := github.NewPublisher(client).Publish(cmd.Context(), extracted.MainTask, creds)
		if !result.Success {
			return fmt.Errorf("issue creation failed: %s", result.Error)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Main issue: %s\n", result.MainIssueURL)
		for _, outcome := range result.Subtasks {
			if outcome.Status == models.OutcomeCreated {
				fmt.Fprintf(cmd.OutOrStdout(), "Subtask:    %s\n", outcome.URL)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Subtask:    %s FAILED (%s)\n", outcome.Title, outcome.Error)
			}
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().StringP("repository", "r", "", "GitHub repository name (e.g., 'username/repo')")
	publishCmd.Flags().StringP("file", "f", "", "Read input text from a file")
}
