package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vishals9711/task-crafter/internal/config"
	"github.com/vishals9711/task-crafter/internal/extraction"
	"github.com/vishals9711/task-crafter/internal/llm"
	"github.com/vishals9711/task-crafter/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract a task breakdown from text",
	Long: `Extract a main task and subtasks from free-form text. The text is
taken from the argument, from --file, or from stdin. The breakdown is
printed as markdown, or as JSON with --json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.ValidateOpenAIConfig(cfg); err != nil {
			return err
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
		result := svc.Extract(cmd.Context(), text, level)
		if !result.Success {
			return fmt.Errorf("extraction failed: %s", result.Error)
		}

		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		if asJSON {
			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), result.MainTask.Markdown())
		return nil
	},
}

// inputText reads the extraction input from the first argument, the
// --file flag, or stdin, in that order.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return "", err
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	extractCmd.Flags().StringP("file", "f", "", "Read input text from a file")
	extractCmd.Flags().Bool("json", false, "Print the breakdown as JSON")
}
