// Package statuscmder provides the status command for inspecting a running
// lectern API server.
package statuscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/docstackco/lectern/api"
	"github.com/docstackco/lectern/pkg/cliui"
	"github.com/docstackco/lectern/pkg/config"
	"github.com/docstackco/lectern/pkg/history"
)

type statusCommander struct {
	apiTarget string
}

const statusLongDesc string = `Show what has been uploaded to a running lectern API server.

Displays the overall document and chunk counts followed by the upload
history, newest first.

Examples:
  lectern status
  lectern status --api-target http://localhost:8080`

const statusShortDesc string = "Show uploaded documents"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("api-target") {
				return nil
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cmder.apiTarget = cfg.Client.APITarget
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Lectern API server URL")

	return cmd
}

type historyOutput struct {
	Count     int              `json:"count"`
	Documents []history.Record `json:"documents"`
}

func (c *statusCommander) run() error {
	var status api.StatusResponse
	if err := getJSON(c.apiTarget, "/api/rag/status", &status); err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n",
		cliui.KeyStyle.Render("Status:"),
		cliui.ValueStyle.Render(status.Status),
	)
	fmt.Printf("  %s %d documents, %d chunks\n\n",
		cliui.KeyStyle.Render("Stored:"),
		status.Documents,
		status.Chunks,
	)

	if status.Documents == 0 {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("No documents uploaded yet."))
		return nil
	}

	var hist historyOutput
	if err := getJSON(c.apiTarget, "/api/docs/history", &hist); err != nil {
		return err
	}

	for _, rec := range hist.Documents {
		fmt.Printf("  %s  %s  %s\n",
			cliui.ValueStyle.Render(rec.Filename),
			cliui.DimStyle.Render(fmt.Sprintf("%d chunks", rec.Chunks)),
			cliui.DimStyle.Render(rec.UploadedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	fmt.Println()

	return nil
}

func getJSON(apiTarget, path string, out any) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, apiTarget+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to lectern API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
