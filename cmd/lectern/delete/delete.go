// Package deletecmder provides the delete command for removing documents from
// a running lectern API server.
package deletecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/docstackco/lectern/api"
	"github.com/docstackco/lectern/pkg/cliui"
	"github.com/docstackco/lectern/pkg/config"
)

type deleteCommander struct {
	filename  string
	apiTarget string
}

const deleteLongDesc string = `Remove an uploaded document.

Deletes every stored chunk attributed to the given filename, along with its
upload history record. Deletion discovers chunks through similarity probes,
so a document whose content is unusual may leave chunks behind; re-running
the command is safe.

Examples:
  lectern delete handbook.pdf
  lectern delete notes.txt --api-target http://localhost:8080`

const deleteShortDesc string = "Remove an uploaded document"

func NewDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}

	cmd := &cobra.Command{
		Use:   "delete <filename>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.filename = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Lectern API server URL")

	return cmd
}

func (c *deleteCommander) run() error {
	var result api.DeleteResponse
	err := cliui.Step(os.Stdout, fmt.Sprintf("Deleting %s", c.filename), func() error {
		var err error
		result, err = deleteDocument(c.apiTarget, c.filename)
		return err
	})
	if err != nil {
		return err
	}

	if result.DeletedChunks == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No stored chunks matched that filename."))
		return nil
	}

	fmt.Printf("\n  %s Removed %d chunks for %s\n\n",
		cliui.SuccessMark,
		result.DeletedChunks,
		cliui.KeyStyle.Render(result.Filename),
	)
	return nil
}

func deleteDocument(apiTarget, filename string) (api.DeleteResponse, error) {
	var result api.DeleteResponse

	deleteURL, err := url.Parse(apiTarget)
	if err != nil {
		return result, fmt.Errorf("invalid API target URL: %w", err)
	}
	deleteURL.Path = "/api/rag/delete"
	q := deleteURL.Query()
	q.Set("filename", filename)
	deleteURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, deleteURL.String(), nil)
	if err != nil {
		return result, fmt.Errorf("creating delete request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("failed to connect to lectern API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if jsonErr := json.Unmarshal(raw, &errResp); jsonErr == nil && errResp.Error != "" {
			return result, fmt.Errorf("delete request failed (HTTP %d): %s", resp.StatusCode, errResp.Error)
		}
		return result, fmt.Errorf("delete request failed (HTTP %d): %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("failed to parse delete response: %w", err)
	}

	return result, nil
}
