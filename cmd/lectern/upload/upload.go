// Package uploadcmder provides the upload command for sending documents to a
// running lectern API server.
package uploadcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docstackco/lectern/api"
	"github.com/docstackco/lectern/pkg/cliui"
	"github.com/docstackco/lectern/pkg/config"
)

type uploadCommander struct {
	filePath  string
	apiTarget string
}

const uploadLongDesc string = `Upload a document to a running lectern API server.

The document text is extracted, chunked, embedded, and stored in the vector
store so questions can be asked over it. Plain text and PDF files are
supported.

Examples:
  lectern upload handbook.pdf
  lectern upload notes.txt --api-target http://localhost:8080`

const uploadShortDesc string = "Upload a document"

func NewUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return resolveAPITarget(cmd, &cmder.apiTarget)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.filePath = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Lectern API server URL")

	return cmd
}

// resolveAPITarget fills target from config.toml when the --api-target flag
// was not set explicitly. Shared by all client commands in cmd/lectern.
func resolveAPITarget(cmd *cobra.Command, target *string) error {
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

	*target = cfg.Client.APITarget
	return nil
}

func (c *uploadCommander) run() error {
	filename := filepath.Base(c.filePath)

	var result api.UploadResponse
	err := cliui.Step(os.Stdout, fmt.Sprintf("Uploading %s", filename), func() error {
		var err error
		result, err = uploadFile(c.apiTarget, c.filePath)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s split into %d chunks\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(result.Filename),
		result.Chunks,
	)
	return nil
}

func uploadFile(apiTarget, filePath string) (api.UploadResponse, error) {
	var result api.UploadResponse

	file, err := os.Open(filePath)
	if err != nil {
		return result, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return result, fmt.Errorf("building upload request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return result, fmt.Errorf("reading %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return result, fmt.Errorf("building upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		apiTarget+"/api/rag/upload", &body)
	if err != nil {
		return result, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

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
		return result, apiError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("failed to parse upload response: %w", err)
	}

	return result, nil
}

// apiError turns a non-200 API response into a readable error, preferring
// the server's error message when the body parses.
func apiError(status int, raw []byte) error {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("request failed (HTTP %d): %s", status, errResp.Error)
	}
	return fmt.Errorf("request failed (HTTP %d): %s", status, string(raw))
}
