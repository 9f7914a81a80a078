// Package askcmder provides the ask command for querying documents through a
// running lectern API server.
package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/docstackco/lectern/api"
	"github.com/docstackco/lectern/pkg/cliui"
	"github.com/docstackco/lectern/pkg/config"
)

type askCommander struct {
	question   string
	unfiltered bool
	plain      bool

	apiTarget string
}

const askLongDesc string = `Ask a question over uploaded documents.

The question is answered using the most relevant document chunks as context.
By default low-relevance chunks are filtered out and generation runs under a
deadline; pass --unfiltered to use the exploratory flow, which considers all
retrieved chunks and waits for a full answer.

Examples:
  lectern ask "what is the leave policy?"
  lectern ask "summarize the handbook" --unfiltered
  lectern ask "what changed in v2?" --api-target http://localhost:8080`

const askShortDesc string = "Ask a question over uploaded documents"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
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
			cmder.question = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().BoolVar(&cmder.unfiltered, "unfiltered", false, "Use all retrieved chunks without relevance filtering")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print the raw answer without markdown rendering")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Lectern API server URL")

	return cmd
}

func (c *askCommander) run() error {
	result, err := askAPI(c.apiTarget, c.question, c.unfiltered)
	if err != nil {
		return err
	}

	if c.plain {
		fmt.Println(result.Answer)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(result.Answer)
	if err != nil {
		fmt.Println(result.Answer)
		return nil
	}

	fmt.Print(rendered)
	return nil
}

func askAPI(apiTarget, question string, unfiltered bool) (*api.AskResponse, error) {
	var (
		req *http.Request
		err error
	)

	if unfiltered {
		askURL, parseErr := url.Parse(apiTarget)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid API target URL: %w", parseErr)
		}
		askURL.Path = "/api/query/ask"
		q := askURL.Query()
		q.Set("question", question)
		askURL.RawQuery = q.Encode()

		req, err = http.NewRequestWithContext(context.Background(), http.MethodGet, askURL.String(), nil)
	} else {
		payload, marshalErr := json.Marshal(api.AskRequest{Question: question})
		if marshalErr != nil {
			return nil, fmt.Errorf("encoding question: %w", marshalErr)
		}

		req, err = http.NewRequestWithContext(context.Background(), http.MethodPost,
			apiTarget+"/api/rag/ask", bytes.NewReader(payload))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("creating ask request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to lectern API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if jsonErr := json.Unmarshal(raw, &errResp); jsonErr == nil && errResp.Error != "" {
			return nil, fmt.Errorf("ask request failed (HTTP %d): %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("ask request failed (HTTP %d): %s", resp.StatusCode, string(raw))
	}

	var result api.AskResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ask response: %w", err)
	}

	return &result, nil
}
