// Package lecterncmder
package lecterncmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/docstackco/lectern/cmd/lectern/ask"
	configcmder "github.com/docstackco/lectern/cmd/lectern/config"
	deletecmder "github.com/docstackco/lectern/cmd/lectern/delete"
	servecmder "github.com/docstackco/lectern/cmd/lectern/serve"
	statuscmder "github.com/docstackco/lectern/cmd/lectern/status"
	uploadcmder "github.com/docstackco/lectern/cmd/lectern/upload"
	versioncmder "github.com/docstackco/lectern/cmd/version"
)

const lecternLongDesc string = `Lectern answers questions over your own documents.

Run the server using:
  lectern serve            Run the API server

Work with documents using:
  lectern upload <file>    Upload a document for question answering
  lectern ask <question>   Ask a question over uploaded documents
  lectern status           Show what has been uploaded
  lectern delete <file>    Remove an uploaded document`

const lecternShortDesc string = "Lectern - Document Question Answering"

func NewLecternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lectern",
		Short: lecternShortDesc,
		Long:  lecternLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml (default: ./.lectern or ~/.lectern)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(uploadcmder.NewUploadCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(deletecmder.NewDeleteCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
