package main

import (
	"os"

	servecmder "github.com/docstackco/lectern/cmd/lectern/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "lecternapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml (default: ./.lectern or ~/.lectern)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
