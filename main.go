package main

import (
	// Embed the IANA database so timezone lookups work on minimal images.
	_ "time/tzdata"

	"github.com/teemow/ticktick-mcp/cmd"
)

// version will be set by goreleaser during build
var version = "dev"

func main() {
	// Set the version from build-time variable
	cmd.SetVersion(version)

	// Execute the root command
	cmd.Execute()
}
