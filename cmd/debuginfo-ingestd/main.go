// Command debuginfo-ingestd runs the upload-coordination control plane: the
// HTTP service that decides whether a build ID's debug information needs to
// be uploaded, tracks in-flight uploads, and streams accepted uploads into
// an object bucket.
package main

import (
	"fmt"
	"os"

	"github.com/parca-dev/debuginfo-ingest/cmd/debuginfo-ingestd/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
