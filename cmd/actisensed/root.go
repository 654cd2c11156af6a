package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRootCommand builds the actisensed command tree: serve, enumerate,
// get-mode, and set-mode, each sharing the transport/log flag set.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "actisensed",
		Short:         "Host-side client for Actisense NGT-style gateway bridges",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newEnumerateCommand())
	root.AddCommand(newGetModeCommand())
	root.AddCommand(newSetModeCommand())
	return root
}
