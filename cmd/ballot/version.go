package main

import (
	"github.com/calehh/ballot-app/app"
	cmtversion "github.com/cometbft/cometbft/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the node, state machine and CometBFT versions",
	Aliases: []string{"V"},
	Run:     versionRun,
}

func versionRun(cmd *cobra.Command, args []string) {
	printJSON(map[string]any{
		"version":    app.VersionWithCommit(),
		"appVersion": app.AppVersion,
		"cometbft":   cmtversion.TMCoreSemVer,
		"abci":       cmtversion.ABCISemVer,
	})
}
