package main

import (
	"fmt"
	"os"
)

func main() {
	clCmd.AddCommand(initCmd)
	clCmd.AddCommand(versionCmd)
	clCmd.AddCommand(pubkeyCmd)
	clCmd.AddCommand(signCmd)
	clCmd.AddCommand(accountCmd)
	clCmd.AddCommand(grantCmd)
	clCmd.AddCommand(voteCmd)
	clCmd.AddCommand(delegateCmd)
	clCmd.AddCommand(winnerCmd)
	clCmd.AddCommand(proposalsCmd)
	clCmd.AddCommand(setupCmd)
	if err := clCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
