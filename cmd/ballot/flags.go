package main

import (
	"github.com/calehh/ballot-app/actionlog"
	"github.com/calehh/ballot-app/types"
	"github.com/spf13/cobra"
)

const DefaultKeyPath = "./config/priv_validator_key.json"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "ballot node rpc url")
}

func skeyFlag(cmd *cobra.Command, skey *string) {
	cmd.Flags().StringVarP(skey, "skeyPath", "s", DefaultKeyPath, "private key path")
}

func logFileFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVar(path, types.FlagLogFile, actionlog.DefaultPath, "action log file")
}

type txArguments struct {
	Url     string
	Skey    string
	Nonce   int64
	Commit  bool
	LogFile string
}

func txFlags(cmd *cobra.Command, a *txArguments) {
	urlFlag(cmd, &a.Url)
	skeyFlag(cmd, &a.Skey)
	logFileFlag(cmd, &a.LogFile)
	cmd.Flags().Int64VarP(&a.Nonce, "nonce", "n", -1, "tx nonce, queried from the node when negative")
	cmd.Flags().BoolVar(&a.Commit, "commit", false, "wait until the tx is included in a block")
}
