package main

import (
	"context"

	"github.com/calehh/ballot-app/crypto"
	"github.com/calehh/ballot-app/tx"
	"github.com/spf13/cobra"
)

var delegateArgs txArguments

var delegateCmd = &cobra.Command{
	Use:   "delegate <address>",
	Short: "Delegate the vote to another voter",
	Args:  cobra.ExactArgs(1),
	RunE:  delegateRun,
}

func init() {
	txFlags(delegateCmd, &delegateArgs)
}

func delegateRun(cmd *cobra.Command, args []string) error {
	to, err := parseAddresses(args)
	if err != nil {
		return err
	}
	pv, err := crypto.LoadFilePV(delegateArgs.Skey)
	if err != nil {
		return err
	}
	ctx := context.Background()
	c, err := newBallotClient(ctx, delegateArgs.Url, delegateArgs.LogFile)
	if err != nil {
		return err
	}
	receipt, err := c.sendAndLog(ctx, pv, tx.BallotTxTypeDelegate, &tx.DelegateTx{To: to[0]}, delegateArgs.Nonce, delegateArgs.Commit)
	if err != nil {
		return err
	}
	printJSON(receipt)
	return nil
}
