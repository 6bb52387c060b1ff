package main

import (
	"context"
	"strconv"

	"github.com/calehh/ballot-app/crypto"
	"github.com/calehh/ballot-app/tx"
	"github.com/spf13/cobra"
)

var voteArgs txArguments

var voteCmd = &cobra.Command{
	Use:   "vote <proposal>",
	Short: "Vote for a proposal by index",
	Args:  cobra.ExactArgs(1),
	RunE:  voteRun,
}

func init() {
	txFlags(voteCmd, &voteArgs)
}

func voteRun(cmd *cobra.Command, args []string) error {
	proposal, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return err
	}
	pv, err := crypto.LoadFilePV(voteArgs.Skey)
	if err != nil {
		return err
	}
	ctx := context.Background()
	c, err := newBallotClient(ctx, voteArgs.Url, voteArgs.LogFile)
	if err != nil {
		return err
	}
	receipt, err := c.sendAndLog(ctx, pv, tx.BallotTxTypeVote, &tx.VoteTx{Proposal: proposal}, voteArgs.Nonce, voteArgs.Commit)
	if err != nil {
		return err
	}
	printJSON(receipt)
	return nil
}
