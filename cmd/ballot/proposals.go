package main

import (
	"context"

	"github.com/calehh/ballot-app/types"
	"github.com/spf13/cobra"
)

var proposalsArgs queryArguments

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List every proposal with its vote count",
	RunE:  proposalsRun,
}

func init() {
	urlFlag(proposalsCmd, &proposalsArgs.Url)
	logFileFlag(proposalsCmd, &proposalsArgs.LogFile)
}

func proposalsRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := newBallotClient(ctx, proposalsArgs.Url, proposalsArgs.LogFile)
	if err != nil {
		return err
	}
	var proposals []types.ProposalInfo
	if err := c.query(ctx, types.QueryProposals, nil, &proposals); err != nil {
		return err
	}
	var chair types.ChairpersonInfo
	if err := c.query(ctx, types.QueryChairperson, nil, &chair); err != nil {
		return err
	}
	printJSON(map[string]any{
		"chairperson": chair.Chairperson,
		"proposals":   proposals,
	})
	return nil
}
