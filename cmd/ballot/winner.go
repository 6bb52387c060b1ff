package main

import (
	"context"

	"github.com/calehh/ballot-app/types"
	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url     string
	LogFile string
}

var winnerArgs queryArguments

var winnerCmd = &cobra.Command{
	Use:   "winner",
	Short: "Show the currently winning proposal",
	RunE:  winnerRun,
}

func init() {
	urlFlag(winnerCmd, &winnerArgs.Url)
	logFileFlag(winnerCmd, &winnerArgs.LogFile)
}

func winnerRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := newBallotClient(ctx, winnerArgs.Url, winnerArgs.LogFile)
	if err != nil {
		return err
	}
	var winner types.ProposalInfo
	if err := c.query(ctx, types.QueryWinner, nil, &winner); err != nil {
		return err
	}
	c.alog.Writef("WINNING PROPOSAL NAME", winner.Name)
	printJSON(winner)
	return nil
}
