package main

import (
	"context"
	"fmt"

	"github.com/calehh/ballot-app/crypto"
	"github.com/calehh/ballot-app/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var grantArgs txArguments

var grantCmd = &cobra.Command{
	Use:   "grant <address>...",
	Short: "Give voters the right to vote, signed by the chairperson",
	Args:  cobra.MinimumNArgs(1),
	RunE:  grantRun,
}

func init() {
	txFlags(grantCmd, &grantArgs)
}

func parseAddresses(args []string) (addrs []common.Address, err error) {
	for _, a := range args {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("invalid address %q", a)
		}
		addrs = append(addrs, common.HexToAddress(a))
	}
	return
}

func grantRun(cmd *cobra.Command, args []string) error {
	voters, err := parseAddresses(args)
	if err != nil {
		return err
	}
	pv, err := crypto.LoadFilePV(grantArgs.Skey)
	if err != nil {
		return err
	}
	ctx := context.Background()
	c, err := newBallotClient(ctx, grantArgs.Url, grantArgs.LogFile)
	if err != nil {
		return err
	}
	receipt, err := c.sendAndLog(ctx, pv, tx.BallotTxTypeGrant, &tx.GrantTx{Voters: voters}, grantArgs.Nonce, grantArgs.Commit)
	if err != nil {
		return err
	}
	printJSON(receipt)
	return nil
}
