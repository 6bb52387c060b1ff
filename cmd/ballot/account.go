package main

import (
	"context"
	"fmt"

	"github.com/calehh/ballot-app/crypto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
	Skey    string
	LogFile string
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the voting record and nonce of an address",
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	skeyFlag(accountCmd, &accountArgs.Skey)
	logFileFlag(accountCmd, &accountArgs.LogFile)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "voter address, defaults to the key file address")
}

func accountRun(cmd *cobra.Command, args []string) error {
	var addr common.Address
	if accountArgs.Address != "" {
		if !common.IsHexAddress(accountArgs.Address) {
			return fmt.Errorf("invalid address %q", accountArgs.Address)
		}
		addr = common.HexToAddress(accountArgs.Address)
	} else {
		pv, err := crypto.LoadFilePV(accountArgs.Skey)
		if err != nil {
			return err
		}
		addr = pv.Address()
	}
	ctx := context.Background()
	c, err := newBallotClient(ctx, accountArgs.Url, accountArgs.LogFile)
	if err != nil {
		return err
	}
	info, err := c.voter(ctx, addr)
	if err != nil {
		return err
	}
	printJSON(info)
	return nil
}
