package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/calehh/ballot-app/crypto"
	"github.com/calehh/ballot-app/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type setupArguments struct {
	txArguments
	Num int
	Dir string
}

var setupArgs setupArguments

var setupCmd = &cobra.Command{
	Use:   "setup-accounts",
	Short: "Create voter keys and give each the right to vote",
	Long: `Create --num new key files under --dir, then grant every new address
the right to vote in one chairperson-signed tx and wait for its commit.`,
	RunE: setupRun,
}

func init() {
	txFlags(setupCmd, &setupArgs.txArguments)
	setupCmd.Flags().IntVar(&setupArgs.Num, "num", 10, "number of accounts")
	setupCmd.Flags().StringVar(&setupArgs.Dir, "dir", "accounts", "directory for the new key files")
}

type setupAccount struct {
	Address string `json:"address"`
	PubKey  string `json:"pubkey"`
	KeyFile string `json:"keyFile"`
}

func setupRun(cmd *cobra.Command, args []string) error {
	if setupArgs.Num <= 0 {
		return fmt.Errorf("invalid account number %d", setupArgs.Num)
	}
	chair, err := crypto.LoadFilePV(setupArgs.Skey)
	if err != nil {
		return err
	}
	ctx := context.Background()
	c, err := newBallotClient(ctx, setupArgs.Url, setupArgs.LogFile)
	if err != nil {
		return err
	}

	accounts := make([]setupAccount, 0, setupArgs.Num)
	voters := make([]common.Address, 0, setupArgs.Num)
	for i := 0; i < setupArgs.Num; i++ {
		keyFile := filepath.Join(setupArgs.Dir, fmt.Sprintf("account%d.json", i))
		pv, err := crypto.GenFilePV(keyFile)
		if err != nil {
			return fmt.Errorf("create account %d: %w", i, err)
		}
		acc := setupAccount{
			Address: pv.Address().Hex(),
			PubKey:  hex.EncodeToString(pv.PublicKey()),
			KeyFile: keyFile,
		}
		c.alog.Writef("account", acc)
		accounts = append(accounts, acc)
		voters = append(voters, pv.Address())
	}

	receipt, err := c.sendAndLog(ctx, chair, tx.BallotTxTypeGrant, &tx.GrantTx{Voters: voters}, setupArgs.Nonce, true)
	if err != nil {
		return err
	}
	c.alog.Separator()
	printJSON(map[string]any{
		"accounts": accounts,
		"receipt":  receipt,
	})
	return nil
}
