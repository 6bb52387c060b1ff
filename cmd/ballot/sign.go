package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/calehh/ballot-app/crypto"
	"github.com/spf13/cobra"
)

type signArguments struct {
	Skey string
}

var signArgs signArguments

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with a key file",
	Args:  cobra.ExactArgs(1),
	RunE:  signRun,
}

func init() {
	skeyFlag(signCmd, &signArgs.Skey)
}

func signRun(cmd *cobra.Command, args []string) error {
	pv, err := crypto.LoadFilePV(signArgs.Skey)
	if err != nil {
		return err
	}
	sig, err := pv.Sign([]byte(args[0]))
	if err != nil {
		return fmt.Errorf("sign message: %w", err)
	}
	fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	fmt.Println("address:", pv.Address().Hex())
	fmt.Println("signature base64:", base64.StdEncoding.EncodeToString(sig))
	fmt.Println("signature:", hex.EncodeToString(sig))
	return nil
}
