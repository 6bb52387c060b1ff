package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calehh/ballot-app/actionlog"
	"github.com/calehh/ballot-app/crypto"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/ethereum/go-ethereum/common"
)

var ErrTxRejected = errors.New("tx rejected")

type ballotClient struct {
	cli     *http.HTTP
	chainId string
	alog    *actionlog.Log
}

func newBallotClient(ctx context.Context, url string, logFile string) (c *ballotClient, err error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain genesis: %w", err)
	}
	alog, err := actionlog.Open(logFile, cmtlog.NewNopLogger())
	if err != nil {
		return nil, err
	}
	return &ballotClient{
		cli:     cli,
		chainId: gres.Genesis.ChainID,
		alog:    alog,
	}, nil
}

func (c *ballotClient) query(ctx context.Context, path string, data []byte, v any) error {
	res, err := c.cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return fmt.Errorf("query %s: %w", path, err)
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("query %s: code %d: %s", path, res.Response.Code, res.Response.Log)
	}
	return json.Unmarshal(res.Response.Value, v)
}

func (c *ballotClient) voter(ctx context.Context, addr common.Address) (info types.VoterInfo, err error) {
	err = c.query(ctx, types.QueryVoters, addr.Bytes(), &info)
	return
}

type txReceipt struct {
	Hash   string `json:"hash"`
	Type   string `json:"type"`
	Caller string `json:"caller"`
	Nonce  uint64 `json:"nonce"`
	Height int64  `json:"height,omitempty"`
}

// send signs body with pv and broadcasts it. A negative nonce is replaced
// by the signer's stored nonce.
func (c *ballotClient) send(ctx context.Context, pv *crypto.PV, tp tx.BallotTxType, body any, nonce int64, commit bool) (receipt *txReceipt, err error) {
	if nonce < 0 {
		info, err := c.voter(ctx, pv.Address())
		if err != nil {
			return nil, err
		}
		nonce = int64(info.Nonce)
	}
	btx := &tx.BallotTx{
		Version: tx.BallotTxVersion1,
		Type:    tp,
		Nonce:   uint64(nonce),
		Tx:      body,
	}
	if err = btx.Sign(c.chainId, pv); err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalBallotTx(btx)
	if err != nil {
		return nil, err
	}
	receipt = &txReceipt{
		Type:   tp.String(),
		Caller: pv.Address().Hex(),
		Nonce:  btx.Nonce,
	}
	if commit {
		res, err := c.cli.BroadcastTxCommit(ctx, dat)
		if err != nil {
			return nil, fmt.Errorf("broadcast tx: %w", err)
		}
		receipt.Hash = res.Hash.String()
		if res.CheckTx.Code != 0 {
			return receipt, fmt.Errorf("%w: %s", ErrTxRejected, res.CheckTx.Log)
		}
		if res.TxResult.Code != 0 {
			return receipt, fmt.Errorf("%w: %s", ErrTxRejected, res.TxResult.Log)
		}
		receipt.Height = res.Height
		return receipt, nil
	}
	res, err := c.cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return nil, fmt.Errorf("broadcast tx: %w", err)
	}
	receipt.Hash = res.Hash.String()
	if res.Code != 0 {
		return receipt, fmt.Errorf("%w: %s", ErrTxRejected, res.Log)
	}
	return receipt, nil
}

// sendAndLog records the outcome of send in the action log.
func (c *ballotClient) sendAndLog(ctx context.Context, pv *crypto.PV, tp tx.BallotTxType, body any, nonce int64, commit bool) (*txReceipt, error) {
	c.alog.Writef(tp.String(), body)
	receipt, err := c.send(ctx, pv, tp, body, nonce, commit)
	if err != nil {
		c.alog.Writef("error", map[string]string{"type": tp.String(), "reason": err.Error()})
		return receipt, err
	}
	c.alog.Writef("receipt", receipt)
	return receipt, nil
}

func printJSON(v any) {
	dat, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(dat))
}
