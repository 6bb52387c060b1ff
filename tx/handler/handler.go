package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

// TxHandler applies one ballot tx type. Check validates against a state
// without changing it; Prepare and Process apply the tx to st.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ResponseCheckTx, err error)
	Prepare(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error)
}

func checkResult(err error) *abcitypes.ResponseCheckTx {
	res := &abcitypes.ResponseCheckTx{Code: 0}
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
	}
	return res
}
