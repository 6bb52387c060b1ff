package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type GrantTxHandler struct {
	logger cmtlog.Logger
}

func NewGrantTxHandler(logger cmtlog.Logger) (h *GrantTxHandler) {
	logger = logger.With("module", "grantTx")
	h = &GrantTxHandler{
		logger: logger,
	}
	return
}

func (h *GrantTxHandler) Check(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ResponseCheckTx, err error) {
	gtx := btx.Tx.(*tx.GrantTx)
	_, err1 := st.GrantRightToVote(btx.Caller(), gtx.Voters, true)
	if err1 != nil {
		h.logger.Info("CheckTx GrantTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *GrantTxHandler) handle(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	gtx := btx.Tx.(*tx.GrantTx)
	events, err := st.GrantRightToVote(btx.Caller(), gtx.Voters, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	for _, event := range events {
		res.Events = append(res.Events, types.EncodeEventGrantRight(event))
	}
	return
}

func (h *GrantTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *GrantTxHandler) Process(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
