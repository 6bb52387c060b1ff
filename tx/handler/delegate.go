package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type DelegateTxHandler struct {
	logger cmtlog.Logger
}

func NewDelegateTxHandler(logger cmtlog.Logger) (h *DelegateTxHandler) {
	logger = logger.With("module", "delegateTx")
	h = &DelegateTxHandler{
		logger: logger,
	}
	return
}

func (h *DelegateTxHandler) Check(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ResponseCheckTx, err error) {
	dtx := btx.Tx.(*tx.DelegateTx)
	_, err1 := st.Delegate(btx.Caller(), dtx.To, true)
	if err1 != nil {
		h.logger.Info("CheckTx DelegateTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *DelegateTxHandler) handle(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	dtx := btx.Tx.(*tx.DelegateTx)
	event, err := st.Delegate(btx.Caller(), dtx.To, false)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("delegated", "voter", event.Voter.Hex(), "delegate", event.Delegate.Hex(), "counted", event.Counted)
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventDelegate(event)},
	}
	return
}

func (h *DelegateTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *DelegateTxHandler) Process(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
