package app

import (
	"context"
	"errors"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
	ErrNoPendingState      = errors.New("no finalized state to commit")
)

// parseTx decodes a tx and checks its signature and nonce against st.
func (app *BallotApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.BallotTx, err error) {
	btx, err = tx.UnmarshalBallotTx(txDat)
	if err != nil {
		return
	}
	_, err = st.Verify(btx, allowNonceGap)
	return
}

func (app *BallotApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	st := app.db.State()
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Error("parse tx fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Debug("check tx", "type", btx.Type, "caller", btx.Caller().Hex())
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = 1
		res.Log = "unsupported tx"
		return
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}
		err = nil
	}
	return
}

// apply runs one raw tx against st. st is left untouched on failure.
func (app *BallotApp) apply(ctx context.Context, st *state.State, stx []byte, prepare bool) (result *abcitypes.ExecTxResult, btx *tx.BallotTx, err error) {
	btx, err = app.parseTx(st, stx, false)
	if err != nil {
		return
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		err = tx.ErrUnsupportedTxType
		return
	}
	if prepare {
		result, err = h.Prepare(ctx, st, btx)
	} else {
		result, err = h.Process(ctx, st, btx)
	}
	if err == nil && result == nil {
		err = ErrUnexpectedTxProcess
	}
	return
}

func (app *BallotApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.db.NewState()
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		stTmp := st.Clone()
		_, btx, err := app.apply(ctx, stTmp, stx, true)
		if err != nil {
			app.logger.Info("prepare drop tx", "err", err)
			continue
		}
		app.logger.Debug("prepare tx", "type", btx.Type)
		st = stTmp
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *BallotApp) process(ctx context.Context, st *state.State, txs [][]byte) (err error) {
	for _, stx := range txs {
		_, btx, err := app.apply(ctx, st, stx, false)
		if err != nil {
			app.logger.Error("unexpected process tx fail", "err", err)
			return err
		}
		app.logger.Debug("process tx", "type", btx.Type)
	}
	return
}

func (app *BallotApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height)
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	if len(proposal.Txs) == 0 {
		res.Status = abcitypes.ResponseProcessProposal_ACCEPT
		return res, nil
	}
	st := app.db.NewState()
	err = app.process(ctx, st, proposal.Txs)
	if err != nil {
		app.logger.Error("process fail", "err", err)
		return res, nil
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	app.logger.Info("proposal accepted", "height", proposal.Height)
	return res, nil
}

// finalize applies every tx of a decided block. A failing tx gets a non-zero
// code and leaves the state as it was.
func (app *BallotApp) finalize(ctx context.Context, st *state.State, txs [][]byte) (res []*abcitypes.ExecTxResult) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		result, btx, err := app.apply(ctx, st, stx, false)
		tp := tx.BallotTxTypeUnknown
		if btx != nil {
			tp = btx.Type
		}
		app.metrics.observeTx(tp.String(), err)
		if err != nil {
			app.logger.Error("finalize tx fail", "type", tp, "err", err)
			res[i] = &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
			continue
		}
		res[i] = result
	}
	return
}

func (app *BallotApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.db.NewState()
	if st.Header().Height != uint64(req.Height) {
		app.logger.Error("FinalizeBlock height mismatch", "state", st.Header().Height, "block", req.Height)
		return nil, state.ErrStateHeightUnmatched
	}
	app.st = st
	res := app.finalize(ctx, st, req.Txs)
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *BallotApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrNoPendingState
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.updateWinnerGauge()
	app.logger.Info("Commit", "height", app.lastBlk.Height)
	return &abcitypes.ResponseCommit{}, nil
}
