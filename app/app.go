package app

import (
	"context"

	"github.com/calehh/ballot-app/config"
	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/tx/handler"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &BallotApp{}

type BallotApp struct {
	cfg     *config.BallotAppConfig
	logger  cmtlog.Logger
	metrics *Metrics

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.BallotTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewBallotApp(cfg *config.BallotAppConfig, namespace string, logger cmtlog.Logger) (app *BallotApp, err error) {
	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}
	return newBallotApp(cfg, db, NewMetrics(namespace, prometheus.DefaultRegisterer), logger), nil
}

func newBallotApp(cfg *config.BallotAppConfig, db *state.StateDB, metrics *Metrics, logger cmtlog.Logger) (app *BallotApp) {
	app = &BallotApp{
		cfg:      cfg,
		logger:   logger.With("module", "app"),
		metrics:  metrics,
		db:       db,
		txHdlrs:  make(map[tx.BallotTxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	if _, p, _, err := db.GetWinner(); err == nil {
		app.logger.Info("ballot loaded", "height", db.Header().Height, "winner", p.NameString())
	}
	return
}

func (app *BallotApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
	app.updateWinnerGauge()
}

func (app *BallotApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("ballot app stopped")
}

func (app *BallotApp) registerTxHandler() {
	app.txHdlrs = map[tx.BallotTxType]handler.TxHandler{
		tx.BallotTxTypeGrant:    handler.NewGrantTxHandler(app.logger),
		tx.BallotTxTypeVote:     handler.NewVoteTxHandler(app.logger),
		tx.BallotTxTypeDelegate: handler.NewDelegateTxHandler(app.logger),
	}
}

func (app *BallotApp) registerQuerier() {
	app.queriers[types.QueryVoters] = NewVoterQuerier(app.db, app.logger)
	app.queriers[types.QueryProposals] = NewProposalQuerier(app.db, app.logger)
	app.queriers[types.QueryWinner] = NewWinnerQuerier(app.db, app.logger)
	app.queriers[types.QueryChairperson] = NewChairpersonQuerier(app.db, app.logger)
}

func (app *BallotApp) updateWinnerGauge() {
	idx, _, _, err := app.db.GetWinner()
	if err == nil {
		app.metrics.WinningProposal.Set(float64(idx))
	}
}

func (app *BallotApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	if app.db.State().Ballot() != nil {
		// replayed after a restart before the first block
		app.logger.Info("InitChain ballot already initialized", "chainId", chain.ChainId)
		return &abcitypes.ResponseInitChain{
			AppHash: app.db.State().Hash().Bytes(),
		}, nil
	}
	genesis, err := types.ParseBallotGenesis(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse app state fail", "err", err)
		return nil, err
	}
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	err = st.InitBallot(genesis.Proposals, genesis.Chairperson)
	if err != nil {
		app.logger.Error("InitChain init ballot fail", "err", err)
		return nil, err
	}
	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.updateWinnerGauge()
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *BallotApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Data:             types.BallotModuleName,
		Version:          VersionWithCommit(),
		AppVersion:       AppVersion,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *BallotApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *BallotApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *BallotApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *BallotApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *BallotApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *BallotApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
