package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

func (app *BallotApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

func queryFail(res *abcitypes.ResponseQuery, err error) *abcitypes.ResponseQuery {
	res.Code = 1
	res.Log = err.Error()
	return res
}

type VoterQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewVoterQuerier(db *state.StateDB, logger cmtlog.Logger) (q *VoterQuerier) {
	q = &VoterQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *VoterQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) != common.AddressLength {
		res.Code = 1
		res.Log = "invalid address"
		return
	}
	addr := common.BytesToAddress(req.Data)
	v, nonce, height, err := q.db.GetVoter(addr)
	if err != nil {
		return queryFail(res, err), nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(&types.VoterInfo{
		Address:  addr,
		Weight:   v.Weight,
		Voted:    v.Voted,
		Delegate: v.Delegate,
		Vote:     v.Vote,
		Nonce:    nonce,
	})
	return
}

type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query returns every proposal for empty data, otherwise the one whose
// big-endian index is in data.
func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) == 0 {
		ps, height, err := q.db.GetProposals()
		if err != nil {
			return queryFail(res, err), nil
		}
		infos := make([]types.ProposalInfo, len(ps))
		for i, p := range ps {
			infos[i] = types.ProposalInfo{Index: uint64(i), Name: p.NameString(), VoteCount: p.VoteCount}
		}
		res.Height = int64(height)
		res.Value, _ = json.Marshal(infos)
		return res, nil
	}
	if len(req.Data) > 8 {
		res.Code = 1
		res.Log = "invalid proposal index"
		return
	}
	var idx uint64
	for _, v := range req.Data {
		idx <<= 8
		idx |= uint64(v)
	}
	p, height, err := q.db.GetProposal(idx)
	if err != nil {
		return queryFail(res, err), nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(&types.ProposalInfo{Index: idx, Name: p.NameString(), VoteCount: p.VoteCount})
	return
}

type WinnerQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewWinnerQuerier(db *state.StateDB, logger cmtlog.Logger) (q *WinnerQuerier) {
	q = &WinnerQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *WinnerQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	idx, p, height, err := q.db.GetWinner()
	if err != nil {
		return queryFail(res, err), nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(&types.ProposalInfo{Index: idx, Name: p.NameString(), VoteCount: p.VoteCount})
	return
}

type ChairpersonQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewChairpersonQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ChairpersonQuerier) {
	q = &ChairpersonQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ChairpersonQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	chair, height, err := q.db.GetChairperson()
	if err != nil {
		return queryFail(res, err), nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(&types.ChairpersonInfo{Chairperson: chair})
	return
}
