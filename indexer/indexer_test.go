package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/calehh/ballot-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	blocks map[int64][]*abci.ExecTxResult
	latest int64
}

func (f *fakeChain) Status(ctx context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{
		SyncInfo: coretypes.SyncInfo{LatestBlockHeight: f.latest},
	}, nil
}

func (f *fakeChain) BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error) {
	return &coretypes.ResultBlockResults{
		Height:     *height,
		TxsResults: f.blocks[*height],
	}, nil
}

var (
	chair = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func testChain() *fakeChain {
	return &fakeChain{
		latest: 3,
		blocks: map[int64][]*abci.ExecTxResult{
			1: {{Events: []abci.Event{
				types.EncodeEventGrantRight(&types.EventGrantRight{Chairperson: chair, Voter: alice}),
				types.EncodeEventGrantRight(&types.EventGrantRight{Chairperson: chair, Voter: bob}),
			}}},
			2: {
				{Events: []abci.Event{types.EncodeEventVote(&types.EventVote{Voter: bob, Proposal: 0, ProposalName: "Revive Luna", Weight: 1})}},
				{Code: 1, Log: "Already voted.", Events: []abci.Event{types.EncodeEventVote(&types.EventVote{Voter: bob, Proposal: 2, Weight: 1})}},
			},
			3: {{Events: []abci.Event{types.EncodeEventDelegate(&types.EventDelegate{
				Voter: alice, To: bob, Delegate: bob, Weight: 1, Counted: true, Proposal: 0,
			})}}},
		},
	}
}

func newTestIndexer(t *testing.T, src BlockSource) (*ChainIndexer, string) {
	path := filepath.Join(t.TempDir(), "indexer.db")
	idx, err := NewChainIndexer(cmtlog.NewNopLogger(), path, src, 0)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, path
}

func TestSync(t *testing.T) {
	chain := testChain()
	idx, path := newTestIndexer(t, chain)
	require.NoError(t, idx.Sync(context.Background()))
	assert.Equal(t, int64(4), idx.Height)

	votes, total, err := idx.getVotes("", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, votes, 1)
	assert.Equal(t, bob.Hex(), votes[0].Voter)

	tally, err := idx.getTally()
	require.NoError(t, err)
	require.Len(t, tally, 1)
	assert.Equal(t, uint64(0), tally[0].Proposal)
	assert.Equal(t, "Revive Luna", tally[0].Name)
	assert.Equal(t, uint64(2), tally[0].VoteCount)

	delegations, total, err := idx.getDelegations(bob.Hex(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.True(t, delegations[0].Counted)

	// cursor survives a restart
	require.NoError(t, idx.Close())
	reopened, err := NewChainIndexer(cmtlog.NewNopLogger(), path, chain, 0)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, int64(4), reopened.Height)
	require.NoError(t, reopened.Sync(context.Background()))
	grants, total, err := reopened.getGrants("", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, bob.Hex(), grants[0].Voter)
}

func TestIndexBlockRollsBack(t *testing.T) {
	idx, _ := newTestIndexer(t, testChain())
	bad := abci.Event{Type: types.EventVoteType, Attributes: []abci.EventAttribute{{Key: "voter", Value: "nope"}}}
	err := idx.IndexBlock(1, []*abci.ExecTxResult{
		{Events: []abci.Event{types.EncodeEventGrantRight(&types.EventGrantRight{Chairperson: chair, Voter: alice})}},
		{Events: []abci.Event{bad}},
	})
	assert.ErrorIs(t, err, errDecodeEvent)

	_, total, err := idx.getGrants("", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), total)
	h, err := idx.indexedHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), h)
}

func TestService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	idx, _ := newTestIndexer(t, testChain())
	require.NoError(t, idx.Sync(context.Background()))
	srv := NewService("", idx).Handler()

	post := func(path string, body any) *httptest.ResponseRecorder {
		dat, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(dat))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		return w
	}

	w := post("/getGrants", PageReq{Address: alice.Hex()})
	require.Equal(t, http.StatusOK, w.Code)
	var grants GetGrantsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grants))
	assert.Equal(t, uint64(1), grants.Total)
	assert.Equal(t, alice.Hex(), grants.Grants[0].Voter)

	w = post("/getVotes", PageReq{Address: alice.Hex()})
	require.Equal(t, http.StatusOK, w.Code)
	var votes GetVotesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &votes))
	assert.Equal(t, uint64(0), votes.Total)
	assert.NotNil(t, votes.Votes)

	w = post("/getDelegations", PageReq{Address: "not-an-address"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/tally", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var tally GetTallyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tally))
	assert.Equal(t, uint64(3), tally.Height)
	require.Len(t, tally.Tally, 1)
	assert.Equal(t, uint64(2), tally.Tally[0].VoteCount)
}
