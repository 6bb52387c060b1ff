package state

import (
	"fmt"
	"testing"

	"github.com/calehh/ballot-app/ballot"
	"github.com/calehh/ballot-app/tx"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var proposals = []string{"Revive Luna", "Kill UST", "Abandon Ship"}

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func initState(t *testing.T, db *StateDB, chair common.Address) {
	st := db.NewState()
	st.SetChainId("ballot-test")
	require.NoError(t, st.InitBallot(proposals, chair))
	_, err := st.Update()
	require.NoError(t, err)
	_, err = db.SetState(st)
	require.NoError(t, err)
}

func TestVoterCodec(t *testing.T) {
	for _, v := range []ballot.Voter{
		{},
		{Weight: 1},
		{Weight: 3, Voted: true, Vote: 0},
		{Voted: true, Delegate: addr(9)},
	} {
		got, err := unmarshalVoter(marshalVoter(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	_, err := unmarshalVoter([]byte{0x1a, 0x02, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrVoterRecordInvalid)
}

func TestStateLifecycle(t *testing.T) {
	logger := cmtlog.NewNopLogger()
	ldb := dbm.NewMemDB()
	db, err := newStateDB(ldb, "", logger)
	require.NoError(t, err)

	chair := addr(1)
	initState(t, db, chair)
	assert.Equal(t, uint64(0), db.Header().Height)

	st := db.NewState()
	assert.Equal(t, uint64(1), st.Header().Height)

	events, err := st.GrantRightToVote(chair, []common.Address{addr(2), addr(3)}, false)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	vote, err := st.Vote(addr(2), 1, false)
	require.NoError(t, err)
	assert.Equal(t, "Kill UST", vote.ProposalName)

	del, err := st.Delegate(addr(3), addr(2), false)
	require.NoError(t, err)
	assert.True(t, del.Counted)
	assert.Equal(t, uint64(1), del.Proposal)

	h, err := st.Update()
	require.NoError(t, err)
	saved, err := db.SetState(st)
	require.NoError(t, err)
	assert.Equal(t, h, saved)

	winner, p, height, err := db.GetWinner()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), winner)
	assert.Equal(t, "Kill UST", p.NameString())
	assert.Equal(t, uint64(2), p.VoteCount)
	assert.Equal(t, uint64(1), height)

	_, nonce, _, err := db.GetVoter(chair)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	// reload from the same backing store
	reopened, err := newStateDB(ldb, "", logger)
	require.NoError(t, err)
	assert.Equal(t, db.State().Hash(), reopened.State().Hash())
	assert.Equal(t, uint64(1), reopened.Header().Height)

	ps, _, err := reopened.GetProposals()
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, uint64(2), ps[1].VoteCount)

	voter, nonce, _, err := reopened.GetVoter(addr(3))
	require.NoError(t, err)
	assert.True(t, voter.Voted)
	assert.Equal(t, addr(2), voter.Delegate)
	assert.Equal(t, uint64(0), voter.Weight)
	assert.Equal(t, uint64(1), nonce)

	c, _, err := reopened.GetChairperson()
	require.NoError(t, err)
	assert.Equal(t, chair, c)
	assert.Equal(t, uint64(2), reopened.NewState().Header().Height)
}

func TestGrantAllOrNothing(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	chair := addr(1)
	initState(t, db, chair)

	st := db.NewState()
	_, err = st.GrantRightToVote(chair, []common.Address{addr(2), chair}, false)
	assert.ErrorIs(t, err, ballot.ErrAlreadyHasRights)
	assert.Equal(t, uint64(0), st.Ballot().Voter(addr(2)).Weight)

	nonce, err := st.Nonce(chair)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)
}

func TestCheckOnlyLeavesState(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	chair := addr(1)
	initState(t, db, chair)

	st := db.NewState()
	ev, err := st.Vote(chair, 2, true)
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.False(t, st.Ballot().Voter(chair).Voted)

	_, err = st.Vote(chair, 7, true)
	assert.ErrorIs(t, err, ballot.ErrInvalidIndex)

	_, err = st.Delegate(chair, chair, true)
	assert.ErrorIs(t, err, ballot.ErrSelfDelegation)
}

func TestUninitialized(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	st := db.NewState()
	_, err = st.Vote(addr(1), 0, false)
	assert.ErrorIs(t, err, ErrBallotNotInitialized)
	_, _, _, err = db.GetWinner()
	assert.ErrorIs(t, err, ErrBallotNotInitialized)

	require.NoError(t, st.InitBallot(proposals, addr(1)))
	assert.ErrorIs(t, st.InitBallot(proposals, addr(1)), ErrBallotAlreadyInitialized)
	assert.ErrorIs(t, db.NewState().InitBallot([]string{"only"}, addr(1)), ballot.ErrInsufficientProposals)
}

type keySigner struct {
	priv ed25519.PrivKey
}

func (k keySigner) PublicKey() []byte {
	return k.priv.PubKey().Bytes()
}

func (k keySigner) Sign(data []byte) ([]byte, error) {
	return k.priv.Sign(data)
}

func TestVerify(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	signer := keySigner{ed25519.GenPrivKey()}
	btx := &tx.BallotTx{Type: tx.BallotTxTypeVote, Nonce: 0, Tx: &tx.VoteTx{Proposal: 0}}
	require.NoError(t, btx.Sign("ballot-test", signer))
	chair := btx.Caller()
	initState(t, db, chair)

	st := db.NewState()
	ok, err := st.Verify(btx, false)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = st.Vote(chair, 0, false)
	require.NoError(t, err)
	_, err = st.Verify(btx, false)
	assert.ErrorIs(t, err, ErrTxNonceInvalid)

	future := &tx.BallotTx{Type: tx.BallotTxTypeVote, Nonce: 5, Tx: &tx.VoteTx{Proposal: 0}}
	require.NoError(t, future.Sign("ballot-test", signer))
	_, err = st.Verify(future, false)
	assert.ErrorIs(t, err, ErrTxNonceInvalid)
	ok, err = st.Verify(future, true)
	require.NoError(t, err)
	assert.True(t, ok)

	other := &tx.BallotTx{Type: tx.BallotTxTypeVote, Nonce: 1, Tx: &tx.VoteTx{Proposal: 0}}
	require.NoError(t, other.Sign("other-chain", signer))
	_, err = st.Verify(other, false)
	assert.ErrorIs(t, err, ErrTxSigInvalid)
}

func TestUpdateIdempotent(t *testing.T) {
	tree := iavl.NewMutableTree(dbm.NewMemDB(), 128, true, Cometbft2CosmosLogger(cmtlog.NewNopLogger()))
	st := newState(tree, cmtlog.NewNopLogger())
	require.NoError(t, st.InitBallot(proposals, addr(1)))
	h1, err := st.Update()
	require.NoError(t, err)

	// a clone of an already flushed state writes the same keys
	again := st.Clone()
	h2, err := again.Update()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestPrefixEndBytes(t *testing.T) {
	assert.Equal(t, []byte("w"), PrefixEndBytes([]byte("v")))
	assert.Equal(t, []byte{0x02}, PrefixEndBytes([]byte{0x01, 0xff}))
	assert.Nil(t, PrefixEndBytes([]byte{0xff}))
	assert.Nil(t, PrefixEndBytes(nil))
}

func TestReopenAfterClose(t *testing.T) {
	dir := t.TempDir()
	logger := cmtlog.NewNopLogger()
	db, err := NewStateDB(dir, logger)
	require.NoError(t, err)
	initState(t, db, addr(1))
	hash := db.State().Hash()
	require.NoError(t, db.Close())

	reopened, err := NewStateDB(dir, logger)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, hash, reopened.State().Hash())
	c, _, err := reopened.GetChairperson()
	require.NoError(t, err)
	assert.Equal(t, addr(1), c)
}

func TestFailedNonceKeepsBallot(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	chair := addr(1)
	initState(t, db, chair)

	st := db.NewState()
	// an rlp list where a nonce is expected
	_, err = st.db.Set([]byte(fmt.Sprintf(KeyNonce, chair[:])), []byte{0xc0})
	require.NoError(t, err)

	_, err = st.Vote(chair, 1, false)
	require.Error(t, err)
	assert.False(t, st.Ballot().Voter(chair).Voted)
	p, err := st.Ballot().Proposal(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.VoteCount)

	_, err = st.GrantRightToVote(chair, []common.Address{addr(2)}, false)
	require.Error(t, err)
	assert.Equal(t, uint64(0), st.Ballot().Voter(addr(2)).Weight)
}
