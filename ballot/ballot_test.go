package ballot

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProposals = []string{"Proposal 1", "Proposal 2", "Proposal 3"}

func addr(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(i + 1)))
}

func newTestBallot(t *testing.T) (*Ballot, common.Address) {
	t.Helper()
	chair := addr(0)
	b, err := New(testProposals, chair)
	require.NoError(t, err)
	return b, chair
}

func TestNew(t *testing.T) {
	t.Run("insufficient proposals", func(t *testing.T) {
		_, err := New(nil, addr(0))
		require.ErrorIs(t, err, ErrInsufficientProposals)
		_, err = New([]string{"only"}, addr(0))
		require.ErrorIs(t, err, ErrInsufficientProposals)
	})

	t.Run("name too long", func(t *testing.T) {
		_, err := New([]string{"a", "0123456789abcdef0123456789abcdefX"}, addr(0))
		require.ErrorIs(t, err, ErrNameTooLong)
	})

	t.Run("initial state", func(t *testing.T) {
		b, chair := newTestBallot(t)
		for i, name := range testProposals {
			p, err := b.Proposal(uint64(i))
			require.NoError(t, err)
			assert.Equal(t, name, p.NameString())
			assert.Zero(t, p.VoteCount)
		}
		assert.Equal(t, chair, b.Chairperson())
		assert.Equal(t, uint64(1), b.Voter(chair).Weight)
		assert.Equal(t, uint64(0), b.WinningProposal())
		assert.Equal(t, testProposals[0], b.WinnerName())
	})
}

func TestGrantRightToVote(t *testing.T) {
	t.Run("grants weight", func(t *testing.T) {
		b, chair := newTestBallot(t)
		require.NoError(t, b.GrantRightToVote(chair, addr(1)))
		assert.Equal(t, uint64(1), b.Voter(addr(1)).Weight)
	})

	t.Run("only chairperson", func(t *testing.T) {
		b, _ := newTestBallot(t)
		err := b.GrantRightToVote(addr(2), addr(1))
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "Only chairperson can give right to vote.", err.Error())
		assert.Zero(t, b.Voter(addr(1)).Weight)
	})

	t.Run("already voted", func(t *testing.T) {
		b, chair := newTestBallot(t)
		require.NoError(t, b.GrantRightToVote(chair, addr(1)))
		_, err := b.Vote(addr(1), 0)
		require.NoError(t, err)
		err = b.GrantRightToVote(chair, addr(1))
		require.ErrorIs(t, err, ErrVoterAlreadyVoted)
		assert.Equal(t, "The voter already voted.", err.Error())
	})

	t.Run("already has rights", func(t *testing.T) {
		b, chair := newTestBallot(t)
		require.NoError(t, b.GrantRightToVote(chair, addr(1)))
		err := b.GrantRightToVote(chair, addr(1))
		require.ErrorIs(t, err, ErrAlreadyHasRights)
		assert.Equal(t, uint64(1), b.Voter(addr(1)).Weight)
	})
}

func TestVote(t *testing.T) {
	t.Run("no right to vote", func(t *testing.T) {
		b, _ := newTestBallot(t)
		_, err := b.Vote(addr(1), 0)
		require.ErrorIs(t, err, ErrNoRightToVote)
		assert.Equal(t, "Has no right to vote", err.Error())
	})

	t.Run("already voted", func(t *testing.T) {
		b, chair := newTestBallot(t)
		require.NoError(t, b.GrantRightToVote(chair, addr(1)))
		_, err := b.Vote(addr(1), 0)
		require.NoError(t, err)
		_, err = b.Vote(addr(1), 0)
		require.ErrorIs(t, err, ErrAlreadyVoted)
		assert.Equal(t, "Already voted.", err.Error())
		p, _ := b.Proposal(0)
		assert.Equal(t, uint64(1), p.VoteCount)
	})

	t.Run("invalid index", func(t *testing.T) {
		b, chair := newTestBallot(t)
		_, err := b.Vote(chair, 3)
		require.ErrorIs(t, err, ErrInvalidIndex)
		assert.False(t, b.Voter(chair).Voted)
	})

	t.Run("counts weight", func(t *testing.T) {
		b, chair := newTestBallot(t)
		w, err := b.Vote(chair, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), w)
		v := b.Voter(chair)
		assert.True(t, v.Voted)
		assert.Equal(t, uint64(2), v.Vote)
		for i := range testProposals {
			p, _ := b.Proposal(uint64(i))
			if i == 2 {
				assert.Equal(t, uint64(1), p.VoteCount)
			} else {
				assert.Zero(t, p.VoteCount)
			}
		}
		assert.Equal(t, uint64(2), b.WinningProposal())
		assert.Equal(t, testProposals[2], b.WinnerName())
	})
}

func TestDelegate(t *testing.T) {
	t.Run("already voted", func(t *testing.T) {
		b, chair := newTestBallot(t)
		require.NoError(t, b.GrantRightToVote(chair, addr(1)))
		_, err := b.Vote(addr(1), 0)
		require.NoError(t, err)
		_, err = b.Delegate(addr(1), chair)
		require.ErrorIs(t, err, ErrAlreadyVotedDelegate)
		assert.Equal(t, "You already voted.", err.Error())
	})

	t.Run("self delegation", func(t *testing.T) {
		b, _ := newTestBallot(t)
		_, err := b.Delegate(addr(1), addr(1))
		require.ErrorIs(t, err, ErrSelfDelegation)
		assert.Equal(t, "Self-delegation is disallowed.", err.Error())
	})

	t.Run("loop", func(t *testing.T) {
		b, chair := newTestBallot(t)
		voter, attacker := addr(1), addr(2)
		require.NoError(t, b.GrantRightToVote(chair, voter))
		_, err := b.Delegate(attacker, voter)
		require.NoError(t, err)
		_, err = b.Delegate(voter, attacker)
		require.ErrorIs(t, err, ErrDelegationLoop)
		assert.Equal(t, "Found loop in delegation.", err.Error())
		assert.False(t, b.Voter(voter).Voted)
	})

	t.Run("longer loop", func(t *testing.T) {
		b, chair := newTestBallot(t)
		for i := 1; i <= 3; i++ {
			require.NoError(t, b.GrantRightToVote(chair, addr(i)))
		}
		_, err := b.Delegate(addr(1), addr(2))
		require.NoError(t, err)
		_, err = b.Delegate(addr(2), addr(3))
		require.NoError(t, err)
		_, err = b.Delegate(addr(3), addr(1))
		require.ErrorIs(t, err, ErrDelegationLoop)
	})

	t.Run("stored loop without caller", func(t *testing.T) {
		seed, chair := newTestBallot(t)
		// 1 and 2 point at each other, as a corrupted record set would
		b, err := Restore(chair, seed.Proposals(), map[common.Address]Voter{
			chair:   {Weight: 1},
			addr(1): {Voted: true, Delegate: addr(2)},
			addr(2): {Voted: true, Delegate: addr(1)},
			addr(3): {Weight: 1},
		})
		require.NoError(t, err)
		_, err = b.Delegate(addr(3), addr(1))
		require.ErrorIs(t, err, ErrDelegationLoop)
		v := b.Voter(addr(3))
		assert.False(t, v.Voted)
		assert.Equal(t, uint64(1), v.Weight)
	})

	t.Run("delegate has no right", func(t *testing.T) {
		b, _ := newTestBallot(t)
		_, err := b.Delegate(addr(1), addr(5))
		require.ErrorIs(t, err, ErrDelegateHasNoRight)
		assert.False(t, b.Voter(addr(1)).Voted)
	})

	t.Run("pending weight", func(t *testing.T) {
		b, chair := newTestBallot(t)
		require.NoError(t, b.GrantRightToVote(chair, addr(1)))
		res, err := b.Delegate(addr(1), chair)
		require.NoError(t, err)
		assert.Equal(t, chair, res.Delegate)
		assert.False(t, res.Counted)
		assert.Equal(t, uint64(2), b.Voter(chair).Weight)

		v := b.Voter(addr(1))
		assert.True(t, v.Voted)
		assert.Equal(t, chair, v.Delegate)
		assert.Zero(t, v.Weight)

		w, err := b.Vote(chair, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), w)
		p, _ := b.Proposal(1)
		assert.Equal(t, uint64(2), p.VoteCount)
	})

	t.Run("delegate already voted", func(t *testing.T) {
		b, chair := newTestBallot(t)
		require.NoError(t, b.GrantRightToVote(chair, addr(1)))
		_, err := b.Vote(chair, 2)
		require.NoError(t, err)
		res, err := b.Delegate(addr(1), chair)
		require.NoError(t, err)
		assert.True(t, res.Counted)
		assert.Equal(t, uint64(2), res.Proposal)
		p, _ := b.Proposal(2)
		assert.Equal(t, uint64(2), p.VoteCount)
		assert.Equal(t, uint64(1), b.Voter(chair).Weight)
	})

	t.Run("chain resolves to final delegate", func(t *testing.T) {
		b, chair := newTestBallot(t)
		for i := 1; i <= 3; i++ {
			require.NoError(t, b.GrantRightToVote(chair, addr(i)))
		}
		_, err := b.Delegate(addr(2), addr(3))
		require.NoError(t, err)
		res, err := b.Delegate(addr(1), addr(2))
		require.NoError(t, err)
		assert.Equal(t, addr(3), res.Delegate)
		assert.Equal(t, uint64(3), b.Voter(addr(3)).Weight)
	})
}

func TestKind(t *testing.T) {
	assert.True(t, errors.Is(ErrVoterAlreadyVoted, ErrAlreadyVoted))
	assert.False(t, errors.Is(ErrAlreadyVotedDelegate, ErrAlreadyVoted))
	assert.Equal(t, KindDelegationLoop, KindOf(ErrDelegationLoop))
	assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
	assert.Equal(t, "SelfDelegation", KindSelfDelegation.String())
}

func TestWinnerEndToEnd(t *testing.T) {
	chair := addr(0)
	b, err := New([]string{"Revive Luna", "Kill UST", "Abandon Ship"}, chair)
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		require.NoError(t, b.GrantRightToVote(chair, addr(i)))
	}
	_, err = b.Vote(addr(1), 0)
	require.NoError(t, err)
	_, err = b.Delegate(addr(2), addr(1))
	require.NoError(t, err)
	_, err = b.Vote(addr(3), 2)
	require.NoError(t, err)
	_, err = b.Delegate(addr(4), addr(3))
	require.NoError(t, err)

	p0, _ := b.Proposal(0)
	p2, _ := b.Proposal(2)
	assert.Equal(t, uint64(2), p0.VoteCount)
	assert.Equal(t, uint64(2), p2.VoteCount)
	assert.Equal(t, uint64(0), b.WinningProposal())
	assert.Equal(t, "Revive Luna", b.WinnerName())

	_, err = b.Vote(chair, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), b.WinningProposal())
	assert.Equal(t, "Abandon Ship", b.WinnerName())
}

func TestClone(t *testing.T) {
	b, chair := newTestBallot(t)
	c := b.Clone()
	_, err := c.Vote(chair, 1)
	require.NoError(t, err)
	assert.False(t, b.Voter(chair).Voted)
	p, _ := b.Proposal(1)
	assert.Zero(t, p.VoteCount)

	r, err := Restore(c.Chairperson(), c.Proposals(), map[common.Address]Voter{chair: c.Voter(chair)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.WinningProposal())
	assert.True(t, r.Voter(chair).Voted)
}

func TestConcurrentVotes(t *testing.T) {
	b, chair := newTestBallot(t)
	const n = 64
	for i := 1; i <= n; i++ {
		require.NoError(t, b.GrantRightToVote(chair, addr(i)))
	}
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = b.Vote(addr(i), uint64(i%3))
		}(i)
	}
	wg.Wait()
	var total uint64
	for _, p := range b.Proposals() {
		total += p.VoteCount
	}
	assert.Equal(t, uint64(n), total)
	assert.Len(t, b.Voters(), n+1)
}
