package main

import (
	"strings"
	"testing"

	"github.com/calehh/ballot-app/ballot"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitProposals(t *testing.T) {
	assert.Equal(t, []string{"Revive Luna", "Kill UST"}, splitProposals(" Revive Luna, ,Kill UST,"))
	assert.Nil(t, splitProposals(""))
	assert.Len(t, splitProposals("only"), 1)
}

func TestParseAddresses(t *testing.T) {
	addrs, err := parseAddresses([]string{
		"0x00000000000000000000000000000000000000a1",
		"00000000000000000000000000000000000000b2",
	})
	require.NoError(t, err)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0xa1"),
		common.HexToAddress("0xb2"),
	}, addrs)

	_, err = parseAddresses([]string{"0x1234"})
	assert.Error(t, err)
}

func TestNewBallotGenesis(t *testing.T) {
	chair := common.HexToAddress("0xc0")
	g, err := newBallotGenesis([]string{"Revive Luna", "Kill UST"}, chair)
	require.NoError(t, err)
	assert.Equal(t, chair, g.Chairperson)
	assert.Len(t, g.Proposals, 2)

	_, err = newBallotGenesis([]string{"Revive Luna", strings.Repeat("x", 33)}, chair)
	assert.ErrorIs(t, err, ballot.ErrNameTooLong)

	_, err = newBallotGenesis([]string{"Revive Luna"}, chair)
	assert.ErrorIs(t, err, ballot.ErrInsufficientProposals)
}
