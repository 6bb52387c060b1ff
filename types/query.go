package types

import "github.com/ethereum/go-ethereum/common"

const (
	QueryVoters      = "/voters/"
	QueryProposals   = "/proposals/"
	QueryWinner      = "/winner/"
	QueryChairperson = "/chairperson/"
)

type VoterInfo struct {
	Address  common.Address `json:"address"`
	Weight   uint64         `json:"weight"`
	Voted    bool           `json:"voted"`
	Delegate common.Address `json:"delegate"`
	Vote     uint64         `json:"vote"`
	Nonce    uint64         `json:"nonce"`
}

type ProposalInfo struct {
	Index     uint64 `json:"index"`
	Name      string `json:"name"`
	VoteCount uint64 `json:"voteCount"`
}

type ChairpersonInfo struct {
	Chairperson common.Address `json:"chairperson"`
}
