package state

import (
	"errors"

	"github.com/calehh/ballot-app/ballot"
	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// voter record fields, protobuf wire format
const (
	voterFieldWeight   protowire.Number = 1
	voterFieldVoted    protowire.Number = 2
	voterFieldDelegate protowire.Number = 3
	voterFieldVote     protowire.Number = 4
)

var ErrVoterRecordInvalid = errors.New("voter record invalid")

func marshalVoter(r ballot.Voter) (dat []byte) {
	if r.Weight != 0 {
		dat = protowire.AppendTag(dat, voterFieldWeight, protowire.VarintType)
		dat = protowire.AppendVarint(dat, r.Weight)
	}
	if r.Voted {
		dat = protowire.AppendTag(dat, voterFieldVoted, protowire.VarintType)
		dat = protowire.AppendVarint(dat, protowire.EncodeBool(true))
		dat = protowire.AppendTag(dat, voterFieldVote, protowire.VarintType)
		dat = protowire.AppendVarint(dat, r.Vote)
	}
	if r.HasDelegate() {
		dat = protowire.AppendTag(dat, voterFieldDelegate, protowire.BytesType)
		dat = protowire.AppendBytes(dat, r.Delegate[:])
	}
	return
}

func unmarshalVoter(dat []byte) (r ballot.Voter, err error) {
	for len(dat) > 0 {
		num, typ, n := protowire.ConsumeTag(dat)
		if n < 0 {
			return r, protowire.ParseError(n)
		}
		dat = dat[n:]
		switch {
		case typ == protowire.VarintType && num != voterFieldDelegate:
			v, n := protowire.ConsumeVarint(dat)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			dat = dat[n:]
			switch num {
			case voterFieldWeight:
				r.Weight = v
			case voterFieldVoted:
				r.Voted = protowire.DecodeBool(v)
			case voterFieldVote:
				r.Vote = v
			}
		case num == voterFieldDelegate && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(dat)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			if len(v) != common.AddressLength {
				return r, ErrVoterRecordInvalid
			}
			dat = dat[n:]
			r.Delegate = common.BytesToAddress(v)
		default:
			n := protowire.ConsumeFieldValue(num, typ, dat)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			dat = dat[n:]
		}
	}
	return r, nil
}
