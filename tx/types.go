package tx

import (
	"errors"
)

type BallotTxType uint8

const (
	BallotTxTypeUnknown  BallotTxType = 0
	BallotTxTypeGrant    BallotTxType = 1
	BallotTxTypeVote     BallotTxType = 2
	BallotTxTypeDelegate BallotTxType = 3
)

func (t BallotTxType) String() string {
	switch t {
	case BallotTxTypeGrant:
		return "grant"
	case BallotTxTypeVote:
		return "vote"
	case BallotTxTypeDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

const (
	BallotTxVersion0 uint8 = 0
	BallotTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrMissingPubKey        = errors.New("missing public key")
	ErrEmptyGrant           = errors.New("grant without voters")
)
