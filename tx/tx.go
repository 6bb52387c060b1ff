package tx

import (
	"encoding/json"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/common"
)

type BallotTx struct {
	Version uint8        `json:"version"`
	Type    BallotTxType `json:"type"`
	Nonce   uint64       `json:"nonce"`
	PubKey  []byte       `json:"pubKey"`
	Tx      any          `json:"tx"`
	Sig     [][]byte     `json:"sig"`
}

type GrantTx struct {
	Voters []common.Address `json:"voters"`
}

type VoteTx struct {
	Proposal uint64 `json:"proposal"`
}

type DelegateTx struct {
	To common.Address `json:"to"`
}

type ballotTxTmpl[Tx any] struct {
	Version uint8        `json:"version"`
	Type    BallotTxType `json:"type"`
	Nonce   uint64       `json:"nonce"`
	PubKey  []byte       `json:"pubKey"`
	Tx      Tx           `json:"tx"`
	Sig     [][]byte     `json:"sig"`
}

type Signer interface {
	PublicKey() []byte
	Sign(data []byte) ([]byte, error)
}

// Caller is the ballot identity of the signer.
func (tx *BallotTx) Caller() common.Address {
	return common.BytesToAddress(ed25519.PubKey(tx.PubKey).Address())
}

// SigData is the payload covered by the signature: the tx with its
// signature list replaced by the chain id.
func (tx *BallotTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func (tx *BallotTx) Sign(chainId string, signer Signer) (err error) {
	tx.PubKey = signer.PublicKey()
	dat, err := tx.SigData([]byte(chainId))
	if err != nil {
		return
	}
	sig, err := signer.Sign(dat)
	if err != nil {
		return
	}
	tx.Sig = [][]byte{sig}
	return
}

func (tx *BallotTx) VerifySig(chainId string) bool {
	if len(tx.Sig) != 1 || len(tx.PubKey) != ed25519.PubKeySize {
		return false
	}
	dat, err := tx.SigData([]byte(chainId))
	if err != nil {
		return false
	}
	return ed25519.PubKey(tx.PubKey).VerifySignature(dat, tx.Sig[0])
}

func parseBallotTxType(dat []byte) BallotTxType {
	var tx struct {
		Type BallotTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return BallotTxTypeUnknown
	}
	return tx.Type
}

func unmarshalBallotTx[Tx any](dat []byte) (btx *BallotTx, err error) {
	var txt ballotTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version > BallotTxVersion1 {
		err = ErrUnsupportedTxVersion
		return
	}
	if len(txt.PubKey) == 0 {
		err = ErrMissingPubKey
		return
	}
	btx = new(BallotTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.PubKey = txt.PubKey
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalBallotTx(dat []byte) (btx *BallotTx, err error) {
	tp := parseBallotTxType(dat)
	switch tp {
	case BallotTxTypeGrant:
		btx, err = unmarshalBallotTx[GrantTx](dat)
		if err == nil && len(btx.Tx.(*GrantTx).Voters) == 0 {
			btx, err = nil, ErrEmptyGrant
		}
		return
	case BallotTxTypeVote:
		return unmarshalBallotTx[VoteTx](dat)
	case BallotTxTypeDelegate:
		return unmarshalBallotTx[DelegateTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalBallotTx(btx *BallotTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
