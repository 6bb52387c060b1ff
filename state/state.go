package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/calehh/ballot-app/ballot"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	KeyState         = "s"
	KeyChairperson   = "c"
	KeyProposalCount = "pn"
	KeyProposalBody  = "p%d"
	KeyVoter         = "v%x"
	KeyNonce         = "n%x"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrBallotNotInitialized     = errors.New("ballot not initialized")
	ErrBallotAlreadyInitialized = errors.New("ballot already initialized")
	ErrTxNonceInvalid           = errors.New("nonce invalid")
	ErrTxSigInvalid             = errors.New("signature invalid")
	ErrStateHeightUnmatched     = errors.New("state height unmatched")
)

type StateHeader struct {
	ChainId  string
	Height   uint64
	RootHash []byte
	Hash     []byte
}

func (h *StateHeader) Clone() *StateHeader {
	return &StateHeader{
		ChainId:  h.ChainId,
		Height:   h.Height,
		RootHash: common.CopyBytes(h.RootHash),
		Hash:     common.CopyBytes(h.Hash),
	}
}

type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *StateHeader
	ballot *ballot.Ballot
	nonces map[common.Address]uint64

	newBallot    bool
	modVoters    map[common.Address]struct{}
	modProposals map[uint64]struct{}
	modNonces    map[common.Address]struct{}
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	return &State{
		logger:       logger,
		db:           db,
		dbVer:        0,
		header:       new(StateHeader),
		nonces:       make(map[common.Address]uint64),
		modVoters:    make(map[common.Address]struct{}),
		modProposals: make(map[uint64]struct{}),
		modNonces:    make(map[common.Address]struct{}),
	}
}

func (s *State) nextState() *State {
	n := newState(s.db, s.logger)
	n.dbVer = s.dbVer
	n.header = s.header.Clone()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	if s.ballot != nil {
		n.ballot = s.ballot.Clone()
	}
	return n
}

func copySet[K comparable](source map[K]struct{}) map[K]struct{} {
	res := make(map[K]struct{}, len(source))
	for k := range source {
		res[k] = struct{}{}
	}
	return res
}

// Clone returns an independent copy of s sharing the same tree. Pending
// modifications are copied too, so the clone can be applied in place of s.
func (s *State) Clone() *State {
	n := &State{
		logger:       s.logger,
		db:           s.db,
		dbVer:        s.dbVer,
		header:       s.header.Clone(),
		nonces:       make(map[common.Address]uint64, len(s.nonces)),
		newBallot:    s.newBallot,
		modVoters:    copySet(s.modVoters),
		modProposals: copySet(s.modProposals),
		modNonces:    copySet(s.modNonces),
	}
	for k, v := range s.nonces {
		n.nonces[k] = v
	}
	if s.ballot != nil {
		n.ballot = s.ballot.Clone()
	}
	return n
}

func (s *State) get(key string) (val []byte, err error) {
	val, err = s.db.Get([]byte(key))
	if err == leveldb.ErrNotFound {
		err = nil
	}
	return
}

func (s *State) load() (err error) {
	val, err := s.get(KeyState)
	if err != nil {
		return err
	}
	if val == nil {
		return nil
	}
	err = rlp.DecodeBytes(val, s.header)
	if err != nil {
		return
	}
	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	return s.loadBallot()
}

func (s *State) loadBallot() (err error) {
	val, err := s.get(KeyChairperson)
	if err != nil || val == nil {
		return
	}
	chairperson := common.BytesToAddress(val)

	val, err = s.get(KeyProposalCount)
	if err != nil {
		return
	}
	var count uint64
	err = rlp.DecodeBytes(val, &count)
	if err != nil {
		return fmt.Errorf("decode proposal count: %w", err)
	}
	proposals := make([]ballot.Proposal, count)
	for i := uint64(0); i < count; i++ {
		val, err = s.get(fmt.Sprintf(KeyProposalBody, i))
		if err != nil {
			return
		}
		if val == nil {
			return fmt.Errorf("proposal %d: %w", i, ErrNotFound)
		}
		err = json.Unmarshal(val, &proposals[i])
		if err != nil {
			return
		}
	}

	voters := make(map[common.Address]ballot.Voter)
	start := []byte("v")
	itr, err := s.db.Iterator(start, PrefixEndBytes(start), true)
	if err != nil {
		return
	}
	defer itr.Close()
	for ; itr.Valid(); itr.Next() {
		raw, err := hex.DecodeString(string(itr.Key()[len(start):]))
		if err != nil || len(raw) != common.AddressLength {
			return fmt.Errorf("voter key %q: %w", itr.Key(), ErrVoterRecordInvalid)
		}
		v, err := unmarshalVoter(itr.Value())
		if err != nil {
			return err
		}
		voters[common.BytesToAddress(raw)] = v
	}

	s.ballot, err = ballot.Restore(chairperson, proposals, voters)
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

func (s *State) set(key string, val []byte) error {
	_, err := s.db.Set([]byte(key), val)
	return err
}

func sortedAddresses(set map[common.Address]struct{}) []common.Address {
	addrs := make([]common.Address, 0, len(set))
	for a := range set {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	return addrs
}

// Update writes every pending modification to the working tree and returns
// the resulting app hash.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = rlp.EncodeToBytes(s.header)
	if err != nil {
		return
	}
	if err = s.set(KeyState, val); err != nil {
		return
	}

	if s.ballot != nil {
		if s.newBallot {
			chairperson := s.ballot.Chairperson()
			if err = s.set(KeyChairperson, chairperson[:]); err != nil {
				return
			}
			val, err = rlp.EncodeToBytes(uint64(s.ballot.NumProposals()))
			if err != nil {
				return
			}
			if err = s.set(KeyProposalCount, val); err != nil {
				return
			}
			for i := 0; i < s.ballot.NumProposals(); i++ {
				s.modProposals[uint64(i)] = struct{}{}
			}
			s.modVoters[chairperson] = struct{}{}
		}

		idxs := make([]uint64, 0, len(s.modProposals))
		for idx := range s.modProposals {
			idxs = append(idxs, idx)
		}
		sort.Slice(idxs, func(i, j int) bool {
			return idxs[i] < idxs[j]
		})
		for _, idx := range idxs {
			var p ballot.Proposal
			p, err = s.ballot.Proposal(idx)
			if err != nil {
				return
			}
			val, err = json.Marshal(p)
			if err != nil {
				return
			}
			if err = s.set(fmt.Sprintf(KeyProposalBody, idx), val); err != nil {
				return
			}
		}

		for _, addr := range sortedAddresses(s.modVoters) {
			v := s.ballot.Voter(addr)
			if err = s.set(fmt.Sprintf(KeyVoter, addr[:]), marshalVoter(v)); err != nil {
				return
			}
		}
	}

	for _, addr := range sortedAddresses(s.modNonces) {
		val, err = rlp.EncodeToBytes(s.nonces[addr])
		if err != nil {
			return
		}
		if err = s.set(fmt.Sprintf(KeyNonce, addr[:]), val); err != nil {
			return
		}
	}

	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.newBallot = false
	s.modVoters = make(map[common.Address]struct{})
	s.modProposals = make(map[uint64]struct{})
	s.modNonces = make(map[common.Address]struct{})
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// Ballot returns the live ballot, nil before InitBallot.
func (s *State) Ballot() *ballot.Ballot {
	return s.ballot
}

// peekNonce reads a nonce without filling the cache, so concurrent readers
// of a committed state stay safe.
func (s *State) peekNonce(addr common.Address) (nonce uint64, err error) {
	nonce, ok := s.nonces[addr]
	if ok {
		return
	}
	val, err := s.get(fmt.Sprintf(KeyNonce, addr[:]))
	if err != nil || val == nil {
		return 0, err
	}
	err = rlp.DecodeBytes(val, &nonce)
	return
}

func (s *State) Nonce(addr common.Address) (nonce uint64, err error) {
	nonce, err = s.peekNonce(addr)
	if err != nil {
		return 0, err
	}
	s.nonces[addr] = nonce
	return
}

func (s *State) incNonce(addr common.Address) error {
	nonce, err := s.Nonce(addr)
	if err != nil {
		return err
	}
	s.nonces[addr] = nonce + 1
	s.modNonces[addr] = struct{}{}
	return nil
}

// InitBallot creates the ballot. It can only happen once per chain.
func (s *State) InitBallot(names []string, chairperson common.Address) (err error) {
	if s.ballot != nil {
		return ErrBallotAlreadyInitialized
	}
	b, err := ballot.New(names, chairperson)
	if err != nil {
		return err
	}
	s.ballot = b
	s.newBallot = true
	s.logger.Info("ballot initialized", "chairperson", chairperson.Hex(), "proposals", len(names))
	return
}

func (s *State) Verify(btx *tx.BallotTx, allowNonceGap bool) (succ bool, err error) {
	nonce, err := s.peekNonce(btx.Caller())
	if err != nil {
		return succ, err
	}
	if !(nonce == btx.Nonce || (allowNonceGap && nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	succ = btx.VerifySig(s.header.ChainId)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

// target picks the ballot an operation runs against: a throwaway clone when
// only validating.
// target returns a copy of the ballot to apply one operation on. The copy
// replaces the live ballot only once the nonce is bumped as well.
func (s *State) target() (*ballot.Ballot, error) {
	if s.ballot == nil {
		return nil, ErrBallotNotInitialized
	}
	return s.ballot.Clone(), nil
}

// GrantRightToVote grants every listed voter or none of them.
func (s *State) GrantRightToVote(caller common.Address, voters []common.Address, checkOnly bool) (events []*types.EventGrantRight, err error) {
	s.logger.Debug("apply grant", "caller", caller.Hex(), "voters", len(voters), "height", s.header.Height)
	b, err := s.target()
	if err != nil {
		return nil, err
	}
	for _, v := range voters {
		err = b.GrantRightToVote(caller, v)
		if err != nil {
			return nil, err
		}
	}
	if checkOnly {
		return
	}
	if err = s.incNonce(caller); err != nil {
		return nil, err
	}
	s.ballot = b
	for _, v := range voters {
		s.modVoters[v] = struct{}{}
		events = append(events, &types.EventGrantRight{
			Chairperson: caller,
			Voter:       v,
		})
	}
	return
}

func (s *State) Vote(caller common.Address, proposal uint64, checkOnly bool) (event *types.EventVote, err error) {
	s.logger.Debug("apply vote", "caller", caller.Hex(), "proposal", proposal, "height", s.header.Height)
	b, err := s.target()
	if err != nil {
		return nil, err
	}
	weight, err := b.Vote(caller, proposal)
	if err != nil || checkOnly {
		return nil, err
	}
	if err = s.incNonce(caller); err != nil {
		return nil, err
	}
	s.ballot = b
	p, _ := b.Proposal(proposal)
	s.modVoters[caller] = struct{}{}
	s.modProposals[proposal] = struct{}{}
	event = &types.EventVote{
		Voter:        caller,
		Proposal:     proposal,
		ProposalName: p.NameString(),
		Weight:       weight,
	}
	return
}

func (s *State) Delegate(caller, to common.Address, checkOnly bool) (event *types.EventDelegate, err error) {
	s.logger.Debug("apply delegate", "caller", caller.Hex(), "to", to.Hex(), "height", s.header.Height)
	b, err := s.target()
	if err != nil {
		return nil, err
	}
	res, err := b.Delegate(caller, to)
	if err != nil || checkOnly {
		return nil, err
	}
	if err = s.incNonce(caller); err != nil {
		return nil, err
	}
	s.ballot = b
	s.modVoters[caller] = struct{}{}
	if res.Counted {
		s.modProposals[res.Proposal] = struct{}{}
	} else {
		s.modVoters[res.Delegate] = struct{}{}
	}
	event = &types.EventDelegate{
		Voter:    caller,
		To:       to,
		Delegate: res.Delegate,
		Weight:   res.Weight,
		Counted:  res.Counted,
		Proposal: res.Proposal,
	}
	return
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
