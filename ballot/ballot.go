// Package ballot implements a delegated voting ballot: a chairperson grants
// voting rights, voters vote directly or delegate their weight, and the
// proposal with the greatest tally wins.
//
// A Ballot is safe for concurrent use. Every operation runs under a single
// lock and validates all of its preconditions before touching state, so a
// rejected operation leaves the ballot unchanged.
package ballot

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

const MinProposals = 2

type Proposal struct {
	Name      common.Hash `json:"name"`
	VoteCount uint64      `json:"voteCount"`
}

func (p Proposal) NameString() string {
	return ParseBytes32String(p.Name)
}

type Voter struct {
	Weight   uint64         `json:"weight"`
	Voted    bool           `json:"voted"`
	Delegate common.Address `json:"delegate"`
	Vote     uint64         `json:"vote"`
}

func (v Voter) HasDelegate() bool {
	return v.Delegate != (common.Address{})
}

// Delegation describes where a delegated weight ended up.
type Delegation struct {
	Delegate common.Address
	Weight   uint64
	// Counted is set when the delegate had already voted and the weight went
	// straight into Proposal's tally.
	Counted  bool
	Proposal uint64
}

type Ballot struct {
	mtx sync.RWMutex

	chairperson common.Address
	proposals   []Proposal
	voters      map[common.Address]*Voter
}

func New(names []string, chairperson common.Address) (b *Ballot, err error) {
	if len(names) < MinProposals {
		err = ErrInsufficientProposals
		return
	}
	proposals := make([]Proposal, len(names))
	for i, name := range names {
		proposals[i].Name, err = FormatBytes32String(name)
		if err != nil {
			return nil, err
		}
	}
	b = &Ballot{
		chairperson: chairperson,
		proposals:   proposals,
		voters:      make(map[common.Address]*Voter),
	}
	b.voters[chairperson] = &Voter{Weight: 1}
	return
}

// Restore rebuilds a ballot from previously exported records.
func Restore(chairperson common.Address, proposals []Proposal, voters map[common.Address]Voter) (b *Ballot, err error) {
	if len(proposals) < MinProposals {
		err = ErrInsufficientProposals
		return
	}
	b = &Ballot{
		chairperson: chairperson,
		proposals:   make([]Proposal, len(proposals)),
		voters:      make(map[common.Address]*Voter, len(voters)),
	}
	copy(b.proposals, proposals)
	for addr, v := range voters {
		v := v
		b.voters[addr] = &v
	}
	return
}

func (b *Ballot) Clone() *Ballot {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	n := &Ballot{
		chairperson: b.chairperson,
		proposals:   make([]Proposal, len(b.proposals)),
		voters:      make(map[common.Address]*Voter, len(b.voters)),
	}
	copy(n.proposals, b.proposals)
	for addr, v := range b.voters {
		c := *v
		n.voters[addr] = &c
	}
	return n
}

func (b *Ballot) voter(addr common.Address) Voter {
	if v, ok := b.voters[addr]; ok {
		return *v
	}
	return Voter{}
}

func (b *Ballot) GrantRightToVote(caller, target common.Address) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if caller != b.chairperson {
		return ErrUnauthorized
	}
	v := b.voter(target)
	if v.Voted {
		return ErrVoterAlreadyVoted
	}
	if v.Weight != 0 {
		return ErrAlreadyHasRights
	}
	v.Weight = 1
	b.voters[target] = &v
	return nil
}

// Vote casts the caller's whole weight for proposal idx and returns that
// weight.
func (b *Ballot) Vote(caller common.Address, idx uint64) (weight uint64, err error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	v := b.voter(caller)
	if v.Weight == 0 {
		return 0, ErrNoRightToVote
	}
	if v.Voted {
		return 0, ErrAlreadyVoted
	}
	if idx >= uint64(len(b.proposals)) {
		return 0, ErrInvalidIndex
	}
	v.Voted = true
	v.Vote = idx
	b.voters[caller] = &v
	b.proposals[idx].VoteCount += v.Weight
	return v.Weight, nil
}

// resolve follows the delegation chain starting at to. The walk visits at
// most one node per stored voter, so a longer chain can only be a cycle.
func (b *Ballot) resolve(caller, to common.Address) (common.Address, error) {
	limit := len(b.voters) + 1
	for steps := 0; ; steps++ {
		v, ok := b.voters[to]
		if !ok || !v.HasDelegate() {
			return to, nil
		}
		if steps >= limit {
			return to, ErrDelegationLoop
		}
		to = v.Delegate
		if to == caller {
			return to, ErrDelegationLoop
		}
	}
}

func (b *Ballot) Delegate(caller, to common.Address) (res Delegation, err error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	sender := b.voter(caller)
	if sender.Voted {
		err = ErrAlreadyVotedDelegate
		return
	}
	if to == caller {
		err = ErrSelfDelegation
		return
	}
	final, err := b.resolve(caller, to)
	if err != nil {
		return
	}
	delegate := b.voter(final)
	if delegate.Weight == 0 {
		err = ErrDelegateHasNoRight
		return
	}

	res = Delegation{
		Delegate: final,
		Weight:   sender.Weight,
	}
	if delegate.Voted {
		b.proposals[delegate.Vote].VoteCount += sender.Weight
		res.Counted = true
		res.Proposal = delegate.Vote
	} else {
		delegate.Weight += sender.Weight
		b.voters[final] = &delegate
	}
	sender.Voted = true
	sender.Delegate = final
	sender.Weight = 0
	b.voters[caller] = &sender
	return
}

// WinningProposal returns the index of the proposal with the strictly
// greatest tally. Ties go to the lowest index, so an untouched ballot
// reports 0.
func (b *Ballot) WinningProposal() (idx uint64) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.winningProposal()
}

func (b *Ballot) winningProposal() (idx uint64) {
	var best uint64
	for i, p := range b.proposals {
		if p.VoteCount > best {
			best = p.VoteCount
			idx = uint64(i)
		}
	}
	return
}

func (b *Ballot) WinnerName() string {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.proposals[b.winningProposal()].NameString()
}

func (b *Ballot) Chairperson() common.Address {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.chairperson
}

func (b *Ballot) NumProposals() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return len(b.proposals)
}

func (b *Ballot) Proposal(idx uint64) (p Proposal, err error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	if idx >= uint64(len(b.proposals)) {
		err = ErrInvalidIndex
		return
	}
	p = b.proposals[idx]
	return
}

func (b *Ballot) Proposals() []Proposal {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	res := make([]Proposal, len(b.proposals))
	copy(res, b.proposals)
	return res
}

func (b *Ballot) Voter(addr common.Address) Voter {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.voter(addr)
}

type VoterEntry struct {
	Address common.Address
	Voter
}

// Voters returns every stored voter record ordered by address.
func (b *Ballot) Voters() []VoterEntry {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	res := make([]VoterEntry, 0, len(b.voters))
	for addr, v := range b.voters {
		res = append(res, VoterEntry{Address: addr, Voter: *v})
	}
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Address[:], res[j].Address[:]) < 0
	})
	return res
}
