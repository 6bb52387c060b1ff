package ballot

import "errors"

type Kind uint8

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindAlreadyVoted
	KindAlreadyHasRights
	KindNoRightToVote
	KindAlreadyVotedDelegate
	KindSelfDelegation
	KindDelegationLoop
	KindDelegateHasNoRight
	KindInvalidIndex
	KindInsufficientProposals
	KindNameTooLong
)

var kindNames = map[Kind]string{
	KindUnknown:               "Unknown",
	KindUnauthorized:          "Unauthorized",
	KindAlreadyVoted:          "AlreadyVoted",
	KindAlreadyHasRights:      "AlreadyHasRights",
	KindNoRightToVote:         "NoRightToVote",
	KindAlreadyVotedDelegate:  "AlreadyVotedDelegate",
	KindSelfDelegation:        "SelfDelegation",
	KindDelegationLoop:        "DelegationLoop",
	KindDelegateHasNoRight:    "DelegateHasNoRight",
	KindInvalidIndex:          "InvalidIndex",
	KindInsufficientProposals: "InsufficientProposals",
	KindNameTooLong:           "NameTooLong",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Error is a rejected ballot operation. Reason carries the exact message
// clients match on; errors.Is compares by Kind only.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthorized          = &Error{KindUnauthorized, "Only chairperson can give right to vote."}
	ErrVoterAlreadyVoted     = &Error{KindAlreadyVoted, "The voter already voted."}
	ErrAlreadyHasRights      = &Error{KindAlreadyHasRights, "The voter already has the right to vote."}
	ErrNoRightToVote         = &Error{KindNoRightToVote, "Has no right to vote"}
	ErrAlreadyVoted          = &Error{KindAlreadyVoted, "Already voted."}
	ErrAlreadyVotedDelegate  = &Error{KindAlreadyVotedDelegate, "You already voted."}
	ErrSelfDelegation        = &Error{KindSelfDelegation, "Self-delegation is disallowed."}
	ErrDelegationLoop        = &Error{KindDelegationLoop, "Found loop in delegation."}
	ErrDelegateHasNoRight    = &Error{KindDelegateHasNoRight, "Delegate has no right to vote."}
	ErrInvalidIndex          = &Error{KindInvalidIndex, "Proposal index out of range."}
	ErrInsufficientProposals = &Error{KindInsufficientProposals, "Not enough proposals provided"}
	ErrNameTooLong           = &Error{KindNameTooLong, "Proposal name longer than 32 bytes."}
)

// KindOf returns the ballot error kind wrapped in err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
