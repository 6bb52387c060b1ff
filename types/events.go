package types

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	EventGrantRightType = "grant_right"
	EventVoteType       = "vote"
	EventDelegateType   = "delegate"
)

type EventGrantRight struct {
	Chairperson common.Address `json:"chairperson"`
	Voter       common.Address `json:"voter"`
}

func EncodeEventGrantRight(event *EventGrantRight) abci.Event {
	return abci.Event{
		Type: EventGrantRightType,
		Attributes: []abci.EventAttribute{
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "chairperson", Value: event.Chairperson.Hex(), Index: false},
		},
	}
}

func DecodeEventGrantRight(originEvent abci.Event) *EventGrantRight {
	event := &EventGrantRight{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "voter":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Voter = common.HexToAddress(v.Value)
		case "chairperson":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Chairperson = common.HexToAddress(v.Value)
		}
	}
	return event
}

type EventVote struct {
	Voter        common.Address `json:"voter"`
	Proposal     uint64         `json:"proposal"`
	ProposalName string         `json:"proposalName"`
	Weight       uint64         `json:"weight"`
}

func EncodeEventVote(event *EventVote) abci.Event {
	return abci.Event{
		Type: EventVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "proposalName", Value: event.ProposalName, Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventVote(originEvent abci.Event) *EventVote {
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "voter":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Voter = common.HexToAddress(v.Value)
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "proposalName":
			event.ProposalName = v.Value
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

type EventDelegate struct {
	Voter    common.Address `json:"voter"`
	To       common.Address `json:"to"`
	Delegate common.Address `json:"delegate"`
	Weight   uint64         `json:"weight"`
	// Counted reports that Weight was added to Proposal right away because
	// the delegate had already voted.
	Counted  bool   `json:"counted"`
	Proposal uint64 `json:"proposal"`
}

func EncodeEventDelegate(event *EventDelegate) abci.Event {
	return abci.Event{
		Type: EventDelegateType,
		Attributes: []abci.EventAttribute{
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "to", Value: event.To.Hex(), Index: false},
			{Key: "delegate", Value: event.Delegate.Hex(), Index: true},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
			{Key: "counted", Value: fmt.Sprintf("%v", event.Counted), Index: false},
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: false},
		},
	}
}

func DecodeEventDelegate(originEvent abci.Event) *EventDelegate {
	event := &EventDelegate{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "voter", "to", "delegate":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			a := common.HexToAddress(v.Value)
			switch v.Key {
			case "voter":
				event.Voter = a
			case "to":
				event.To = a
			default:
				event.Delegate = a
			}
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		case "counted":
			counted, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Counted = counted
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		}
	}
	return event
}
