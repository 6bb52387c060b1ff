package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Grant struct {
	Id          uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Voter       string `gorm:"index" json:"voter"`
	Chairperson string `json:"chairperson"`
	Height      uint64 `json:"height"`
}

type Vote struct {
	Id           uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Voter        string `gorm:"index" json:"voter"`
	Proposal     uint64 `json:"proposal"`
	ProposalName string `json:"proposal_name"`
	Weight       uint64 `json:"weight"`
	Height       uint64 `json:"height"`
}

type Delegation struct {
	Id       uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Voter    string `gorm:"index" json:"voter"`
	To       string `json:"to"`
	Delegate string `gorm:"index" json:"delegate"`
	Weight   uint64 `json:"weight"`
	Counted  bool   `json:"counted"`
	Proposal uint64 `json:"proposal"`
	Height   uint64 `json:"height"`
}

// Tally is the per-proposal total of the weight recorded by vote events and
// by delegations to voters who had already voted.
type Tally struct {
	Id        uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"-"`
	Proposal  uint64 `gorm:"unique_index" json:"proposal"`
	Name      string `json:"name"`
	VoteCount uint64 `json:"vote_count"`
}
