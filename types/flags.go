package types

const (
	FlagHome        = "home"
	FlagChainID     = "chain-id"
	FlagOverwrite   = "overwrite"
	FlagProposals   = "proposals"
	FlagChairperson = "chairperson"
	FlagLogFile     = "logfile"
)
