package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/calehh/ballot-app/actionlog"
	"github.com/calehh/ballot-app/ballot"
	app_config "github.com/calehh/ballot-app/config"
	"github.com/calehh/ballot-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long: `Initialize validators's and node's configuration files.
The genesis app_state deploys the ballot with the given proposals.`,
	Args: cobra.ExactArgs(0),
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "config")
	initCmd.Flags().String(types.FlagProposals, strings.Join(types.DefaultProposals, ","), "comma separated proposal names")
	initCmd.Flags().String(types.FlagChairperson, "", "chairperson address, defaults to the validator key address")
	initCmd.Flags().String(types.FlagLogFile, actionlog.DefaultPath, "action log file")
}

func splitProposals(s string) (names []string) {
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return
}

// newBallotGenesis checks the proposals the way InitChain will before they
// are written to genesis.
func newBallotGenesis(proposals []string, chair common.Address) (*types.BallotGenesis, error) {
	if _, err := ballot.New(proposals, chair); err != nil {
		return nil, err
	}
	return &types.BallotGenesis{
		Chairperson: chair,
		Proposals:   proposals,
	}, nil
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	proposalsFlag, _ := cmd.Flags().GetString(types.FlagProposals)
	chairFlag, _ := cmd.Flags().GetString(types.FlagChairperson)
	logFile, _ := cmd.Flags().GetString(types.FlagLogFile)

	alog, err := actionlog.Open(logFile, cmtlog.NewNopLogger())
	if err != nil {
		return err
	}

	proposals := splitProposals(proposalsFlag)
	alog.Writef("proposals", proposals)
	if len(proposals) < ballot.MinProposals {
		alog.Writef("error", ballot.ErrInsufficientProposals.Error())
		return ballot.ErrInsufficientProposals
	}
	if chainID == "" {
		chainID = "ballot-" + uuid.NewString()
	}

	appConfig := app_config.NewBallotConfig(home)
	genFile := appConfig.GenesisFile()
	if _, err := os.Stat(genFile); err == nil && !overwrite {
		return fmt.Errorf("genesis file %s already exists, use --%s to replace it", genFile, types.FlagOverwrite)
	}

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	alog.Writef("validator", map[string]string{"nodeId": nodeID, "address": pk.Address().String()})

	chair := common.BytesToAddress(pk.Address())
	if chairFlag != "" {
		if !common.IsHexAddress(chairFlag) {
			return fmt.Errorf("invalid chairperson address %q", chairFlag)
		}
		chair = common.HexToAddress(chairFlag)
	}
	genesis, err := newBallotGenesis(proposals, chair)
	if err != nil {
		alog.Writef("error", err.Error())
		return err
	}
	appState, err := genesis.Marshal()
	if err != nil {
		return err
	}
	alog.Writef("deploy", genesis)

	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators: []types.GenesisValidator{
			{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower},
		},
		AppState: appState,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		alog.Writef("error", err.Error())
		return fmt.Errorf("Failed to export genesis file %v", err)
	}
	alog.Writef("genesis", map[string]string{"chainId": chainID, "file": genFile})

	configFile := app_config.ConfigFile(appConfig.RootDir)
	if err = app_config.WriteConfigFile(configFile, appConfig); err != nil {
		alog.Writef("error", err.Error())
		return fmt.Errorf("write config file: %w", err)
	}
	alog.Writef("config", configFile)
	alog.Separator()

	return displayInfo(printInfo{
		ChainID:    chainID,
		NodeID:     nodeID,
		AppMessage: appGenesis.AppState,
	})
}
