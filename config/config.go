package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calehh/ballot-app/actionlog"
	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

const (
	DefaultIndexerListen = "0.0.0.0:8080"
	DefaultIndexerDB     = "data/indexer.db"
)

type BallotAppConfig struct {
	Home string `mapstructure:"-"`

	LogFile       string `mapstructure:"log_file"`
	IndexerListen string `mapstructure:"indexer_listen"`
	IndexerDB     string `mapstructure:"indexer_db"`
	// IndexerInterval is the block polling period in milliseconds.
	IndexerInterval uint64 `mapstructure:"indexer_interval"`
}

func NewBallotAppConfig(home string) *BallotAppConfig {
	return &BallotAppConfig{
		Home:            home,
		LogFile:         actionlog.DefaultPath,
		IndexerListen:   DefaultIndexerListen,
		IndexerDB:       DefaultIndexerDB,
		IndexerInterval: 1000,
	}
}

// IndexerDBPath resolves a relative indexer database path against home.
func (c *BallotAppConfig) IndexerDBPath() string {
	if filepath.IsAbs(c.IndexerDB) {
		return c.IndexerDB
	}
	return filepath.Join(c.Home, c.IndexerDB)
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *BallotAppConfig `mapstructure:"app"`
}

func DefaultHome() string {
	return os.ExpandEnv("$HOME/.ballot")
}

func NewBallotConfig(home string) *Config {
	if len(home) == 0 {
		home = DefaultHome()
	}
	_ = os.MkdirAll(home+"/config", 0755)
	config := &Config{
		DefaultBallotCometConfig(),
		NewBallotAppConfig(home),
	}
	config.RootDir = home
	return config
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultBallotCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	cometConfig.Instrumentation.Prometheus = true
	cometConfig.Instrumentation.Namespace = "ballot"
	return cometConfig
}
