package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/ballot-app/actionlog"
	"github.com/calehh/ballot-app/app"
	app_config "github.com/calehh/ballot-app/config"
	"github.com/calehh/ballot-app/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var homeDir string

var clCmd = &cobra.Command{
	Use:   "ballot",
	Short: "Ballot is a delegated voting chain",
	Long: `A CometBFT application that runs a single ballot:
the chairperson grants voting rights, voters vote or delegate,
and the proposal with the most weight wins.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	clCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func run(cmd *cobra.Command, args []string) {
	if homeDir == "" {
		homeDir = app_config.DefaultHome()
	}

	appConfig := app_config.NewBallotConfig(homeDir)
	appConfig.SetRoot(homeDir)
	viper.SetConfigFile(app_config.ConfigFile(homeDir))

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Reading config: %v", err)
	}
	if err := viper.Unmarshal(appConfig); err != nil {
		log.Fatalf("Decoding config: %v", err)
	}
	if err := appConfig.ValidateBasic(); err != nil {
		log.Fatalf("Invalid configuration data: %v", err)
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	appConfig.App.Home = homeDir
	alog, err := actionlog.Open(appConfig.App.LogFile, logger)
	if err != nil {
		log.Fatalf("open action log err:%v", err)
	}

	app, err := app.NewBallotApp(appConfig.App, appConfig.Instrumentation.Namespace, logger)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	app.Start(node.BlockStore())
	err = node.Start()
	if err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}
	alog.Writef("node started", map[string]string{
		"home":    homeDir,
		"nodeId":  string(nodeKey.ID()),
		"chainId": node.GenesisDoc().ChainID,
	})

	time.Sleep(time.Second * 5)
	if !node.IsRunning() {
		log.Fatal("comet node unable to run")
	}

	// start indexer
	rpcUrl, err := url.Parse(appConfig.RPC.ListenAddress)
	if err != nil {
		log.Fatalf("new parse url err %s", err.Error())
	}
	rpcUrl.Scheme = "http"
	rpcCli, err := comethttp.New(rpcUrl.String(), "/websocket")
	if err != nil {
		log.Fatalf("new rpc client err %s", err.Error())
	}
	idx, err := indexer.NewChainIndexer(
		logger,
		appConfig.App.IndexerDBPath(),
		rpcCli,
		time.Duration(appConfig.App.IndexerInterval)*time.Millisecond,
	)
	if err != nil {
		log.Fatalf("new chain indexer err %s", err.Error())
	}
	ctx, cancel := context.WithCancel(context.Background())
	go idx.Start(ctx)
	go func() {
		err := indexer.NewService(appConfig.App.IndexerListen, idx).Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("indexer service stopped", "err", err)
		}
	}()

	defer func() {
		log.Println("shut done...")
		alog.Writef("node stopping", fmt.Sprintf("height %d", node.BlockStore().Height()))
		alog.Separator()
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			err = node.Stop()
			if err != nil {
				log.Fatalf("stop comet node err %s", err.Error())
			}
			node.Wait()
			app.Stop()
			idx.Close()
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
