// driftd is a development chain driver: it boots a ledger chain from a
// chain spec, registers a demo domain runtime, schedules an upgrade and
// seals blocks until the upgrade activates.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/driftchain/driftchain/core"
	"github.com/driftchain/driftchain/core/ledger"
	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/core/types"
	"github.com/driftchain/driftchain/miner"
	"github.com/driftchain/driftchain/registry"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the chain database (in-memory when empty)",
	}
	blocksFlag = &cli.Uint64Flag{
		Name:  "blocks",
		Usage: "Number of blocks to seal before exiting",
		Value: 10,
	}
	recordProofFlag = &cli.BoolFlag{
		Name:  "record-proof",
		Usage: "Record a storage proof for every sealed block",
	}
	chainSpecFlag = &cli.StringFlag{
		Name:  "chainspec",
		Usage: "Path to the yaml chain specification",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write JSON logs to this file (rotated)",
	}
)

func main() {
	app := &cli.App{
		Name:  "driftd",
		Usage: "driftchain development node",
		Flags: []cli.Flag{
			dataDirFlag,
			blocksFlag,
			recordProofFlag,
			chainSpecFlag,
			verbosityFlag,
			logFileFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) {
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	if path := ctx.String(logFileFlag.Name); path != "" {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 3,
		}
		writer := io.MultiWriter(os.Stderr, rotated)
		log.SetDefault(log.NewLogger(log.JSONHandlerWithLevel(writer, level)))
		return
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, true)))
}

func openDatabase(ctx *cli.Context) (ethdb.KeyValueStore, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return memorydb.New(), nil
	}
	return leveldb.New(filepath.Join(dataDir, "chaindata"), 128, 1024, "driftd", false)
}

func run(ctx *cli.Context) error {
	setupLogging(ctx)

	spec, err := loadChainSpec(ctx.String(chainSpecFlag.Name))
	if err != nil {
		return err
	}
	kv, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	genesisState, err := spec.genesisState()
	if err != nil {
		return err
	}
	db := state.NewDatabase(kv)
	rt := ledger.NewRuntime(ledger.DefaultVersion())
	chain, err := core.NewChain(db, rt, &core.Genesis{State: genesisState})
	if err != nil {
		return err
	}

	oracle, err := registry.NewCachedOracle(registry.EmbeddedVersionOracle{}, 16)
	if err != nil {
		return err
	}
	reg, err := registry.NewRegistry(kv, oracle, spec.UpgradeDelay)
	if err != nil {
		return err
	}
	defer reg.Stop()
	if err := reg.Configs().ApplyGenesis(spec.registryGenesis()); err != nil {
		return err
	}

	events := make(chan registry.RuntimeUpgradedEvent, 16)
	sub := reg.SubscribeRuntimeUpgrades(events)
	defer sub.Unsubscribe()

	worker := miner.NewWorker(chain, reg, ctx.Bool(recordProofFlag.Name))
	return devLoop(ctx, reg, worker, events)
}

// devLoop registers a demo runtime, schedules an upgrade for it and seals
// blocks until both the requested count and the activation are reached.
func devLoop(ctx *cli.Context, reg *registry.Registry,
	worker *miner.Worker, events <-chan registry.RuntimeUpgradedEvent) error {

	genesis, err := demoRuntimeGenesis("evm", 1)
	if err != nil {
		return err
	}
	id, err := reg.Register(registry.RootOrigin(), "evm", types.RuntimeKindEVM, genesis, 0)
	if err != nil {
		return err
	}

	upgraded, err := demoRuntimeGenesis("evm", 2)
	if err != nil {
		return err
	}
	activation, err := reg.ScheduleUpgrade(registry.RootOrigin(), id, upgraded, 0)
	if err != nil {
		return err
	}
	log.Info("Demo runtime upgrade scheduled", "id", id, "activation", activation)

	blocks := ctx.Uint64(blocksFlag.Name)
	if activation > blocks {
		blocks = activation
	}
	for n := uint64(1); n <= blocks; n++ {
		inherent := &core.InherentData{Timestamp: uint64(time.Now().Unix())}
		if _, err := worker.CommitBlock(inherent); err != nil {
			return err
		}
		drainUpgradeEvents(events)
	}

	object, err := reg.Runtime(id)
	if err != nil {
		return err
	}
	log.Info("Demo runtime after run", "id", id, "specVersion", object.Version.SpecVersion,
		"upgrades", object.UpgradeCount)
	return nil
}

func drainUpgradeEvents(events <-chan registry.RuntimeUpgradedEvent) {
	for {
		select {
		case ev := <-events:
			log.Info("Runtime upgraded", "id", ev.RuntimeID, "height", ev.Height,
				"specVersion", ev.SpecVersion)
		default:
			return
		}
	}
}

// demoRuntimeGenesis builds an encoded raw genesis whose code embeds the
// given spec version.
func demoRuntimeGenesis(specName string, specVersion uint32) ([]byte, error) {
	version := types.VersionInfo{
		SpecName:    specName,
		ImplName:    "driftd-demo",
		SpecVersion: specVersion,
		ImplVersion: 1,
	}
	code, err := registry.EncodeRuntimeCode(version, []byte("demo runtime payload"))
	if err != nil {
		return nil, err
	}
	return registry.NewRawGenesisWithCode(code).Encode()
}
