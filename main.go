package main

import (
	"flag"
	"log"
	"math/big"
	"os"
	"runtime"
	"time"

	"Keyhound/constants"
	"Keyhound/logger"
	kruntime "Keyhound/runtime"
	"Keyhound/store"
	"Keyhound/utils"
)

var localLog *log.Logger

func main() {
	localLog = log.New(os.Stdout, "", 0)

	cfg, importPath, debugMode, traceMode := setupFlags()

	if *debugMode {
		constants.DebugMode = true
		logger.LogStatus(localLog, constants.LogDebug, "Debug mode enabled")
	}
	if *traceMode {
		constants.TraceMode = true
	}

	logger.Banner()

	// IMPORTER
	if *importPath != "" {
		if err := handleImport(cfg.AddressIndexPath, *importPath); err != nil {
			logger.LogError(localLog, constants.LogError, err, "Import failed")
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Show all our settings with a clean output
	logger.LogHeaderStatus(localLog, constants.LogInfo,
		"Threads:   %-10d Producers:  %-10d", cfg.Threads, cfg.Producers)
	logger.LogStatus(localLog, constants.LogInfo,
		"Queue:     %-10d Grid Bits:  %-10d", cfg.QueueSize, cfg.GridNumBits)
	logger.LogStatus(localLog, constants.LogInfo,
		"Vanity:    %-10v Self-Check: %-10v",
		utils.BoolToEnabledDisabled(cfg.EnableVanity),
		utils.BoolToEnabledDisabled(cfg.RuntimePublicKeyCalculationCheck))
	logger.LogStatus(localLog, constants.LogInfo,
		"Source:    %-10s Network:    %-10s", cfg.SecretSource, cfg.Network)
	logger.LogStatus(localLog, constants.LogInfo,
		"System has %d Cores and %.1f GB RAM",
		runtime.NumCPU(), utils.TotalMemoryGB())
	logger.PrintSeparator(constants.LogInfo)

	finder, err := kruntime.NewFinder(cfg, localLog)
	if err != nil {
		localLog.Printf("%sInitialization error: %v", constants.LogError, err)
		os.Exit(1)
	}

	finder.Start()

	<-kruntime.AwaitShutdown(finder, localLog)
}

func handleImport(indexPath, importPath string) error {
	logger.LogHeaderStatus(localLog, constants.LogInfo, "Starting Address Import")

	index, err := store.NewLevelDBIndex(indexPath, localLog, false)
	if err != nil {
		return err
	}
	defer index.Close()

	logger.LogStatus(localLog, constants.LogInfo,
		"Importing hash160s from: %s", importPath)

	if _, err := index.ImportHash160s(importPath); err != nil {
		return err
	}

	logger.LogStatus(localLog, constants.LogInfo, "Address import completed successfully")
	return nil
}

func setupFlags() (kruntime.Config, *string, *bool, *bool) {
	threads := flag.Int("threads", constants.DefaultThreads, "Number of consumer worker threads")
	queueSize := flag.Int("queueSize", constants.DefaultQueueSize, "Batch queue capacity")
	delayEmpty := flag.Int("delayEmptyConsumer", int(constants.DefaultDelayEmptyConsumer/time.Millisecond),
		"Consumer sleep after an empty poll (ms)")
	selfCheck := flag.Bool("runtimePublicKeyCalculationCheck", false,
		"Re-derive every key through the reference library")
	enableVanity := flag.Bool("enableVanity", false, "Enable vanity address matching")
	vanityPattern := flag.String("vanityPattern", "", "Regex a Base58 address must fully match")
	statsSeconds := flag.Int("printStatisticsEveryNSeconds", int(constants.DefaultStatsPeriod/time.Second),
		"Statistics interval in seconds")
	indexPath := flag.String("addressIndexPath", "addresses.db", "Path of the HASH160 address index")

	producers := flag.Int("producers", constants.DefaultProducers, "Number of producer threads")
	gridNumBits := flag.Int("gridNumBits", 0, "Low bits enumerated per seed (batch = 2^bits)")
	killBitsHex := flag.String("killBits", "0", "256-bit hex mask cleared in every seed")
	runOnce := flag.Bool("runOnce", false, "Produce one batch per producer, then stop")
	network := flag.String("network", "mainnet", "mainnet or testnet (WIF and address encoding)")
	secretSource := flag.String("secretSource", "random", "random or file")
	secretsFile := flag.String("secretsFile", "", "Secrets file for the file source")
	secretFormat := flag.String("secretFormat", "BigIntegerDecimal",
		"BigIntegerDecimal, HexSha256, StringDoSha256 or DumpedPrivateKey")
	logSecretBase := flag.Bool("logSecretBase", false, "Log each grid's secret base")
	useGPU := flag.Bool("gpu", false, "Use the batched grid expansion path")

	importPath := flag.String("import", "", "Import hex hash160s from file into the index and exit")
	debugMode := flag.Bool("debug", false, "Enable debug mode")
	traceMode := flag.Bool("trace", false, "Enable trace mode (logs per-key misses)")

	flag.Usage = func() {
		logger.PrintSeparator(constants.LogStart)
		localLog.Printf("%s Keyhound Commands:", constants.LogStart)
		localLog.Printf("%s --addressIndexPath : HASH160 index to probe", constants.LogStart)
		localLog.Printf("%s --import           : Load hex hash160s into the index", constants.LogStart)
		localLog.Printf("%s --gridNumBits      : Grid size exponent (batch = 2^bits)", constants.LogStart)
		localLog.Printf("%s --secretSource     : random, or file with --secretsFile", constants.LogStart)
		localLog.Printf("%s --enableVanity     : Match addresses against --vanityPattern", constants.LogStart)
		localLog.Printf("%s --debug            : Enable Debug Mode", constants.LogStart)
		logger.PrintSeparator(constants.LogStart)
	}

	flag.Parse()

	killBits, ok := new(big.Int).SetString(*killBitsHex, 16)
	if !ok {
		localLog.Printf("%sinvalid configuration killBits: not a hex value: %s",
			constants.LogError, *killBitsHex)
		os.Exit(1)
	}

	cfg := kruntime.Config{
		Threads:                          *threads,
		QueueSize:                        *queueSize,
		DelayEmptyConsumer:               time.Duration(*delayEmpty) * time.Millisecond,
		RuntimePublicKeyCalculationCheck: *selfCheck,
		EnableVanity:                     *enableVanity,
		VanityPattern:                    *vanityPattern,
		StatsPeriod:                      time.Duration(*statsSeconds) * time.Second,
		AddressIndexPath:                 *indexPath,
		Producers:                        *producers,
		GridNumBits:                      *gridNumBits,
		KillBits:                         killBits,
		RunOnce:                          *runOnce,
		Network:                          *network,
		SecretSource:                     *secretSource,
		SecretsFile:                      *secretsFile,
		SecretFormat:                     *secretFormat,
		LogSecretBase:                    *logSecretBase,
		UseGPU:                           *useGPU,
	}

	return cfg, importPath, debugMode, traceMode
}
