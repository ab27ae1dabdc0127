package constants

import (
	"runtime"
	"time"
)

// Package-level runtime switches, set once during startup.
var (
	DebugMode  bool
	TraceMode  bool // also enables per-key miss records
	LineLength = 65 // max line length for wrapped status output
)

// Search engine defaults. All of them can be overridden on the command line.
var (
	DefaultProducers = 1
	DefaultThreads   = runtime.NumCPU()
)

const (
	DefaultQueueSize          = 32
	DefaultDelayEmptyConsumer = 50 * time.Millisecond
	DefaultStatsPeriod        = 10 * time.Second

	// AwaitQueueEmpty bounds the consumer drain during shutdown. Batches
	// still queued after this duration are dropped.
	AwaitQueueEmpty = 60 * time.Second

	// MaxGridNumBits caps the grid expansion; 2^24 keys per batch is the
	// largest batch a single queue slot should ever carry.
	MaxGridNumBits = 24

	Hash160Size = 20
)

// FoundKeysPath is where hit key details are mirrored outside the log.
var FoundKeysPath = "found.txt"

// Log prefixes, bracketed and padded like the rest of the status output.
var (
	LogStart = "[⌛️ START] "
	LogStats = "[📝 STATS] "
	LogQueue = "[🧵 QUEUE] "
	LogWarn  = "[⏰ ALARM] "
	LogError = "[❌ ERROR] "
	LogDebug = "[🔍 DEBUG] "
	LogCheck = "[✨ CHECK] "
	LogInfo  = "[🔍  INFO] "
	LogDB    = "[📁 -DATA] "
	LogVideo = "[🎮 -GPU-] "
)
