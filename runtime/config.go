package runtime

import (
	"Keyhound/constants"
	"Keyhound/generator"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
)

// ConfigError names the offending field; it is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// Config is the full set of recognised options.
type Config struct {
	// Consumer side
	Threads                          int
	QueueSize                        int
	DelayEmptyConsumer               time.Duration
	RuntimePublicKeyCalculationCheck bool
	EnableVanity                     bool
	VanityPattern                    string
	StatsPeriod                      time.Duration
	AddressIndexPath                 string
	AwaitQueueEmpty                  time.Duration

	// Producer side
	Producers     int
	GridNumBits   int
	KillBits      *big.Int
	RunOnce       bool
	LogSecretBase bool
	Network       string
	SecretSource  string
	SecretsFile   string
	SecretFormat  string
	UseGPU        bool
}

// Validate checks every field and fills in defaults for the optional ones.
func (cfg *Config) Validate() error {
	if cfg.Threads <= 0 {
		return &ConfigError{"threads", "must be greater than 0"}
	}
	if cfg.QueueSize <= 0 {
		return &ConfigError{"queueSize", "must be greater than 0"}
	}
	if cfg.DelayEmptyConsumer < 0 {
		return &ConfigError{"delayEmptyConsumer", "must not be negative"}
	}
	if cfg.StatsPeriod <= 0 {
		return &ConfigError{"printStatisticsEveryNSeconds", "period must be greater than 0"}
	}
	if cfg.AddressIndexPath == "" {
		return &ConfigError{"addressIndexPath", "must be set"}
	}
	if cfg.AwaitQueueEmpty <= 0 {
		cfg.AwaitQueueEmpty = constants.AwaitQueueEmpty
	}

	if cfg.EnableVanity {
		if _, err := regexp.Compile(cfg.VanityPattern); err != nil {
			return &ConfigError{"vanityPattern", err.Error()}
		}
	}

	if cfg.Producers <= 0 {
		return &ConfigError{"producers", "must be greater than 0"}
	}
	if cfg.GridNumBits < 0 || cfg.GridNumBits > constants.MaxGridNumBits {
		return &ConfigError{"gridNumBits",
			fmt.Sprintf("must be in [0, %d]", constants.MaxGridNumBits)}
	}
	if cfg.KillBits == nil {
		cfg.KillBits = new(big.Int)
	}
	if cfg.KillBits.Sign() < 0 || cfg.KillBits.BitLen() > 256 {
		return &ConfigError{"killBits", "must be an unsigned 256-bit value"}
	}

	if _, err := cfg.Params(); err != nil {
		return &ConfigError{"network", err.Error()}
	}

	switch cfg.SecretSource {
	case "random":
	case "file":
		if cfg.SecretsFile == "" {
			return &ConfigError{"secretSource", "file source needs a secrets file path"}
		}
		if _, err := generator.ParseSecretFormat(cfg.SecretFormat); err != nil {
			return &ConfigError{"secretFormat", err.Error()}
		}
		if cfg.Producers > 1 {
			return &ConfigError{"producers", "a file secret source supports a single producer"}
		}
	default:
		return &ConfigError{"secretSource", fmt.Sprintf("unknown source %q", cfg.SecretSource)}
	}

	return nil
}

// Params resolves the configured network.
func (cfg *Config) Params() (*chaincfg.Params, error) {
	switch cfg.Network {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	}
	return nil, fmt.Errorf("unknown network %q", cfg.Network)
}
