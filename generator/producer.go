package generator

import (
	"Keyhound/constants"
	"Keyhound/keyutil"
	"Keyhound/lifecycle"
	"Keyhound/logger"
	"errors"
	"log"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg"
)

// BatchSink accepts finished batches. Offer blocks while the sink is full
// and returns false once the stop flag is raised.
type BatchSink interface {
	Offer(batch []*PublicKeyBytes) bool
}

// Kernel expands one grid base into all 2^gridNumBits public points in a
// single call, amortising the scalar multiply via
// P(base|k) = P(base) + k*G. Each result is the 65-byte uncompressed point
// for key number k; a nil entry marks the point at infinity. Serialization
// of the compressed form and the HASH160s stay on the host.
type Kernel interface {
	PublicKeys(base *big.Int, gridNumBits int) ([][]byte, error)
}

// ProducerConfig carries the producer-side options.
type ProducerConfig struct {
	GridNumBits   int
	KillBits      *big.Int
	RunOnce       bool
	LogSecretBase bool
	Params        *chaincfg.Params
}

// Producer turns seed secrets into batches of derived public keys and hands
// them to the sink. With a Kernel it is the batched variant; without one it
// derives each key with a scalar multiply.
type Producer struct {
	cfg    ProducerConfig
	source SecretSource
	sink   BatchSink
	kernel Kernel
	stop   *lifecycle.StopToken
	log    *log.Logger

	// onFinished is the completion callback, invoked exactly once when the
	// run loop exits.
	onFinished func()

	killMask  *big.Int
	batchSize int
}

// NewProducer builds the canonical CPU producer. kernel may be nil.
func NewProducer(cfg ProducerConfig, source SecretSource, sink BatchSink, kernel Kernel,
	stop *lifecycle.StopToken, onFinished func(), localLog *log.Logger) *Producer {

	batchSize := 1 << cfg.GridNumBits

	// The kill mask must cover the enumerated low bits, otherwise the grid
	// would collide with itself.
	killMask := new(big.Int).Or(cfg.KillBits, big.NewInt(int64(batchSize-1)))

	return &Producer{
		cfg:        cfg,
		source:     source,
		sink:       sink,
		kernel:     kernel,
		stop:       stop,
		log:        localLog,
		onFinished: onFinished,
		killMask:   killMask,
		batchSize:  batchSize,
	}
}

// BatchSize is the number of keys per batch, 2^gridNumBits.
func (p *Producer) BatchSize() int {
	return p.batchSize
}

// Run loops until the source is exhausted, runOnce completes or the stop
// flag is raised. A batch in progress is always finished and offered before
// the loop exits.
func (p *Producer) Run() {
	defer func() {
		if p.onFinished != nil {
			p.onFinished()
		}
	}()

	for p.stop.ShouldRun() {
		seed, err := p.source.Next()
		if err != nil {
			if !errors.Is(err, ErrExhausted) {
				logger.LogError(p.log, constants.LogError, err, "secret source failed")
			}
			return
		}

		base := p.secretBase(seed)
		batch := p.ExpandGrid(base)

		if !p.sink.Offer(batch) {
			// Stop was raised while the queue was full.
			return
		}

		if p.cfg.RunOnce {
			return
		}
	}
}

// secretBase applies the kill mask to a sampled seed.
func (p *Producer) secretBase(seed *big.Int) *big.Int {
	base := keyutil.KillBits(seed, p.killMask)

	if p.cfg.LogSecretBase {
		logger.LogStatus(p.log, constants.LogInfo,
			"secretBase: %064x/%d", base, p.cfg.GridNumBits)
	}
	logger.LogDebug(p.log, constants.LogDebug,
		"seed: %064x killMask: %064x secretBase: %064x", seed, p.killMask, base)

	return base
}

// ExpandGrid derives the full batch for one base. The kernel path falls back
// to host derivation when the kernel fails.
func (p *Producer) ExpandGrid(base *big.Int) []*PublicKeyBytes {
	batch := make([]*PublicKeyBytes, p.batchSize)

	if p.kernel != nil {
		points, err := p.kernel.PublicKeys(base, p.cfg.GridNumBits)
		if err == nil && len(points) == p.batchSize {
			for k := range batch {
				secret := keyutil.ComposeKey(base, int64(k))
				batch[k] = NewPublicKeyBytesFromUncompressed(secret, points[k])
			}
			return batch
		}
		if err != nil {
			logger.LogError(p.log, constants.LogError, err,
				"grid kernel failed, deriving batch on host")
		}
	}

	for k := range batch {
		secret := keyutil.ComposeKey(base, int64(k))
		batch[k] = NewPublicKeyBytes(secret)
		if batch[k].Invalid {
			logger.LogDebug(p.log, constants.LogDebug,
				"marked invalid entry for secret %s", secret)
		}
	}
	return batch
}
