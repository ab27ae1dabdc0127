// Package consumer drains key batches from the queue and runs the per-key
// verification pipeline: membership probes, optional self-check, hit
// logging and vanity matching.
package consumer

import (
	"Keyhound/constants"
	"Keyhound/generator"
	"Keyhound/keyutil"
	"Keyhound/lifecycle"
	"Keyhound/logger"
	"Keyhound/queue"
	"Keyhound/store"
	"Keyhound/utils"
	"fmt"
	"log"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
)

// Stable record prefixes. Tooling greps for these; do not reformat.
const (
	MissPrefix      = "miss: Could not find the address: "
	HitPrefix       = "hit: Found the address: "
	VanityHitPrefix = "vanity pattern match: "
	HitSafePrefix   = "hit: safe log: "
)

// Config carries the consumer-side options.
type Config struct {
	Threads            int
	DelayEmptyConsumer time.Duration

	// RuntimePublicKeyCalculationCheck re-derives every key through the
	// reference library and compares fingerprints. Never aborts the search.
	RuntimePublicKeyCalculationCheck bool

	EnableVanity  bool
	VanityPattern string

	Params *chaincfg.Params
}

// Consumer owns the worker pool and the process-wide counters.
type Consumer struct {
	cfg    Config
	queue  *queue.BatchQueue
	index  store.AddressIndex
	stop   *lifecycle.StopToken
	log    *log.Logger
	vanity *regexp.Regexp

	startTime time.Time
	wg        sync.WaitGroup

	checkedKeys                    atomic.Int64
	checkedKeysTimeToContainsNanos atomic.Int64
	emptyConsumerRounds            atomic.Int64
	hits                           atomic.Int64
	vanityHits                     atomic.Int64
}

// New builds a consumer. The vanity pattern is compiled here, anchored so it
// must match the entire Base58 address; a broken pattern is a startup error.
func New(cfg Config, q *queue.BatchQueue, index store.AddressIndex,
	stop *lifecycle.StopToken, localLog *log.Logger) (*Consumer, error) {

	c := &Consumer{
		cfg:   cfg,
		queue: q,
		index: index,
		stop:  stop,
		log:   localLog,
	}

	if cfg.EnableVanity {
		compiled, err := regexp.Compile(`\A(?:` + cfg.VanityPattern + `)\z`)
		if err != nil {
			return nil, fmt.Errorf("invalid vanity pattern %q: %w", cfg.VanityPattern, err)
		}
		c.vanity = compiled
	}

	return c, nil
}

// Start launches the worker pool.
func (c *Consumer) Start() {
	c.startTime = time.Now()
	for i := 0; i < c.cfg.Threads; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	logger.LogStatus(c.log, constants.LogInfo,
		"Consumer pool - %d workers, queue %d", c.cfg.Threads, c.queue.Capacity())
}

// worker is one consumer thread. It owns a reusable 20-byte scratch buffer
// for its entire lifetime; the buffer is never shared. After the stop flag
// rises, one last drain runs so queued batches are not abandoned early.
func (c *Consumer) worker() {
	defer c.wg.Done()

	buf := make([]byte, constants.Hash160Size)

	for {
		c.drainQueue(buf)

		if !c.stop.ShouldRun() {
			return
		}

		c.emptyConsumerRounds.Add(1)
		select {
		case <-time.After(c.cfg.DelayEmptyConsumer):
		case <-c.stop.Done():
		}
	}
}

func (c *Consumer) drainQueue(buf []byte) {
	for {
		batch := c.queue.Poll()
		if batch == nil {
			return
		}
		c.consumeBatch(batch, buf)
	}
}

// consumeBatch runs the pipeline over one batch. A panic from one batch is
// logged and must not take the worker down.
func (c *Consumer) consumeBatch(batch []*generator.PublicKeyBytes, buf []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogError(c.log, constants.LogError,
				fmt.Errorf("%v", r), "recovered in consumeBatch")
		}
	}()

	for _, pk := range batch {
		c.checkKey(pk, buf)
	}
}

// checkKey is the per-key pipeline, in fixed order: probes, self-check, hit
// handling, vanity, miss trace.
func (c *Consumer) checkKey(pk *generator.PublicKeyBytes, buf []byte) {
	if pk.Invalid {
		return
	}

	copy(buf, pk.Hash160Uncompressed[:])
	containsUncompressed, err := c.containsTimed(buf)
	if err != nil {
		logger.LogError(c.log, constants.LogError, err, "uncompressed probe failed, skipping key")
		return
	}

	copy(buf, pk.Hash160Compressed[:])
	containsCompressed, err := c.containsTimed(buf)
	if err != nil {
		logger.LogError(c.log, constants.LogError, err, "compressed probe failed, skipping key")
		return
	}

	if c.cfg.RuntimePublicKeyCalculationCheck {
		c.selfCheck(pk)
	}

	if containsUncompressed {
		c.emitHit(pk, pk.Uncompressed[:], false)
	}

	if containsCompressed {
		c.emitHit(pk, pk.Compressed[:], true)
	}

	if c.vanity != nil {
		c.checkVanity(pk, pk.Hash160Uncompressed[:], pk.Uncompressed[:], false)
		c.checkVanity(pk, pk.Hash160Compressed[:], pk.Compressed[:], true)
	}

	if !containsUncompressed && !containsCompressed && constants.TraceMode {
		c.emitMiss(pk, pk.Uncompressed[:], false)
		c.emitMiss(pk, pk.Compressed[:], true)
	}
}

// containsTimed probes the index and accounts the probe latency.
func (c *Consumer) containsTimed(hash160 []byte) (bool, error) {
	timeBefore := time.Now()
	found, err := c.index.Contains(hash160)
	delta := time.Since(timeBefore)

	c.checkedKeys.Add(1)
	c.checkedKeysTimeToContainsNanos.Add(delta.Nanoseconds())

	return found, err
}

// emitHit logs the safe record first: if the formatted details throw for
// any reason the raw secret is already logged.
func (c *Consumer) emitHit(pk *generator.PublicKeyBytes, pubSerialized []byte, compressed bool) {
	c.safeLog(pk)
	c.hits.Add(1)

	details, err := keyutil.CreateKeyDetails(pk.Secret, pubSerialized, compressed, c.cfg.Params)
	if err != nil {
		logger.LogError(c.log, constants.LogError, err, "formatting hit key details")
		return
	}

	c.log.Printf("%s%s", HitPrefix, details)

	if err := utils.WriteFound(details); err != nil {
		logger.LogError(c.log, constants.LogError, err, "writing found key")
	}
}

func (c *Consumer) checkVanity(pk *generator.PublicKeyBytes, hash160, pubSerialized []byte, compressed bool) {
	address := keyutil.Hash160ToBase58(hash160, c.cfg.Params)
	if !c.vanity.MatchString(address) {
		return
	}

	c.safeLog(pk)
	c.vanityHits.Add(1)

	details, err := keyutil.CreateKeyDetails(pk.Secret, pubSerialized, compressed, c.cfg.Params)
	if err != nil {
		logger.LogError(c.log, constants.LogError, err, "formatting vanity key details")
		return
	}

	c.log.Printf("%s%s", VanityHitPrefix, details)

	if err := utils.WriteFound(details); err != nil {
		logger.LogError(c.log, constants.LogError, err, "writing vanity key")
	}
}

func (c *Consumer) emitMiss(pk *generator.PublicKeyBytes, pubSerialized []byte, compressed bool) {
	details, err := keyutil.CreateKeyDetails(pk.Secret, pubSerialized, compressed, c.cfg.Params)
	if err != nil {
		return
	}
	c.log.Printf("%s%s", MissPrefix, details)
}

// safeLog writes the raw fields of a matching key, one line per field, in a
// fixed order. Nothing in here can fail before the secret is recorded.
func (c *Consumer) safeLog(pk *generator.PublicKeyBytes) {
	c.log.Printf("%ssecret: %s", HitSafePrefix, pk.Secret.String())
	c.log.Printf("%suncompressed: %x", HitSafePrefix, pk.Uncompressed[:])
	c.log.Printf("%scompressed: %x", HitSafePrefix, pk.Compressed[:])
	c.log.Printf("%shash160Uncompressed: %x", HitSafePrefix, pk.Hash160Uncompressed[:])
	c.log.Printf("%shash160Compressed: %x", HitSafePrefix, pk.Hash160Compressed[:])
}

// AwaitTermination waits for every worker to exit, bounded by timeout.
// Returns false when the bound is exceeded; batches still queued at that
// point are dropped.
func (c *Consumer) AwaitTermination(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		logger.LogStatus(c.log, constants.LogWarn,
			"Consumer pool did not drain within %s, dropping %d queued batches",
			timeout, c.queue.Size())
		return false
	}
}
