package consumer

import (
	"Keyhound/constants"
	"Keyhound/generator"
	"Keyhound/lifecycle"
	"Keyhound/queue"
	"Keyhound/store"
	"bytes"
	"log"
	"math/big"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
)

const (
	secretOneWIFUncompressed = "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf"
	secretOneWIFCompressed   = "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"
)

type testRig struct {
	consumer *Consumer
	queue    *queue.BatchQueue
	index    *store.LevelDBIndex
	stop     *lifecycle.StopToken
	buf      *bytes.Buffer
}

func newTestRig(t *testing.T, cfg Config, indexed ...[]byte) *testRig {
	t.Helper()

	oldFound := constants.FoundKeysPath
	constants.FoundKeysPath = filepath.Join(t.TempDir(), "found.txt")
	t.Cleanup(func() { constants.FoundKeysPath = oldFound })

	buf := &bytes.Buffer{}
	localLog := log.New(buf, "", 0)

	index, err := store.NewLevelDBIndex(filepath.Join(t.TempDir(), "index"), localLog, false)
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() { index.Close() })

	for _, h := range indexed {
		if err := index.Put(h); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	stop := lifecycle.NewStopToken()
	q := queue.NewBatchQueue(4, stop, localLog)

	if cfg.Threads == 0 {
		cfg.Threads = 1
	}
	if cfg.DelayEmptyConsumer == 0 {
		cfg.DelayEmptyConsumer = time.Millisecond
	}
	if cfg.Params == nil {
		cfg.Params = &chaincfg.MainNetParams
	}

	c, err := New(cfg, q, index, stop, localLog)
	if err != nil {
		t.Fatalf("building consumer: %v", err)
	}

	return &testRig{consumer: c, queue: q, index: index, stop: stop, buf: buf}
}

func (r *testRig) checkKey(pk *generator.PublicKeyBytes) {
	buf := make([]byte, constants.Hash160Size)
	r.consumer.checkKey(pk, buf)
}

func countLines(buf *bytes.Buffer, prefix string) int {
	return strings.Count(buf.String(), prefix)
}

// Known hit on the uncompressed form: one safe log, one hit record naming
// the uncompressed WIF.
func TestKnownHitUncompressed(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(1))
	rig := newTestRig(t, Config{}, pk.Hash160Uncompressed[:])

	rig.checkKey(pk)

	if got := rig.consumer.Hits(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
	if got := countLines(rig.buf, HitPrefix); got != 1 {
		t.Errorf("hit lines = %d, want 1", got)
	}
	if got := countLines(rig.buf, HitSafePrefix); got != 5 {
		t.Errorf("safe log lines = %d, want 5", got)
	}
	if !strings.Contains(rig.buf.String(), secretOneWIFUncompressed) {
		t.Error("hit record does not name the uncompressed WIF")
	}
	if !strings.Contains(rig.buf.String(), HitSafePrefix+"secret: 1") {
		t.Error("safe log does not carry the raw secret")
	}
}

func TestKnownHitCompressed(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(1))
	rig := newTestRig(t, Config{}, pk.Hash160Compressed[:])

	rig.checkKey(pk)

	if got := rig.consumer.Hits(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
	if !strings.Contains(rig.buf.String(), secretOneWIFCompressed) {
		t.Error("hit record does not name the compressed WIF")
	}
}

// Both forms indexed: two safe logs, two hit records, hits == 2. The
// counter counts per form, not per secret.
func TestKnownHitBothForms(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(1))
	rig := newTestRig(t, Config{}, pk.Hash160Uncompressed[:], pk.Hash160Compressed[:])

	rig.checkKey(pk)

	if got := rig.consumer.Hits(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
	if got := countLines(rig.buf, HitPrefix); got != 2 {
		t.Errorf("hit lines = %d, want 2", got)
	}
	if got := countLines(rig.buf, HitSafePrefix); got != 10 {
		t.Errorf("safe log lines = %d, want 10", got)
	}
}

// The hits counter always equals the number of hit records logged.
func TestHitsCounterMatchesHitLines(t *testing.T) {
	one := generator.NewPublicKeyBytes(big.NewInt(1))
	two := generator.NewPublicKeyBytes(big.NewInt(2))
	three := generator.NewPublicKeyBytes(big.NewInt(3))

	rig := newTestRig(t, Config{},
		one.Hash160Uncompressed[:], one.Hash160Compressed[:],
		two.Hash160Compressed[:])

	for _, pk := range []*generator.PublicKeyBytes{one, two, three} {
		rig.checkKey(pk)
	}

	if int(rig.consumer.Hits()) != countLines(rig.buf, HitPrefix) {
		t.Errorf("hits counter %d != %d logged hit lines",
			rig.consumer.Hits(), countLines(rig.buf, HitPrefix))
	}
	if rig.consumer.Hits() != 3 {
		t.Errorf("hits = %d, want 3", rig.consumer.Hits())
	}
}

func TestInvalidEntrySkipped(t *testing.T) {
	rig := newTestRig(t, Config{})

	rig.checkKey(&generator.PublicKeyBytes{Secret: big.NewInt(0), Invalid: true})

	if rig.consumer.CheckedKeys() != 0 {
		t.Errorf("invalid entry was probed %d times", rig.consumer.CheckedKeys())
	}
}

func TestCheckedKeysAndTiming(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(7))
	rig := newTestRig(t, Config{})

	rig.checkKey(pk)

	// Two probes per key: uncompressed and compressed.
	if got := rig.consumer.CheckedKeys(); got != 2 {
		t.Errorf("checkedKeys = %d, want 2", got)
	}
	if rig.consumer.SumContainsNanos() <= 0 {
		t.Error("probe time was not accumulated")
	}
}

// Vanity: the uncompressed address of the secret 1 starts with 1EHNa. A hit
// is independent of index membership.
func TestVanityHit(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(1))
	rig := newTestRig(t, Config{EnableVanity: true, VanityPattern: "1EHNa.*"})

	rig.checkKey(pk)

	if got := rig.consumer.VanityHits(); got != 1 {
		t.Errorf("vanityHits = %d, want 1", got)
	}
	if got := countLines(rig.buf, VanityHitPrefix); got != 1 {
		t.Errorf("vanity hit lines = %d, want 1", got)
	}
	if rig.consumer.Hits() != 0 {
		t.Errorf("hits = %d, want 0 (index is empty)", rig.consumer.Hits())
	}
	if !strings.Contains(rig.buf.String(), "1EHNa") {
		t.Error("vanity record does not carry the matched address")
	}
}

// The pattern must match the entire address, not a substring of it.
func TestVanityRequiresEntireMatch(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(1))
	rig := newTestRig(t, Config{EnableVanity: true, VanityPattern: "EHNa"})

	rig.checkKey(pk)

	if got := rig.consumer.VanityHits(); got != 0 {
		t.Errorf("substring pattern matched: vanityHits = %d", got)
	}
}

func TestVanityDisabled(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(1))
	rig := newTestRig(t, Config{EnableVanity: false})

	rig.checkKey(pk)

	if rig.consumer.VanityHits() != 0 {
		t.Error("vanityHits must stay 0 with vanity disabled")
	}
	if countLines(rig.buf, VanityHitPrefix) != 0 {
		t.Error("no vanity record may be emitted with vanity disabled")
	}
}

func TestInvalidVanityPatternRejected(t *testing.T) {
	oldFound := constants.FoundKeysPath
	constants.FoundKeysPath = filepath.Join(t.TempDir(), "found.txt")
	defer func() { constants.FoundKeysPath = oldFound }()

	buf := &bytes.Buffer{}
	localLog := log.New(buf, "", 0)
	index, err := store.NewLevelDBIndex(filepath.Join(t.TempDir(), "index"), localLog, false)
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()

	stop := lifecycle.NewStopToken()
	q := queue.NewBatchQueue(1, stop, localLog)

	_, err = New(Config{
		Threads:       1,
		EnableVanity:  true,
		VanityPattern: "([unclosed",
		Params:        &chaincfg.MainNetParams,
	}, q, index, stop, localLog)
	if err == nil {
		t.Fatal("expected an error for a broken vanity pattern")
	}
}

// Self-check over honestly derived keys must stay silent.
func TestSelfCheckCleanKeys(t *testing.T) {
	rig := newTestRig(t, Config{RuntimePublicKeyCalculationCheck: true})

	for _, secret := range []int64{1, 2, 12345} {
		rig.checkKey(generator.NewPublicKeyBytes(big.NewInt(secret)))
	}

	if strings.Contains(rig.buf.String(), "self-check mismatch") {
		t.Errorf("unexpected self-check mismatch:\n%s", rig.buf.String())
	}
}

// A corrupted fingerprint is reported with its fields and does not stop the
// worker or produce a hit.
func TestSelfCheckDetectsCorruption(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(1))
	pk.Hash160Compressed[0] ^= 0xFF

	rig := newTestRig(t, Config{RuntimePublicKeyCalculationCheck: true})
	rig.checkKey(pk)

	out := rig.buf.String()
	if !strings.Contains(out, "self-check mismatch") {
		t.Fatal("corruption was not reported")
	}
	if !strings.Contains(out, "hash160CompressedFromReference") {
		t.Error("mismatch report does not name the reference fingerprint")
	}
	if rig.consumer.Hits() != 0 {
		t.Error("self-check must not produce hits")
	}
}

func TestMissTraceRecords(t *testing.T) {
	oldTrace := constants.TraceMode
	constants.TraceMode = true
	defer func() { constants.TraceMode = oldTrace }()

	pk := generator.NewPublicKeyBytes(big.NewInt(9))
	rig := newTestRig(t, Config{})

	rig.checkKey(pk)

	// One miss record per compression form.
	if got := countLines(rig.buf, MissPrefix); got != 2 {
		t.Errorf("miss lines = %d, want 2", got)
	}
}

func TestNoMissRecordsWithoutTrace(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(9))
	rig := newTestRig(t, Config{})

	rig.checkKey(pk)

	if got := countLines(rig.buf, MissPrefix); got != 0 {
		t.Errorf("miss lines = %d, want 0", got)
	}
}

// Full worker lifecycle: a queued batch is processed, empty rounds are
// counted while idle, and the pool drains within the shutdown bound.
func TestWorkerLifecycle(t *testing.T) {
	pk := generator.NewPublicKeyBytes(big.NewInt(1))
	rig := newTestRig(t, Config{Threads: 2}, pk.Hash160Compressed[:])

	rig.consumer.Start()

	batch := []*generator.PublicKeyBytes{pk}
	if !rig.queue.Offer(batch) {
		t.Fatal("offer failed")
	}

	deadline := time.After(5 * time.Second)
	for rig.consumer.Hits() == 0 {
		select {
		case <-deadline:
			t.Fatal("batch was never processed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if rig.consumer.EmptyConsumerRounds() == 0 {
		// Workers idle between batches; give the round counter a moment.
		time.Sleep(20 * time.Millisecond)
	}
	if rig.consumer.EmptyConsumerRounds() == 0 {
		t.Error("idle workers did not count empty rounds")
	}

	rig.stop.Stop()
	if !rig.consumer.AwaitTermination(5 * time.Second) {
		t.Fatal("consumer pool did not terminate")
	}
	if rig.queue.Size() != 0 {
		t.Errorf("queue not drained: %d batches left", rig.queue.Size())
	}
}
