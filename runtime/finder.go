package runtime

import (
	"Keyhound/consumer"
	"Keyhound/generator"
	"Keyhound/gpu"
	"Keyhound/lifecycle"
	"Keyhound/queue"
	"Keyhound/store"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
)

// Finder wires the whole engine: index, queue, consumer pool, producer pool
// and the stats reporter, all sharing one stop token.
type Finder struct {
	cfg  Config
	log  *log.Logger
	stop *lifecycle.StopToken

	index     *store.LevelDBIndex
	queue     *queue.BatchQueue
	consumer  *consumer.Consumer
	producers []*generator.Producer
	sources   []io.Closer

	producersWG   sync.WaitGroup
	producersDone chan struct{}
	shutdownOnce  sync.Once
}

// NewFinder validates the configuration and builds every component. Any
// error here is fatal at startup.
func NewFinder(cfg Config, localLog *log.Logger) (*Finder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params, err := cfg.Params()
	if err != nil {
		return nil, &ConfigError{"network", err.Error()}
	}

	stop := lifecycle.NewStopToken()

	index, err := store.NewLevelDBIndex(cfg.AddressIndexPath, localLog, true)
	if err != nil {
		return nil, fmt.Errorf("addressIndexPath: %w", err)
	}

	q := queue.NewBatchQueue(cfg.QueueSize, stop, localLog)

	cons, err := consumer.New(consumer.Config{
		Threads:                          cfg.Threads,
		DelayEmptyConsumer:               cfg.DelayEmptyConsumer,
		RuntimePublicKeyCalculationCheck: cfg.RuntimePublicKeyCalculationCheck,
		EnableVanity:                     cfg.EnableVanity,
		VanityPattern:                    cfg.VanityPattern,
		Params:                           params,
	}, q, index, stop, localLog)
	if err != nil {
		index.Close()
		return nil, &ConfigError{"vanityPattern", err.Error()}
	}

	f := &Finder{
		cfg:           cfg,
		log:           localLog,
		stop:          stop,
		index:         index,
		queue:         q,
		consumer:      cons,
		producersDone: make(chan struct{}),
	}

	var kernel generator.Kernel
	if cfg.UseGPU {
		kernel = gpu.NewKernel(cfg.GridNumBits, localLog)
	}

	producerCfg := generator.ProducerConfig{
		GridNumBits:   cfg.GridNumBits,
		KillBits:      cfg.KillBits,
		RunOnce:       cfg.RunOnce,
		LogSecretBase: cfg.LogSecretBase,
		Params:        params,
	}

	for i := 0; i < cfg.Producers; i++ {
		source, err := f.newSecretSource(params)
		if err != nil {
			index.Close()
			f.closeSources()
			return nil, err
		}

		f.producersWG.Add(1)
		p := generator.NewProducer(producerCfg, source, q, kernel,
			stop, f.producersWG.Done, localLog)
		f.producers = append(f.producers, p)
	}

	return f, nil
}

// newSecretSource builds one producer's private seed source. File sources
// are registered for closing on shutdown.
func (f *Finder) newSecretSource(params *chaincfg.Params) (generator.SecretSource, error) {
	if f.cfg.SecretSource == "random" {
		return generator.NewRandomSource(), nil
	}

	format, err := generator.ParseSecretFormat(f.cfg.SecretFormat)
	if err != nil {
		return nil, &ConfigError{"secretFormat", err.Error()}
	}

	source, err := generator.NewFileSource(f.cfg.SecretsFile, format, params, f.stop, f.log)
	if err != nil {
		return nil, &ConfigError{"secretsFile", err.Error()}
	}

	f.sources = append(f.sources, source)
	return source, nil
}

func (f *Finder) closeSources() {
	for _, s := range f.sources {
		s.Close()
	}
}

// Consumer exposes the counters for the stats reporter and tests.
func (f *Finder) Consumer() *consumer.Consumer {
	return f.consumer
}

// Queue exposes the batch queue depth.
func (f *Finder) Queue() *queue.BatchQueue {
	return f.queue
}

// ProducersDone is closed once every producer's completion callback ran.
func (f *Finder) ProducersDone() <-chan struct{} {
	return f.producersDone
}
