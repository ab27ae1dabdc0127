package runtime

import (
	"Keyhound/constants"
	"Keyhound/logger"
	"Keyhound/utils"
	"time"
)

// Start brings the engine up: consumers first so the queue has drains, then
// producers, then the stats reporter.
func (f *Finder) Start() {
	f.consumer.Start()

	for _, p := range f.producers {
		go p.Run()
	}
	logger.LogStatus(f.log, constants.LogInfo,
		"Producer pool - %d producers, %s keys/batch",
		len(f.producers), utils.FormatWithCommas(f.producers[0].BatchSize()))

	go func() {
		f.producersWG.Wait()
		close(f.producersDone)
	}()

	go f.statsLoop()
}

// statsLoop emits one summary line per period. It only reads atomics and
// the queue depth; it never blocks a worker.
func (f *Finder) statsLoop() {
	ticker := time.NewTicker(f.cfg.StatsPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop.Done():
			return
		case <-ticker.C:
			snap := f.consumer.Snapshot()
			logger.LogSearchStats(f.log,
				snap.Uptime,
				snap.CheckedKeys,
				snap.KeysPerSecond,
				snap.AvgContainsMicros,
				snap.QueueDepth,
				utils.UsedMemoryGB(),
				snap.Hits)
		}
	}
}
