package consumer

import "time"

// Snapshot is one eventually-consistent reading of the counters, taken by
// the stats reporter without blocking any worker.
type Snapshot struct {
	Uptime              time.Duration
	CheckedKeys         int64
	KeysPerSecond       float64
	AvgContainsMicros   float64
	EmptyConsumerRounds int64
	QueueDepth          int
	Hits                int64
	VanityHits          int64
}

func (c *Consumer) Snapshot() Snapshot {
	uptime := time.Since(c.startTime)
	if uptime <= 0 {
		uptime = time.Millisecond
	}

	checked := c.checkedKeys.Load()
	sumNanos := c.checkedKeysTimeToContainsNanos.Load()

	avgMicros := 0.0
	if checked > 0 {
		avgMicros = float64(sumNanos) / float64(checked) / 1000
	}

	return Snapshot{
		Uptime:              uptime,
		CheckedKeys:         checked,
		KeysPerSecond:       float64(checked) / uptime.Seconds(),
		AvgContainsMicros:   avgMicros,
		EmptyConsumerRounds: c.emptyConsumerRounds.Load(),
		QueueDepth:          c.queue.Size(),
		Hits:                c.hits.Load(),
		VanityHits:          c.vanityHits.Load(),
	}
}

// Counter accessors, used by the reporter and by tests.

func (c *Consumer) Hits() int64        { return c.hits.Load() }
func (c *Consumer) VanityHits() int64  { return c.vanityHits.Load() }
func (c *Consumer) CheckedKeys() int64 { return c.checkedKeys.Load() }

func (c *Consumer) EmptyConsumerRounds() int64 {
	return c.emptyConsumerRounds.Load()
}

func (c *Consumer) SumContainsNanos() int64 {
	return c.checkedKeysTimeToContainsNanos.Load()
}
