// Package queue is the single synchronization point between producers and
// consumers: a bounded FIFO of key batches.
package queue

import (
	"Keyhound/constants"
	"Keyhound/generator"
	"Keyhound/lifecycle"
	"Keyhound/logger"
	"log"
	"sync/atomic"
	"time"
)

// BatchQueue hands batches from many producers to many consumers. FIFO per
// producer, no global order between producers. Ownership of a batch moves
// with it: producer, then queue, then exactly one consumer.
type BatchQueue struct {
	ch       chan []*generator.PublicKeyBytes
	capacity int
	stop     *lifecycle.StopToken
	log      *log.Logger

	// lastFullWarn throttles the capacity warning (unix seconds).
	lastFullWarn atomic.Int64
}

func NewBatchQueue(capacity int, stop *lifecycle.StopToken, localLog *log.Logger) *BatchQueue {
	return &BatchQueue{
		ch:       make(chan []*generator.PublicKeyBytes, capacity),
		capacity: capacity,
		stop:     stop,
		log:      localLog,
	}
}

// Offer blocks until the batch is queued or the stop flag rises; it returns
// false only in the latter case. A full queue on arrival emits a soft
// warning asking for a bigger queueSize.
func (q *BatchQueue) Offer(batch []*generator.PublicKeyBytes) bool {
	if len(q.ch) >= q.capacity {
		q.warnFull()
	}

	select {
	case q.ch <- batch:
		return true
	case <-q.stop.Done():
		return false
	}
}

// Poll returns the next batch or nil when the queue is empty right now.
func (q *BatchQueue) Poll() []*generator.PublicKeyBytes {
	select {
	case batch := <-q.ch:
		return batch
	default:
		return nil
	}
}

// Size is the number of queued batches.
func (q *BatchQueue) Size() int {
	return len(q.ch)
}

// Capacity is the configured bound Q.
func (q *BatchQueue) Capacity() int {
	return q.capacity
}

func (q *BatchQueue) warnFull() {
	now := time.Now().Unix()
	last := q.lastFullWarn.Load()
	if now-last < 5 || !q.lastFullWarn.CompareAndSwap(last, now) {
		return
	}
	logger.LogStatus(q.log, constants.LogWarn,
		"Attention, queue is full. Please increase queue size.")
}

var _ generator.BatchSink = (*BatchQueue)(nil)
