package generator

import (
	"crypto/rand"
	"sync"
)

// RNGPool recycles the 32-byte buffers random seeds are drawn into. Each
// producer owns its own pool.
type RNGPool struct {
	pool sync.Pool
}

func NewRNGPool() *RNGPool {
	return &RNGPool{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, 32)
			},
		},
	}
}

func (p *RNGPool) Get() []byte {
	buf := p.pool.Get().([]byte)
	if _, err := rand.Read(buf); err != nil {
		// If random read fails, return new buffer
		return make([]byte, 32)
	}

	// Copy to prevent reuse
	result := make([]byte, 32)
	copy(result, buf)

	p.pool.Put(buf)
	return result
}
