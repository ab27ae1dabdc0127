// Package store is the persistent HASH160 address index. It wraps a
// goleveldb database keyed by 20-byte public key hashes, with an in-memory
// bloom filter in front so the hot path rarely touches disk for misses.
package store

import (
	"Keyhound/constants"
	"Keyhound/logger"
	"Keyhound/utils"
	"fmt"
	"log"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// AddressIndex is the narrow membership interface the consumers probe.
// Contains must be safe for concurrent readers.
type AddressIndex interface {
	Contains(hash160 []byte) (bool, error)
	Close() error
}

var keyPrefix = []byte("h:")

const (
	blockCacheCapacity = 256 * 1024 * 1024
	writeBuffer        = 64 * 1024 * 1024

	// falsePositiveRate sizes the in-memory front filter. A false positive
	// costs one disk probe; a false negative would lose a hit, which the
	// filter by construction cannot produce.
	falsePositiveRate = 0.0001

	minFilterCapacity = 1_000_000
)

// LevelDBIndex is the goleveldb-backed AddressIndex.
type LevelDBIndex struct {
	db    *leveldb.DB
	log   *log.Logger
	front *bloom.BloomFilter
	count uint64
}

// NewLevelDBIndex opens (or creates) the index at path. readOnly is the
// searching mode; the import path opens writable.
func NewLevelDBIndex(path string, localLog *log.Logger, readOnly bool) (*LevelDBIndex, error) {
	opts := &opt.Options{
		BlockCacheCapacity:     blockCacheCapacity,
		WriteBuffer:            writeBuffer,
		OpenFilesCacheCapacity: 1000,
		Filter:                 filter.NewBloomFilter(10),
		BlockSize:              32 * 1024,
		ReadOnly:               readOnly,
	}

	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open address index: %w", err)
	}

	idx := &LevelDBIndex{db: db, log: localLog}

	startTime := time.Now()
	if err := idx.buildFrontFilter(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load address index: %w", err)
	}

	if idx.count > 0 {
		logger.LogStatus(localLog, constants.LogDB,
			"Address Index:    %s hash160s (%.1f seconds)",
			utils.FormatWithCommas(int(idx.count)), time.Since(startTime).Seconds())
	}

	return idx, nil
}

// buildFrontFilter counts the stored hashes and loads them into the bloom
// filter. Two passes: the filter has to be sized before the first Add.
func (idx *LevelDBIndex) buildFrontFilter() error {
	count := uint64(0)
	iter := idx.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	for iter.Next() {
		count++
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	capacity := count
	if capacity < minFilterCapacity {
		capacity = minFilterCapacity
	}
	idx.front = bloom.NewWithEstimates(uint(capacity), falsePositiveRate)
	idx.count = count

	loaded := uint64(0)
	iter = idx.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		idx.front.Add(iter.Key()[len(keyPrefix):])
		loaded++
		if loaded%10_000_000 == 0 {
			logger.LogDebug(idx.log, constants.LogDB,
				"Loaded %s hash160s into the front filter...",
				utils.FormatWithCommas(int(loaded)))
		}
	}
	return iter.Error()
}

// Contains probes the index for one 20-byte hash160.
func (idx *LevelDBIndex) Contains(hash160 []byte) (bool, error) {
	if len(hash160) != constants.Hash160Size {
		return false, fmt.Errorf("hash160 must be %d bytes, got %d",
			constants.Hash160Size, len(hash160))
	}

	if !idx.front.Test(hash160) {
		return false, nil
	}

	found, err := idx.db.Has(storageKey(hash160), nil)
	if err != nil {
		return false, fmt.Errorf("address index probe failed: %w", err)
	}
	return found, nil
}

// Put stores one hash160. Used by the importer and by tests.
func (idx *LevelDBIndex) Put(hash160 []byte) error {
	if len(hash160) != constants.Hash160Size {
		return fmt.Errorf("hash160 must be %d bytes, got %d",
			constants.Hash160Size, len(hash160))
	}
	if err := idx.db.Put(storageKey(hash160), nil, nil); err != nil {
		return err
	}
	idx.front.Add(hash160)
	idx.count++
	return nil
}

// Count is the number of indexed hash160s at open time plus local Puts.
func (idx *LevelDBIndex) Count() uint64 {
	return idx.count
}

func (idx *LevelDBIndex) Close() error {
	return idx.db.Close()
}

func storageKey(hash160 []byte) []byte {
	key := make([]byte, len(keyPrefix)+len(hash160))
	copy(key, keyPrefix)
	copy(key[len(keyPrefix):], hash160)
	return key
}
