package store

import (
	"Keyhound/constants"
	"Keyhound/logger"
	"Keyhound/utils"
	"bufio"
	"compress/gzip"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
)

// ImportHash160s loads a text file of hex-encoded hash160s (one per line,
// optionally gzip-compressed) into the index. Lines that do not decode to 20
// bytes are skipped. Writes go to disk in batches.
func (idx *LevelDBIndex) ImportHash160s(filename string) (uint64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(filename, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return 0, err
		}
		defer gzReader.Close()
		reader = gzReader
	}

	scanner := bufio.NewScanner(reader)
	batch := new(leveldb.Batch)
	count := uint64(0)
	skipped := uint64(0)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		hash160, err := hex.DecodeString(line)
		if err != nil || len(hash160) != constants.Hash160Size {
			skipped++
			continue
		}

		batch.Put(storageKey(hash160), nil)
		idx.front.Add(hash160)
		count++

		// Commit batch every 100,000 hashes
		if count%100_000 == 0 {
			if err := idx.db.Write(batch, nil); err != nil {
				return count, err
			}
			batch.Reset()
			logger.LogDebug(idx.log, constants.LogDB,
				"Imported %s hash160s...", utils.FormatWithCommas(int(count)))
		}
	}

	if err := scanner.Err(); err != nil {
		return count, err
	}

	if err := idx.db.Write(batch, nil); err != nil {
		return count, err
	}

	idx.count += count

	logger.LogStatus(idx.log, constants.LogDB,
		"Imported %s hash160s (%s lines skipped)",
		utils.FormatWithCommas(int(count)), utils.FormatWithCommas(int(skipped)))

	if skipped > 0 && count == 0 {
		return 0, fmt.Errorf("no valid hash160 lines in %s", filename)
	}
	return count, nil
}
