package generator

import (
	"Keyhound/constants"
	"Keyhound/lifecycle"
	"Keyhound/logger"
	"bufio"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// SecretFormat selects how a line of a secrets file is decoded.
type SecretFormat string

const (
	FormatBigIntegerDecimal SecretFormat = "BigIntegerDecimal"
	FormatHexSha256         SecretFormat = "HexSha256"
	FormatStringDoSha256    SecretFormat = "StringDoSha256"
	FormatDumpedPrivateKey  SecretFormat = "DumpedPrivateKey"
)

func ParseSecretFormat(s string) (SecretFormat, error) {
	switch SecretFormat(s) {
	case FormatBigIntegerDecimal, FormatHexSha256, FormatStringDoSha256, FormatDumpedPrivateKey:
		return SecretFormat(s), nil
	}
	return "", fmt.Errorf("unknown secret format %q", s)
}

// ErrExhausted signals that a finite secret source has no more seeds.
var ErrExhausted = errors.New("secret source exhausted")

// ParseError wraps a single undecodable input line. The source skips the
// line and continues.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot decode secret from line %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadStatistic counts a file source's progress.
type ReadStatistic struct {
	Lines  int64
	Errors int64
}

// SecretSource yields 256-bit seed secrets. Sources are private to one
// producer; none of the implementations is safe for concurrent callers.
type SecretSource interface {
	Next() (*big.Int, error)
}

// RandomSource draws each seed from a cryptographic PRNG. Infinite.
type RandomSource struct {
	pool *RNGPool
}

func NewRandomSource() *RandomSource {
	return &RandomSource{pool: NewRNGPool()}
}

func (s *RandomSource) Next() (*big.Int, error) {
	return new(big.Int).SetBytes(s.pool.Get()), nil
}

// FileSource reads seeds line by line from a secrets file. A line that fails
// to decode is logged and skipped; the source keeps going.
type FileSource struct {
	file      *os.File
	scanner   *bufio.Scanner
	format    SecretFormat
	params    *chaincfg.Params
	stop      *lifecycle.StopToken
	log       *log.Logger
	exhausted bool

	Stat ReadStatistic
}

func NewFileSource(path string, format SecretFormat, params *chaincfg.Params,
	stop *lifecycle.StopToken, localLog *log.Logger) (*FileSource, error) {

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening secrets file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	return &FileSource{
		file:    file,
		scanner: scanner,
		format:  format,
		params:  params,
		stop:    stop,
		log:     localLog,
	}, nil
}

func (s *FileSource) Next() (*big.Int, error) {
	for s.stop.ShouldRun() && s.scanner.Scan() {
		line := s.scanner.Text()
		s.Stat.Lines++

		secret, err := DecodeSecret(line, s.format, s.params)
		if err != nil {
			s.Stat.Errors++
			logger.LogError(s.log, constants.LogError,
				&ParseError{Line: line, Err: err}, "skipping secrets line")
			continue
		}
		return secret, nil
	}

	if err := s.scanner.Err(); err != nil {
		logger.LogError(s.log, constants.LogError, err, "reading secrets file")
	}
	// Report the read statistic once at true end of input; a stop mid-file
	// is not exhaustion.
	if s.stop.ShouldRun() && !s.exhausted {
		s.exhausted = true
		logger.LogStatus(s.log, constants.LogInfo,
			"Secrets file exhausted: %d lines read, %d errors",
			s.Stat.Lines, s.Stat.Errors)
	}
	return nil, ErrExhausted
}

func (s *FileSource) Close() error {
	return s.file.Close()
}

// DecodeSecret turns one input line into a secret per the configured format.
func DecodeSecret(line string, format SecretFormat, params *chaincfg.Params) (*big.Int, error) {
	switch format {
	case FormatBigIntegerDecimal:
		secret, ok := new(big.Int).SetString(line, 10)
		if !ok {
			return nil, errors.New("not a decimal integer")
		}
		return secret, nil

	case FormatHexSha256:
		secret, ok := new(big.Int).SetString(line, 16)
		if !ok {
			return nil, errors.New("not a hex integer")
		}
		return secret, nil

	case FormatStringDoSha256:
		sum := sha256.Sum256([]byte(line))
		return new(big.Int).SetBytes(sum[:]), nil

	case FormatDumpedPrivateKey:
		wif, err := btcutil.DecodeWIF(line)
		if err != nil {
			return nil, fmt.Errorf("decoding WIF: %w", err)
		}
		if !wif.IsForNet(params) {
			return nil, fmt.Errorf("WIF is not for network %s", params.Name)
		}
		return new(big.Int).SetBytes(wif.PrivKey.Serialize()), nil
	}

	return nil, fmt.Errorf("unknown secret format %q", format)
}
