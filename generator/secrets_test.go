package generator

import (
	"Keyhound/lifecycle"
	"bytes"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
)

func TestDecodeSecretBigIntegerDecimal(t *testing.T) {
	secret, err := DecodeSecret("12345678901234567890", FormatBigIntegerDecimal, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if secret.String() != "12345678901234567890" {
		t.Errorf("decoded %s", secret)
	}

	// Round-trip
	again, err := DecodeSecret(secret.String(), FormatBigIntegerDecimal, &chaincfg.MainNetParams)
	if err != nil || again.Cmp(secret) != 0 {
		t.Errorf("round-trip failed: %v %s", err, again)
	}
}

func TestDecodeSecretHexSha256(t *testing.T) {
	secret, err := DecodeSecret("ff", FormatHexSha256, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if secret.Int64() != 255 {
		t.Errorf("decoded %s, want 255", secret)
	}

	again, err := DecodeSecret(secret.Text(16), FormatHexSha256, &chaincfg.MainNetParams)
	if err != nil || again.Cmp(secret) != 0 {
		t.Errorf("round-trip failed: %v %s", err, again)
	}
}

func TestDecodeSecretStringDoSha256(t *testing.T) {
	// SHA256("test")
	want, _ := new(big.Int).SetString(
		"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", 16)

	secret, err := DecodeSecret("test", FormatStringDoSha256, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if secret.Cmp(want) != 0 {
		t.Errorf("decoded %x, want %x", secret, want)
	}
}

func TestDecodeSecretDumpedPrivateKey(t *testing.T) {
	// WIF of the secret 1, compressed, mainnet
	secret, err := DecodeSecret("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn",
		FormatDumpedPrivateKey, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if secret.Int64() != 1 {
		t.Errorf("decoded %s, want 1", secret)
	}

	// Mainnet WIF against testnet params must fail
	if _, err := DecodeSecret("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn",
		FormatDumpedPrivateKey, &chaincfg.TestNet3Params); err == nil {
		t.Error("expected network mismatch error")
	}
}

func TestDecodeSecretBadLines(t *testing.T) {
	cases := []struct {
		line   string
		format SecretFormat
	}{
		{"not-a-number", FormatBigIntegerDecimal},
		{"zz", FormatHexSha256},
		{"definitely-not-wif", FormatDumpedPrivateKey},
	}
	for _, c := range cases {
		if _, err := DecodeSecret(c.line, c.format, &chaincfg.MainNetParams); err == nil {
			t.Errorf("expected error for %q as %s", c.line, c.format)
		}
	}
}

func TestParseSecretFormat(t *testing.T) {
	for _, name := range []string{"BigIntegerDecimal", "HexSha256", "StringDoSha256", "DumpedPrivateKey"} {
		if _, err := ParseSecretFormat(name); err != nil {
			t.Errorf("ParseSecretFormat(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseSecretFormat("Base64"); err == nil {
		t.Error("expected error for unknown format")
	}
}

// A bad line is skipped with an error count; the source continues with the
// next line and signals exhaustion at EOF.
func TestFileSourceSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.txt")
	content := "17\nbroken line\n42\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	stop := lifecycle.NewStopToken()
	source, err := NewFileSource(path, FormatBigIntegerDecimal, &chaincfg.MainNetParams,
		stop, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("opening source: %v", err)
	}
	defer source.Close()

	first, err := source.Next()
	if err != nil || first.Int64() != 17 {
		t.Fatalf("first secret = %v, %v", first, err)
	}

	second, err := source.Next()
	if err != nil || second.Int64() != 42 {
		t.Fatalf("second secret = %v, %v", second, err)
	}

	if _, err := source.Next(); err != ErrExhausted {
		t.Fatalf("expected exhaustion, got %v", err)
	}

	if source.Stat.Lines != 3 || source.Stat.Errors != 1 {
		t.Errorf("read statistic = %+v", source.Stat)
	}

	// Exhaustion surfaces the read statistic, once.
	if !strings.Contains(buf.String(), "3 lines read, 1 errors") {
		t.Errorf("exhaustion did not report the read statistic:\n%s", buf.String())
	}
	source.Next()
	if strings.Count(buf.String(), "lines read") != 1 {
		t.Error("read statistic reported more than once")
	}
}

// A stopped source returns promptly even with input remaining.
func TestFileSourceStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.txt")
	if err := os.WriteFile(path, []byte("1\n2\n3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stop := lifecycle.NewStopToken()
	source, err := NewFileSource(path, FormatBigIntegerDecimal, &chaincfg.MainNetParams,
		stop, log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()

	if _, err := source.Next(); err != nil {
		t.Fatal(err)
	}

	stop.Stop()
	if _, err := source.Next(); err != ErrExhausted {
		t.Fatalf("expected exhaustion after stop, got %v", err)
	}
}

func TestRandomSourceYieldsDistinctSecrets(t *testing.T) {
	source := NewRandomSource()
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		secret, err := source.Next()
		if err != nil {
			t.Fatal(err)
		}
		key := secret.String()
		if seen[key] {
			t.Fatalf("duplicate random secret %s", key)
		}
		seen[key] = true
	}
}
