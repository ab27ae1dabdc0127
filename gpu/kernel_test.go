package gpu

import (
	"Keyhound/generator"
	"Keyhound/keyutil"
	"bytes"
	"math/big"
	"testing"
)

// The kernel's point-add walk must agree with per-key scalar multiplies.
func TestCPUKernelMatchesDirectDerivation(t *testing.T) {
	const gridNumBits = 4
	base, _ := new(big.Int).SetString("1000000000000000", 16)

	kernel := NewCPUKernel()
	points, err := kernel.PublicKeys(base, gridNumBits)
	if err != nil {
		t.Fatalf("kernel failed: %v", err)
	}
	if len(points) != 1<<gridNumBits {
		t.Fatalf("expected %d points, got %d", 1<<gridNumBits, len(points))
	}

	for k := range points {
		secret := keyutil.ComposeKey(base, int64(k))
		direct := generator.NewPublicKeyBytes(secret)
		if direct.Invalid {
			t.Fatalf("entry %d unexpectedly invalid", k)
		}
		if !bytes.Equal(points[k], direct.Uncompressed[:]) {
			t.Fatalf("entry %d: kernel point differs from direct derivation", k)
		}
	}
}

// A zero base yields the point at infinity for key number 0 and k*G for the
// rest of the grid.
func TestCPUKernelZeroBase(t *testing.T) {
	kernel := NewCPUKernel()
	points, err := kernel.PublicKeys(new(big.Int), 3)
	if err != nil {
		t.Fatalf("kernel failed: %v", err)
	}

	if points[0] != nil {
		t.Error("key number 0 of a zero base must be the point at infinity")
	}

	for k := 1; k < len(points); k++ {
		direct := generator.NewPublicKeyBytes(big.NewInt(int64(k)))
		if !bytes.Equal(points[k], direct.Uncompressed[:]) {
			t.Fatalf("entry %d: kernel point differs from %d*G", k, k)
		}
	}
}

func TestMaxGridBitsForVRAM(t *testing.T) {
	cases := []struct {
		vramGB int64
		want   int
	}{
		// 1 GB / 130 bytes per key ≈ 8.26M keys: 2^23 no longer fits.
		{1, 22},
		// 3 GB holds 2^24 keys, which is already the global grid cap.
		{3, 24},
		{24, 24},
		// Unknown memory defers to the cap instead of refusing the device.
		{0, 24},
	}
	for _, c := range cases {
		if got := maxGridBitsForVRAM(c.vramGB); got != c.want {
			t.Errorf("maxGridBitsForVRAM(%d) = %d, want %d", c.vramGB, got, c.want)
		}
	}
}

func TestCPUKernelRejectsOverflowingBase(t *testing.T) {
	// 2^256 - 1 is far beyond the group order.
	base := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if _, err := NewCPUKernel().PublicKeys(base, 0); err == nil {
		t.Error("expected an error for a base beyond the group order")
	}
}
