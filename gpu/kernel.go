package gpu

import (
	"Keyhound/generator"
	"Keyhound/keyutil"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// CPUKernel is the host reference implementation of the grid expansion
// contract. It performs one scalar multiply for the base point and walks the
// grid with point additions: P(base|k) = P(base) + k*G, valid because the
// base's enumerated low bits are zero.
type CPUKernel struct {
	g btcec.JacobianPoint // generator point, cached
}

func NewCPUKernel() *CPUKernel {
	k := &CPUKernel{}
	var one btcec.ModNScalar
	one.SetInt(1)
	btcec.ScalarBaseMultNonConst(&one, &k.g)
	return k
}

// PublicKeys expands one base into all 2^gridNumBits uncompressed points.
// A nil entry marks the point at infinity (key number 0 of a zero base).
func (c *CPUKernel) PublicKeys(base *big.Int, gridNumBits int) ([][]byte, error) {
	if gridNumBits < 0 {
		return nil, errors.New("gridNumBits must not be negative")
	}
	count := 1 << gridNumBits
	points := make([][]byte, count)

	baseBytes := keyutil.SecretToBytes32(base)
	var scalar btcec.ModNScalar
	if overflow := scalar.SetBytes(&baseBytes); overflow != 0 {
		return nil, errors.New("grid base overflows the group order")
	}

	var cur btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&scalar, &cur)

	for k := 0; k < count; k++ {
		points[k] = serializeUncompressed(&cur)

		var next btcec.JacobianPoint
		btcec.AddNonConst(&cur, &c.g, &next)
		cur = next
	}

	return points, nil
}

func serializeUncompressed(p *btcec.JacobianPoint) []byte {
	if p.Z.IsZero() {
		// point at infinity
		return nil
	}

	var affine btcec.JacobianPoint
	affine.Set(p)
	affine.ToAffine()

	var xb, yb [32]byte
	affine.X.PutBytes(&xb)
	affine.Y.PutBytes(&yb)

	out := make([]byte, 65)
	out[0] = 0x04
	copy(out[1:33], xb[:])
	copy(out[33:], yb[:])
	return out
}

var _ generator.Kernel = (*CPUKernel)(nil)
