package generator

import (
	"Keyhound/constants"
	"Keyhound/keyutil"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

// curveOrder is the secp256k1 group order n. Secrets outside [1, n-1] cannot
// be used as private keys.
var curveOrder = btcec.S256().N

// PublicKeyBytes is one candidate key as emitted by a producer: the secret,
// both serialized forms of its public point and both HASH160 fingerprints.
// The hash arrays are value fields, never aliased across entries.
type PublicKeyBytes struct {
	Secret              *big.Int
	Uncompressed        [65]byte
	Compressed          [33]byte
	Hash160Uncompressed [constants.Hash160Size]byte
	Hash160Compressed   [constants.Hash160Size]byte

	// Invalid marks a secret of zero, a secret outside the group order or a
	// derivation that signalled the point at infinity. Consumers skip it.
	Invalid bool
}

// NewPublicKeyBytes derives one candidate key with a full scalar multiply.
// This is the canonical CPU derivation; the runtime self-check re-derives
// its fingerprints independently and compares them against this output.
func NewPublicKeyBytes(secret *big.Int) *PublicKeyBytes {
	pk := &PublicKeyBytes{Secret: secret}

	if secret.Sign() <= 0 || secret.Cmp(curveOrder) >= 0 {
		pk.Invalid = true
		return pk
	}

	priv := keyutil.PrivKeyFromSecret(secret)
	pub := priv.PubKey()

	copy(pk.Uncompressed[:], pub.SerializeUncompressed())
	copy(pk.Compressed[:], pub.SerializeCompressed())
	copy(pk.Hash160Uncompressed[:], btcutil.Hash160(pk.Uncompressed[:]))
	copy(pk.Hash160Compressed[:], btcutil.Hash160(pk.Compressed[:]))

	return pk
}

// NewPublicKeyBytesFromUncompressed builds the entry from a point already
// expanded by a grid kernel. uncompressed is the 65-byte 0x04||X||Y form;
// nil marks a point at infinity. Serialization of the compressed form and
// both HASH160s happen here, on the host.
func NewPublicKeyBytesFromUncompressed(secret *big.Int, uncompressed []byte) *PublicKeyBytes {
	pk := &PublicKeyBytes{Secret: secret}

	if uncompressed == nil || len(uncompressed) != 65 ||
		secret.Sign() <= 0 || secret.Cmp(curveOrder) >= 0 {
		pk.Invalid = true
		return pk
	}

	copy(pk.Uncompressed[:], uncompressed)

	// Compressed form: parity prefix over the same X coordinate.
	if uncompressed[64]&1 == 1 {
		pk.Compressed[0] = 0x03
	} else {
		pk.Compressed[0] = 0x02
	}
	copy(pk.Compressed[1:], uncompressed[1:33])

	copy(pk.Hash160Uncompressed[:], btcutil.Hash160(pk.Uncompressed[:]))
	copy(pk.Hash160Compressed[:], btcutil.Hash160(pk.Compressed[:]))

	return pk
}
