// Package keyutil holds the scalar arithmetic and key formatting helpers
// shared by producers and consumers.
package keyutil

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
)

const SecretBytes = 32

// KillBits clears every bit of secret that is set in mask. The result is the
// base of a grid: its enumerated low bits are all zero.
func KillBits(secret, mask *big.Int) *big.Int {
	return new(big.Int).AndNot(secret, mask)
}

// ComposeKey merges a grid index into a base secret. OR is used instead of
// ADD: the base's enumerated low bits are zero, so both give the same result
// and OR has no carry.
func ComposeKey(base *big.Int, k int64) *big.Int {
	return new(big.Int).Or(base, big.NewInt(k))
}

// AddKey is the documented alternative to ComposeKey. It is only equivalent
// when base's low grid bits are all zero.
func AddKey(base *big.Int, k int64) *big.Int {
	return new(big.Int).Add(base, big.NewInt(k))
}

// SecretToBytes32 renders a secret as a fixed 32-byte big-endian array,
// left-padded with zeros.
func SecretToBytes32(secret *big.Int) [SecretBytes]byte {
	var out [SecretBytes]byte
	secret.FillBytes(out[:])
	return out
}

// Hash160ToBase58 encodes a 20-byte public key hash as a P2PKH address for
// the given network.
func Hash160ToBase58(hash160 []byte, params *chaincfg.Params) string {
	return base58.CheckEncode(hash160, params.PubKeyHashAddrID)
}

// PrivKeyFromSecret builds the btcec private key for a secret.
func PrivKeyFromSecret(secret *big.Int) *btcec.PrivateKey {
	b := SecretToBytes32(secret)
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv
}

// CreateKeyDetails produces the human-readable record logged on hits: the
// raw secret, WIF, serialized public key and both address encodings of its
// HASH160. pubSerialized must match the compressed flag.
func CreateKeyDetails(secret *big.Int, pubSerialized []byte, compressed bool, params *chaincfg.Params) (string, error) {
	priv := PrivKeyFromSecret(secret)
	wif, err := btcutil.NewWIF(priv, params, compressed)
	if err != nil {
		return "", fmt.Errorf("encoding WIF: %w", err)
	}

	hash160 := btcutil.Hash160(pubSerialized)
	address := Hash160ToBase58(hash160, params)

	details := fmt.Sprintf(
		"privateKeyBigInteger: [%s] privateKeyHex: [%064x] WiF: [%s] publicKeyAsHex: [%x] publicKeyHash160Hex: [%x] publicKeyHash160Base58: [%s] compressed: [%t]",
		secret.String(), secret, wif.String(), pubSerialized, hash160, address, compressed)

	return details, nil
}
