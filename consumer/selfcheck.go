package consumer

import (
	"Keyhound/constants"
	"Keyhound/generator"
	"Keyhound/keyutil"
	"bytes"
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// independentHash160 computes RIPEMD160(SHA256(b)) without going through the
// helper the production pipeline uses, so the self-check cannot be fooled by
// a bug shared with it.
func independentHash160(b []byte) []byte {
	sha := sha256.Sum256(b)
	ripe := ripemd160.New()
	ripe.Write(sha[:])
	return ripe.Sum(nil)
}

// selfCheck re-derives the public point from the secret through the
// reference library and compares all fingerprints byte for byte. A mismatch
// is reported with every field involved and never aborts the search.
func (c *Consumer) selfCheck(pk *generator.PublicKeyBytes) {
	priv := keyutil.PrivKeyFromSecret(pk.Secret)
	pub := priv.PubKey()

	refUncompressed := pub.SerializeUncompressed()
	refCompressed := pub.SerializeCompressed()
	refHash160Uncompressed := independentHash160(refUncompressed)
	refHash160Compressed := independentHash160(refCompressed)

	if !bytes.Equal(refHash160Uncompressed, pk.Hash160Uncompressed[:]) {
		c.log.Printf("%sself-check mismatch: reference hash160 != uncompressed key hash", constants.LogError)
		c.log.Printf("%ssecret: %s", constants.LogError, pk.Secret.String())
		c.log.Printf("%spubKeyUncompressed: %x", constants.LogError, pk.Uncompressed[:])
		c.log.Printf("%spubKeyUncompressedFromReference: %x", constants.LogError, refUncompressed)
		c.log.Printf("%shash160Uncompressed: %x", constants.LogError, pk.Hash160Uncompressed[:])
		c.log.Printf("%shash160UncompressedFromReference: %x", constants.LogError, refHash160Uncompressed)
	}

	if !bytes.Equal(refHash160Compressed, pk.Hash160Compressed[:]) {
		c.log.Printf("%sself-check mismatch: reference hash160 != compressed key hash", constants.LogError)
		c.log.Printf("%ssecret: %s", constants.LogError, pk.Secret.String())
		c.log.Printf("%spubKeyCompressed: %x", constants.LogError, pk.Compressed[:])
		c.log.Printf("%spubKeyCompressedFromReference: %x", constants.LogError, refCompressed)
		c.log.Printf("%shash160Compressed: %x", constants.LogError, pk.Hash160Compressed[:])
		c.log.Printf("%shash160CompressedFromReference: %x", constants.LogError, refHash160Compressed)
	}
}
