package hash

import (
	"encoding"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/zeroledger/zeroledger/internal/params"
)

const DigestLengthBytes = params.SecBytes * 2 // 64

// Hash is the hash function used for commitments, challenges, and
// signing digests. It wraps blake3 with explicit domain separation for
// every written value.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash, initialized with the given data.
func New(initialData ...WriterToWithDomain) *Hash {
	hash := &Hash{h: blake3.New()}
	for _, d := range initialData {
		_ = hash.WriteAny(d)
	}
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - encoding.BinaryMarshaler
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first two types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			err := writeWithDomain(hash.h, BytesWithDomain{
				TheDomain: "[]byte",
				Bytes:     t,
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write []byte: %w", err)
			}
		case encoding.BinaryMarshaler:
			bytes, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.Hash: marshal %T: %w", t, err)
			}
			err = writeWithDomain(hash.h, BytesWithDomain{
				TheDomain: "BinaryMarshaler",
				Bytes:     bytes,
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write %T: %w", t, err)
			}
		case WriterToWithDomain:
			if err := writeWithDomain(hash.h, t); err != nil {
				return fmt.Errorf("hash.Hash: write io.WriterTo: %w", err)
			}
		default:
			panic(fmt.Sprintf("hash.Hash: unsupported type %T", d))
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}
