package keys

import (
	"github.com/zeebo/blake3"

	"github.com/zeroledger/zeroledger/internal/params"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
)

type (
	// EncryptionKey is an account's public identity, ek = nsk·G_enc.
	EncryptionKey = curve.Point
	// DecryptionKey decrypts balances encrypted to the matching
	// EncryptionKey. It is the nsk component of the proof generation key.
	DecryptionKey = curve.Scalar
)

const (
	askDeriveContext = "zeroledger/expand-seed/ask"
	nskDeriveContext = "zeroledger/expand-seed/nsk"
	tagDeriveContext = "zeroledger/key-tag"
)

// SpendingKey is the 32 byte seed all account keys derive from. It never
// leaves the wallet unencrypted.
type SpendingKey [params.SecBytes]byte

// NewSpendingKey copies seed into a SpendingKey. Seeds shorter than 32
// bytes are right padded with spaces, longer ones are truncated.
func NewSpendingKey(seed []byte) *SpendingKey {
	sk := &SpendingKey{}
	for i := range sk {
		sk[i] = ' '
	}
	copy(sk[:], seed)
	return sk
}

// ProofGenerationKey derives the (ask, nsk) scalar pair for the group.
// The derivation is deterministic, so the seed alone recovers the account.
func (sk *SpendingKey) ProofGenerationKey(group curve.Curve) *ProofGenerationKey {
	return &ProofGenerationKey{
		Ask: expandSeed(group, askDeriveContext, sk[:]),
		Nsk: expandSeed(group, nskDeriveContext, sk[:]),
	}
}

// Wipe overwrites the seed with zeros.
func (sk *SpendingKey) Wipe() {
	for i := range sk {
		sk[i] = 0
	}
}

// expandSeed derives a scalar from seed under a derivation context,
// reducing a 64 byte digest so the result is statistically uniform.
func expandSeed(group curve.Curve, context string, seed []byte) curve.Scalar {
	var wide [64]byte
	blake3.DeriveKey(context, seed, wide[:])
	s := curve.FromHash(group, wide[:])
	for i := range wide {
		wide[i] = 0
	}
	return s
}

// ProofGenerationKey is the scalar pair (ask, nsk) witnessing account
// ownership inside the circuit. ask authorizes spends, nsk decrypts.
type ProofGenerationKey struct {
	Ask curve.Scalar
	Nsk curve.Scalar
}

// EncryptionKey returns nsk·G_enc, the account's public identity.
func (pgk *ProofGenerationKey) EncryptionKey() EncryptionKey {
	return pgk.Nsk.ActOn(curve.GenEnc)
}

// DecryptionKey returns the scalar decrypting balances addressed to
// EncryptionKey.
func (pgk *ProofGenerationKey) DecryptionKey() DecryptionKey {
	return pgk.Nsk.Curve().NewScalar().Set(pgk.Nsk)
}

// VerificationKey returns ask·G_spend, the long term signature
// verification key. Transfers never publish it directly, only a
// randomized shift of it.
func (pgk *ProofGenerationKey) VerificationKey() curve.Point {
	return pgk.Ask.ActOn(curve.GenSpend)
}

// Tag returns a short identifier for this key, used as the parent tag in
// hierarchical derivation.
func (pgk *ProofGenerationKey) Tag() ([4]byte, error) {
	var tag [4]byte
	askBytes, err := pgk.Ask.MarshalBinary()
	if err != nil {
		return tag, err
	}
	nskBytes, err := pgk.Nsk.MarshalBinary()
	if err != nil {
		return tag, err
	}
	material := make([]byte, 0, len(askBytes)+len(nskBytes))
	material = append(material, askBytes...)
	material = append(material, nskBytes...)
	blake3.DeriveKey(tagDeriveContext, material, tag[:])
	for i := range material {
		material[i] = 0
	}
	return tag, nil
}

// Wipe overwrites both scalars with zero.
func (pgk *ProofGenerationKey) Wipe() {
	pgk.Ask.Wipe()
	pgk.Nsk.Wipe()
}
