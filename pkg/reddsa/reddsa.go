// Package reddsa implements a randomizable Schnorr signature over the
// spending generator. A signing key can be shifted by a scalar α, and
// the signature then verifies under the correspondingly shifted
// verification key, unlinking the on-ledger key from the long term one.
package reddsa

import (
	"errors"
	"fmt"
	"io"

	"github.com/zeroledger/zeroledger/internal/params"
	"github.com/zeroledger/zeroledger/pkg/hash"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/math/sample"
)

// randomizerBytes is the length of the fresh entropy mixed into the
// signing nonce.
const randomizerBytes = 80

// HStar reduces a 64 byte domain separated digest of data into a scalar.
func HStar(group curve.Curve, data ...[]byte) curve.Scalar {
	h := hash.New(hash.BytesWithDomain{TheDomain: "red-dsa/h-star", Bytes: nil})
	for _, d := range data {
		_ = h.WriteAny(d)
	}
	return h.ChallengeScalar(group)
}

// Signature is a red-DSA signature (R̄ ‖ S̄), both in canonical 32 byte
// encodings.
type Signature struct {
	RBar []byte
	SBar []byte
}

// MarshalBinary encodes the signature as R̄ ‖ S̄.
func (sig *Signature) MarshalBinary() ([]byte, error) {
	if len(sig.RBar) != params.PointBytes || len(sig.SBar) != params.ScalarBytes {
		return nil, errors.New("reddsa: malformed signature")
	}
	out := make([]byte, 0, params.SignatureBytes)
	out = append(out, sig.RBar...)
	out = append(out, sig.SBar...)
	return out, nil
}

// UnmarshalBinary decodes R̄ ‖ S̄. Component validity is only checked at
// verification time.
func (sig *Signature) UnmarshalBinary(data []byte) error {
	if len(data) != params.SignatureBytes {
		return fmt.Errorf("reddsa: invalid signature length %d", len(data))
	}
	sig.RBar = append([]byte{}, data[:params.PointBytes]...)
	sig.SBar = append([]byte{}, data[params.PointBytes:]...)
	return nil
}

// PrivateKey signs over G_spend.
type PrivateKey struct {
	sk curve.Scalar
}

// NewPrivateKey wraps an existing secret scalar.
func NewPrivateKey(sk curve.Scalar) *PrivateKey {
	return &PrivateKey{sk: sk.Curve().NewScalar().Set(sk)}
}

// GenerateKey samples a fresh signing key.
func GenerateKey(rand io.Reader, group curve.Curve) *PrivateKey {
	return &PrivateKey{sk: sample.ScalarUnit(rand, group)}
}

// Public returns the verification key vk = sk·G_spend.
func (priv *PrivateKey) Public() *PublicKey {
	return &PublicKey{vk: priv.sk.ActOn(curve.GenSpend)}
}

// Randomize returns the shifted key rsk = sk + α. The receiver is
// untouched.
func (priv *PrivateKey) Randomize(alpha curve.Scalar) *PrivateKey {
	return &PrivateKey{sk: priv.sk.Curve().NewScalar().Set(priv.sk).Add(alpha)}
}

// Wipe overwrites the secret scalar.
func (priv *PrivateKey) Wipe() {
	priv.sk.Wipe()
}

// Sign produces a signature over message. The nonce mixes fresh entropy
// with the message so that a broken entropy source degrades to a
// deterministic, still unforgeable nonce.
func (priv *PrivateKey) Sign(rand io.Reader, message []byte) (*Signature, error) {
	group := priv.sk.Curve()

	var t [randomizerBytes]byte
	if _, err := io.ReadFull(rand, t[:]); err != nil {
		return nil, fmt.Errorf("reddsa: sampling nonce entropy: %w", err)
	}
	r := HStar(group, t[:], message)
	defer r.Wipe()

	rBar, err := r.ActOn(curve.GenSpend).MarshalBinary()
	if err != nil {
		return nil, err
	}

	c := HStar(group, rBar, message)
	s := c.Mul(priv.sk).Add(r)
	sBar, err := s.MarshalBinary()
	s.Wipe()
	if err != nil {
		return nil, err
	}

	return &Signature{RBar: rBar, SBar: sBar}, nil
}

// PublicKey verifies signatures over G_spend.
type PublicKey struct {
	vk curve.Point
}

// NewPublicKey wraps an existing verification point.
func NewPublicKey(vk curve.Point) *PublicKey {
	return &PublicKey{vk: vk.Curve().NewPoint().Set(vk)}
}

// Point returns a copy of the verification point.
func (pub *PublicKey) Point() curve.Point {
	return pub.vk.Curve().NewPoint().Set(pub.vk)
}

// MarshalBinary encodes the verification point.
func (pub *PublicKey) MarshalBinary() ([]byte, error) {
	return pub.vk.MarshalBinary()
}

// Randomize returns the shifted key rvk = vk + α·G_spend.
func (pub *PublicKey) Randomize(alpha curve.Scalar) *PublicKey {
	return &PublicKey{vk: pub.vk.Add(alpha.ActOn(curve.GenSpend))}
}

// Verify reports whether sig is a valid signature on message, checking
// S̄·G_spend = R̄ + H*(R̄ ‖ M)·vk.
func (pub *PublicKey) Verify(sig *Signature, message []byte) bool {
	group := pub.vk.Curve()
	if sig == nil || len(sig.RBar) != group.PointBytes() || len(sig.SBar) != group.ScalarBytes() {
		return false
	}

	r := group.NewPoint()
	if err := r.UnmarshalBinary(sig.RBar); err != nil {
		return false
	}
	s := group.NewScalar()
	if err := s.UnmarshalBinary(sig.SBar); err != nil {
		return false
	}

	c := HStar(group, sig.RBar, message)
	lhs := s.ActOn(curve.GenSpend)
	rhs := r.Add(c.Act(pub.vk))
	return lhs.Equal(rhs)
}

// BatchEntry pairs a signature with the key and message it claims.
type BatchEntry struct {
	PublicKey *PublicKey
	Signature *Signature
	Message   []byte
}

// VerifyBatch reports whether every entry verifies. Each equation
// S̄·G_spend = R̄ + c·vk is weighted by a fresh random scalar z and
// folded into a single accumulator, which is the identity exactly when
// all entries hold, up to a negligible soundness error. A malformed
// entry fails the whole batch.
func VerifyBatch(rand io.Reader, entries []BatchEntry) bool {
	if len(entries) == 0 {
		return true
	}
	if entries[0].PublicKey == nil {
		return false
	}
	group := entries[0].PublicKey.vk.Curve()

	// Decoded points are already confined to the prime-order subgroup,
	// so the accumulator needs no cofactor clearing.
	acc := group.NewPoint()
	for _, e := range entries {
		if e.PublicKey == nil || e.Signature == nil {
			return false
		}
		sig := e.Signature
		if len(sig.RBar) != group.PointBytes() || len(sig.SBar) != group.ScalarBytes() {
			return false
		}
		r := group.NewPoint()
		if err := r.UnmarshalBinary(sig.RBar); err != nil {
			return false
		}
		s := group.NewScalar()
		if err := s.UnmarshalBinary(sig.SBar); err != nil {
			return false
		}
		c := HStar(group, sig.RBar, e.Message)

		z := sample.Scalar(rand, group)
		acc = acc.Add(z.Act(r))
		acc = acc.Add(group.NewScalar().Set(z).Mul(c).Act(e.PublicKey.vk))
		acc = acc.Add(group.NewScalar().Set(z).Mul(s).Negate().ActOn(curve.GenSpend))
	}
	return acc.IsIdentity()
}
