package hash

import (
	"github.com/zeroledger/zeroledger/pkg/math/curve"
)

// ChallengeScalar finalizes the transcript into a challenge scalar.
//
// The full 64 byte digest is reduced modulo the group order, so the
// bias relative to a uniform scalar is negligible.
func (hash *Hash) ChallengeScalar(group curve.Curve) curve.Scalar {
	return curve.FromHash(group, hash.Clone().Sum())
}
