package curve

import (
	"encoding"

	"github.com/cronokirby/saferith"
)

// Gen names one of the fixed generators of the group.
type Gen uint8

const (
	// GenSpend is the base point used for signing keys.
	GenSpend Gen = iota
	// GenEnc is the independent generator used for encryption keys,
	// lifted amounts, and diversified identities.
	GenEnc
)

// Curve represents the starting point for working with a prime-order
// group, and provides constructors for the objects tied to it.
type Curve interface {
	NewPoint() Point
	NewBasePoint() Point
	NewScalar() Scalar
	Name() string
	ScalarBytes() int
	PointBytes() int
	Order() *saferith.Modulus
	// Generator returns a fresh copy of one of the fixed generators.
	Generator(Gen) Point
	// GroupHash deterministically maps a personalization string and a
	// message to a point of the prime-order subgroup, never the
	// identity. The same inputs always produce the same point.
	GroupHash(personalization string, msg []byte) (Point, error)
}

// Scalar is an element of the scalar field attached to a Curve.
//
// Arithmetic methods mutate their receiver and return it, allowing
// chained expressions. Implementations keep values fully reduced.
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Negate() Scalar
	Mul(Scalar) Scalar
	Invert() Scalar
	Equal(Scalar) bool
	IsZero() bool
	Set(Scalar) Scalar
	SetNat(*saferith.Nat) Scalar
	SetUint64(uint64) Scalar
	// Act returns the result of acting on a point, leaving both inputs
	// untouched.
	Act(Point) Point
	ActOnBase() Point
	ActOn(Gen) Point
	// Wipe overwrites the value with zero. Secret scalars must be wiped
	// once they are no longer needed.
	Wipe()
}

// Point is an element of the prime-order subgroup.
//
// UnmarshalBinary must reject off-curve, non-canonical, and low-order
// encodings; the identity is accepted, since it is the zero ciphertext
// leg.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Point) Point
	Sub(Point) Point
	Negate() Point
	Set(Point) Point
	Equal(Point) bool
	IsIdentity() bool
	// AffineCoordinates returns the canonical big-endian encodings of
	// the affine x and y coordinates, as consumed by the public-input
	// layer of the proof system.
	AffineCoordinates() (x, y []byte)
}

// FromHash converts a hash digest to a Scalar.
//
// The digest is interpreted as a big-endian integer and reduced modulo
// the group order. Callers that need a negligible bias should provide
// at least 16 bytes more than the order's length; the transcript layer
// always supplies 64 bytes.
func FromHash(group Curve, h []byte) Scalar {
	s := new(saferith.Nat).SetBytes(h)
	return group.NewScalar().SetNat(s)
}
