package curve

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/zeebo/blake3"
)

// Secp256k1 is a second group backend. It has no pairing embedding, so
// the transfer layer cannot use it, but the curve-generic layers
// (transcripts, signatures, the cosigner) run on it unchanged, which
// keeps them honest about not depending on jubjub internals.
type Secp256k1 struct{}

const secp256k1PointBytes = 33

var (
	secp256k1Init   sync.Once
	secp256k1Order  *saferith.Modulus
	secp256k1GenEnc secp256k1.JacobianPoint
)

func secp256k1Setup() {
	secp256k1Init.Do(func() {
		secp256k1Order = saferith.ModulusFromBytes(secp256k1.S256().N.Bytes())
		g, err := secp256k1GroupHash("zldiv_g", nil)
		if err != nil {
			panic(fmt.Sprintf("secp256k1: deriving encryption generator: %v", err))
		}
		secp256k1GenEnc = g.value
	})
}

func (Secp256k1) Name() string     { return "secp256k1" }
func (Secp256k1) ScalarBytes() int { return 32 }
func (Secp256k1) PointBytes() int  { return secp256k1PointBytes }

func (Secp256k1) Order() *saferith.Modulus {
	secp256k1Setup()
	return secp256k1Order
}

func (Secp256k1) NewScalar() Scalar {
	secp256k1Setup()
	return new(secp256k1Scalar)
}

func (Secp256k1) NewPoint() Point {
	secp256k1Setup()
	return new(secp256k1Point)
}

func (Secp256k1) NewBasePoint() Point {
	secp256k1Setup()
	out := new(secp256k1Point)
	one := new(secp256k1.ModNScalar).SetInt(1)
	secp256k1.ScalarBaseMultNonConst(one, &out.value)
	out.value.ToAffine()
	return out
}

func (c Secp256k1) Generator(gen Gen) Point {
	secp256k1Setup()
	switch gen {
	case GenSpend:
		return c.NewBasePoint()
	case GenEnc:
		out := new(secp256k1Point)
		out.value.Set(&secp256k1GenEnc)
		return out
	default:
		panic(fmt.Sprintf("secp256k1: unknown generator %d", gen))
	}
}

func (Secp256k1) GroupHash(personalization string, msg []byte) (Point, error) {
	secp256k1Setup()
	return secp256k1GroupHash(personalization, msg)
}

// secp256k1GroupHash decompresses hash digests as even-y x coordinates
// until one lands on the curve. The cofactor is 1, so any curve point
// is already in the prime-order group.
func secp256k1GroupHash(personalization string, msg []byte) (*secp256k1Point, error) {
	for ctr := 0; ctr < 256; ctr++ {
		h := blake3.New()
		_, _ = h.Write([]byte("zeroledger/group-hash"))
		_, _ = h.Write([]byte(personalization))
		_, _ = h.Write(msg)
		_, _ = h.Write([]byte{byte(ctr)})
		candidate := h.Sum(nil)

		out := new(secp256k1Point)
		out.value.Z.SetInt(1)
		if out.value.X.SetByteSlice(candidate[:32]) {
			continue
		}
		if !secp256k1.DecompressY(&out.value.X, false, &out.value.Y) {
			continue
		}
		return out, nil
	}
	return nil, fmt.Errorf("secp256k1: group hash failed for %q", personalization)
}

type secp256k1Scalar struct {
	value secp256k1.ModNScalar
}

func secp256k1CastScalar(generic Scalar) *secp256k1Scalar {
	out, ok := generic.(*secp256k1Scalar)
	if !ok {
		panic(fmt.Sprintf("failed to convert to secp256k1Scalar: %v", generic))
	}
	return out
}

func (s *secp256k1Scalar) Curve() Curve { return Secp256k1{} }

func (s *secp256k1Scalar) MarshalBinary() ([]byte, error) {
	data := s.value.Bytes()
	return data[:], nil
}

func (s *secp256k1Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("invalid length for secp256k1 scalar: %d", len(data))
	}
	var exactData [32]byte
	copy(exactData[:], data)
	if s.value.SetBytes(&exactData) != 0 {
		return errors.New("invalid bytes for secp256k1 scalar")
	}
	return nil
}

func (s *secp256k1Scalar) Add(that Scalar) Scalar {
	other := secp256k1CastScalar(that)
	s.value.Add(&other.value)
	return s
}

func (s *secp256k1Scalar) Sub(that Scalar) Scalar {
	other := secp256k1CastScalar(that)
	neg := new(secp256k1.ModNScalar).Set(&other.value)
	neg.Negate()
	s.value.Add(neg)
	return s
}

func (s *secp256k1Scalar) Negate() Scalar {
	s.value.Negate()
	return s
}

func (s *secp256k1Scalar) Mul(that Scalar) Scalar {
	other := secp256k1CastScalar(that)
	s.value.Mul(&other.value)
	return s
}

func (s *secp256k1Scalar) Invert() Scalar {
	s.value.InverseNonConst()
	return s
}

func (s *secp256k1Scalar) Equal(that Scalar) bool {
	other := secp256k1CastScalar(that)
	return s.value.Equals(&other.value)
}

func (s *secp256k1Scalar) IsZero() bool {
	return s.value.IsZero()
}

func (s *secp256k1Scalar) Set(that Scalar) Scalar {
	other := secp256k1CastScalar(that)
	s.value.Set(&other.value)
	return s
}

func (s *secp256k1Scalar) SetNat(x *saferith.Nat) Scalar {
	reduced := new(saferith.Nat).Mod(x, secp256k1Order)
	var buf [32]byte
	reduced.FillBytes(buf[:])
	s.value.SetBytes(&buf)
	return s
}

func (s *secp256k1Scalar) SetUint64(x uint64) Scalar {
	return s.SetNat(new(saferith.Nat).SetUint64(x))
}

func (s *secp256k1Scalar) Act(that Point) Point {
	other := secp256k1CastPoint(that)
	out := new(secp256k1Point)
	secp256k1.ScalarMultNonConst(&s.value, &other.value, &out.value)
	out.value.ToAffine()
	return out
}

func (s *secp256k1Scalar) ActOnBase() Point {
	out := new(secp256k1Point)
	secp256k1.ScalarBaseMultNonConst(&s.value, &out.value)
	out.value.ToAffine()
	return out
}

func (s *secp256k1Scalar) ActOn(gen Gen) Point {
	if gen == GenSpend {
		return s.ActOnBase()
	}
	return s.Act(Secp256k1{}.Generator(gen))
}

func (s *secp256k1Scalar) Wipe() {
	s.value.Zero()
}

type secp256k1Point struct {
	value secp256k1.JacobianPoint
}

func secp256k1CastPoint(generic Point) *secp256k1Point {
	out, ok := generic.(*secp256k1Point)
	if !ok {
		panic(fmt.Sprintf("failed to convert to secp256k1Point: %v", generic))
	}
	return out
}

func (p *secp256k1Point) Curve() Curve { return Secp256k1{} }

func (p *secp256k1Point) MarshalBinary() ([]byte, error) {
	out := make([]byte, secp256k1PointBytes)
	if p.IsIdentity() {
		// The identity has no affine form; use an all-zero encoding.
		return out, nil
	}
	p.value.ToAffine()
	out[0] = byte(p.value.Y.IsOddBit()) + 2
	data := p.value.X.Bytes()
	copy(out[1:], data[:])
	return out, nil
}

func (p *secp256k1Point) UnmarshalBinary(data []byte) error {
	if len(data) != secp256k1PointBytes {
		return fmt.Errorf("invalid length for secp256k1 point: %d", len(data))
	}
	if allZero(data) {
		p.value = secp256k1.JacobianPoint{}
		return nil
	}
	if data[0] != 2 && data[0] != 3 {
		return errors.New("secp256k1Point.UnmarshalBinary: invalid format byte")
	}
	var v secp256k1.JacobianPoint
	v.Z.SetInt(1)
	if v.X.SetByteSlice(data[1:]) {
		return errors.New("secp256k1Point.UnmarshalBinary: x coordinate out of range")
	}
	if !secp256k1.DecompressY(&v.X, data[0] == 3, &v.Y) {
		return errors.New("secp256k1Point.UnmarshalBinary: x coordinate not on curve")
	}
	p.value = v
	return nil
}

func (p *secp256k1Point) Add(that Point) Point {
	other := secp256k1CastPoint(that)
	out := new(secp256k1Point)
	secp256k1.AddNonConst(&p.value, &other.value, &out.value)
	if !out.IsIdentity() {
		out.value.ToAffine()
	}
	return out
}

func (p *secp256k1Point) Sub(that Point) Point {
	return p.Add(that.Negate())
}

func (p *secp256k1Point) Negate() Point {
	out := new(secp256k1Point)
	out.value.Set(&p.value)
	if out.IsIdentity() {
		return out
	}
	out.value.Y.Negate(1)
	out.value.Y.Normalize()
	return out
}

func (p *secp256k1Point) Set(that Point) Point {
	other := secp256k1CastPoint(that)
	p.value.Set(&other.value)
	return p
}

func (p *secp256k1Point) Equal(that Point) bool {
	other := secp256k1CastPoint(that)
	if p.IsIdentity() || other.IsIdentity() {
		return p.IsIdentity() == other.IsIdentity()
	}
	a, b := p.value, other.value
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

func (p *secp256k1Point) IsIdentity() bool {
	return (p.value.X.IsZero() && p.value.Y.IsZero()) || p.value.Z.IsZero()
}

func (p *secp256k1Point) AffineCoordinates() (x, y []byte) {
	v := p.value
	v.ToAffine()
	xb := v.X.Bytes()
	yb := v.Y.Bytes()
	return xb[:], yb[:]
}

func allZero(b []byte) bool {
	var acc byte
	for _, x := range b {
		acc |= x
	}
	return acc == 0
}
