package curve

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
	"github.com/cronokirby/saferith"
	"github.com/zeebo/blake3"
)

// Jubjub is the production group: the prime-order subgroup of the
// twisted Edwards curve defined over the BLS12-381 scalar field.
// Point coordinates are therefore themselves SNARK field elements,
// which is what lets ciphertexts and keys appear as public inputs of a
// Groth16 statement. The cofactor is 8; decoding clears nothing and
// instead rejects every point outside the prime-order subgroup.
type Jubjub struct{}

const jubjubPointBytes = 32

var (
	jubjubInit     sync.Once
	jubjubParams   twistededwards.CurveParams
	jubjubOrder    *saferith.Modulus
	jubjubOrderBig *big.Int
	jubjubGenEnc   twistededwards.PointAffine
)

func jubjubSetup() {
	jubjubInit.Do(func() {
		jubjubParams = twistededwards.GetEdwardsCurve()
		jubjubOrderBig = new(big.Int).SetBytes(jubjubParams.Order.Bytes())
		jubjubOrder = saferith.ModulusFromBytes(jubjubOrderBig.Bytes())
		g, err := jubjubGroupHash("zldiv_g", nil)
		if err != nil {
			panic(fmt.Sprintf("jubjub: deriving encryption generator: %v", err))
		}
		jubjubGenEnc.Set(&g.value)
	})
}

func (Jubjub) Name() string     { return "jubjub-bls12381" }
func (Jubjub) ScalarBytes() int { return 32 }
func (Jubjub) PointBytes() int  { return jubjubPointBytes }

func (Jubjub) Order() *saferith.Modulus {
	jubjubSetup()
	return jubjubOrder
}

func (Jubjub) NewScalar() Scalar {
	jubjubSetup()
	return new(jubjubScalar)
}

func (Jubjub) NewPoint() Point {
	jubjubSetup()
	out := new(jubjubPoint)
	out.value.X.SetZero()
	out.value.Y.SetOne()
	return out
}

func (Jubjub) NewBasePoint() Point {
	jubjubSetup()
	out := new(jubjubPoint)
	out.value.Set(&jubjubParams.Base)
	return out
}

func (j Jubjub) Generator(gen Gen) Point {
	jubjubSetup()
	out := new(jubjubPoint)
	switch gen {
	case GenSpend:
		out.value.Set(&jubjubParams.Base)
	case GenEnc:
		out.value.Set(&jubjubGenEnc)
	default:
		panic(fmt.Sprintf("jubjub: unknown generator %d", gen))
	}
	return out
}

func (Jubjub) GroupHash(personalization string, msg []byte) (Point, error) {
	jubjubSetup()
	return jubjubGroupHash(personalization, msg)
}

// jubjubGroupHash finds a prime-order point by hashing (personalization,
// msg, counter) until the digest decodes as a curve point, then clears
// the cofactor by three doublings. Low-order inputs collapse to the
// identity and are skipped.
func jubjubGroupHash(personalization string, msg []byte) (*jubjubPoint, error) {
	for ctr := 0; ctr < 256; ctr++ {
		h := blake3.New()
		_, _ = h.Write([]byte("zeroledger/group-hash"))
		_, _ = h.Write([]byte(personalization))
		_, _ = h.Write(msg)
		_, _ = h.Write([]byte{byte(ctr)})
		candidate := h.Sum(nil)

		var p twistededwards.PointAffine
		if err := p.Unmarshal(candidate[:jubjubPointBytes]); err != nil {
			continue
		}
		// Unmarshal recovers x from y without checking that a square
		// root exists, so an off-curve decode must be skipped here.
		if !p.IsOnCurve() {
			continue
		}
		// Multiply by the cofactor 8.
		p.Double(&p).Double(&p).Double(&p)
		out := &jubjubPoint{value: p}
		if out.IsIdentity() {
			continue
		}
		return out, nil
	}
	return nil, fmt.Errorf("jubjub: group hash failed for %q", personalization)
}

type jubjubScalar struct {
	value saferith.Nat
}

func jubjubCastScalar(generic Scalar) *jubjubScalar {
	out, ok := generic.(*jubjubScalar)
	if !ok {
		panic(fmt.Sprintf("failed to convert to jubjubScalar: %v", generic))
	}
	return out
}

func (s *jubjubScalar) Curve() Curve { return Jubjub{} }

// MarshalBinary returns the canonical 32-byte little-endian encoding.
func (s *jubjubScalar) MarshalBinary() ([]byte, error) {
	be := make([]byte, 32)
	s.value.FillBytes(be)
	reverseBytes(be)
	return be, nil
}

func (s *jubjubScalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("invalid length for jubjub scalar: %d", len(data))
	}
	be := make([]byte, 32)
	copy(be, data)
	reverseBytes(be)
	v := new(saferith.Nat).SetBytes(be)
	if _, _, lt := v.CmpMod(jubjubOrder); lt != 1 {
		return errors.New("jubjub scalar not in field")
	}
	s.value.Mod(v, jubjubOrder)
	return nil
}

func (s *jubjubScalar) Add(that Scalar) Scalar {
	other := jubjubCastScalar(that)
	s.value.ModAdd(&s.value, &other.value, jubjubOrder)
	return s
}

func (s *jubjubScalar) Sub(that Scalar) Scalar {
	other := jubjubCastScalar(that)
	neg := new(saferith.Nat).ModNeg(&other.value, jubjubOrder)
	s.value.ModAdd(&s.value, neg, jubjubOrder)
	return s
}

func (s *jubjubScalar) Negate() Scalar {
	s.value.ModNeg(&s.value, jubjubOrder)
	return s
}

func (s *jubjubScalar) Mul(that Scalar) Scalar {
	other := jubjubCastScalar(that)
	s.value.ModMul(&s.value, &other.value, jubjubOrder)
	return s
}

func (s *jubjubScalar) Invert() Scalar {
	s.value.ModInverse(&s.value, jubjubOrder)
	return s
}

func (s *jubjubScalar) Equal(that Scalar) bool {
	other := jubjubCastScalar(that)
	return s.value.Eq(&other.value) == 1
}

func (s *jubjubScalar) IsZero() bool {
	return s.value.EqZero() == 1
}

func (s *jubjubScalar) Set(that Scalar) Scalar {
	other := jubjubCastScalar(that)
	s.value.Mod(&other.value, jubjubOrder)
	return s
}

func (s *jubjubScalar) SetNat(x *saferith.Nat) Scalar {
	s.value.Mod(x, jubjubOrder)
	return s
}

func (s *jubjubScalar) SetUint64(x uint64) Scalar {
	s.value.SetUint64(x)
	s.value.Mod(&s.value, jubjubOrder)
	return s
}

func (s *jubjubScalar) Act(that Point) Point {
	other := jubjubCastPoint(that)
	out := new(jubjubPoint)
	if s.IsZero() {
		out.value.X.SetZero()
		out.value.Y.SetOne()
		return out
	}
	out.value.ScalarMultiplication(&other.value, s.value.Big())
	return out
}

func (s *jubjubScalar) ActOnBase() Point {
	return s.ActOn(GenSpend)
}

func (s *jubjubScalar) ActOn(gen Gen) Point {
	return s.Act(Jubjub{}.Generator(gen))
}

func (s *jubjubScalar) Wipe() {
	s.value.SetUint64(0)
}

type jubjubPoint struct {
	value twistededwards.PointAffine
}

func jubjubCastPoint(generic Point) *jubjubPoint {
	out, ok := generic.(*jubjubPoint)
	if !ok {
		panic(fmt.Sprintf("failed to convert to jubjubPoint: %v", generic))
	}
	return out
}

func (p *jubjubPoint) Curve() Curve { return Jubjub{} }

func (p *jubjubPoint) MarshalBinary() ([]byte, error) {
	return p.value.Marshal(), nil
}

// UnmarshalBinary decodes a compressed point, insisting on a canonical
// encoding and membership in the prime-order subgroup. The identity
// decodes successfully; points of order 2, 4 or 8 do not.
func (p *jubjubPoint) UnmarshalBinary(data []byte) error {
	if len(data) != jubjubPointBytes {
		return fmt.Errorf("invalid length for jubjub point: %d", len(data))
	}
	var v twistededwards.PointAffine
	if err := v.Unmarshal(data); err != nil {
		return fmt.Errorf("jubjubPoint.UnmarshalBinary: %w", err)
	}
	if !bytes.Equal(v.Marshal(), data) {
		return errors.New("jubjubPoint.UnmarshalBinary: non-canonical encoding")
	}
	if !v.IsOnCurve() {
		return errors.New("jubjubPoint.UnmarshalBinary: point not on curve")
	}
	var check twistededwards.PointAffine
	check.ScalarMultiplication(&v, jubjubOrderBig)
	if !(check.X.IsZero() && check.Y.IsOne()) {
		return errors.New("jubjubPoint.UnmarshalBinary: point not in prime-order subgroup")
	}
	p.value.Set(&v)
	return nil
}

func (p *jubjubPoint) Add(that Point) Point {
	other := jubjubCastPoint(that)
	out := new(jubjubPoint)
	out.value.Add(&p.value, &other.value)
	return out
}

func (p *jubjubPoint) Sub(that Point) Point {
	other := jubjubCastPoint(that)
	var neg twistededwards.PointAffine
	neg.Neg(&other.value)
	out := new(jubjubPoint)
	out.value.Add(&p.value, &neg)
	return out
}

func (p *jubjubPoint) Negate() Point {
	out := new(jubjubPoint)
	out.value.Neg(&p.value)
	return out
}

func (p *jubjubPoint) Set(that Point) Point {
	other := jubjubCastPoint(that)
	p.value.Set(&other.value)
	return p
}

func (p *jubjubPoint) Equal(that Point) bool {
	other := jubjubCastPoint(that)
	return p.value.Equal(&other.value)
}

func (p *jubjubPoint) IsIdentity() bool {
	return p.value.X.IsZero() && p.value.Y.IsOne()
}

func (p *jubjubPoint) AffineCoordinates() (x, y []byte) {
	xb := p.value.X.Bytes()
	yb := p.value.Y.Bytes()
	return xb[:], yb[:]
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
