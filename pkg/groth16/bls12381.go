package groth16

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// BLS12381 is the production pairing engine. Proofs are 192 bytes:
// 48 (A) + 96 (B) + 48 (C) compressed.
type BLS12381 struct{}

func (BLS12381) Name() string     { return "bls12381" }
func (BLS12381) G1Bytes() int     { return bls12381.SizeOfG1AffineCompressed }
func (BLS12381) G2Bytes() int     { return bls12381.SizeOfG2AffineCompressed }
func (BLS12381) ScalarBytes() int { return fr.Bytes }

func castG1(p interface{}) *bls12381.G1Affine {
	out, ok := p.(*bls12381.G1Affine)
	if !ok {
		panic(fmt.Sprintf("groth16: not a bls12381 G1 element: %T", p))
	}
	return out
}

func castG2(p interface{}) *bls12381.G2Affine {
	out, ok := p.(*bls12381.G2Affine)
	if !ok {
		panic(fmt.Sprintf("groth16: not a bls12381 G2 element: %T", p))
	}
	return out
}

func castScalar(s interface{}) *fr.Element {
	out, ok := s.(*fr.Element)
	if !ok {
		panic(fmt.Sprintf("groth16: not a bls12381 scalar: %T", s))
	}
	return out
}

func (BLS12381) DecodeG1(data []byte) (interface{}, error) {
	if len(data) != bls12381.SizeOfG1AffineCompressed {
		return nil, fmt.Errorf("invalid G1 length %d", len(data))
	}
	p := new(bls12381.G1Affine)
	// SetBytes rejects off-curve and out-of-subgroup points.
	if _, err := p.SetBytes(data); err != nil {
		return nil, err
	}
	return p, nil
}

func (BLS12381) DecodeG2(data []byte) (interface{}, error) {
	if len(data) != bls12381.SizeOfG2AffineCompressed {
		return nil, fmt.Errorf("invalid G2 length %d", len(data))
	}
	p := new(bls12381.G2Affine)
	if _, err := p.SetBytes(data); err != nil {
		return nil, err
	}
	return p, nil
}

func (BLS12381) EncodeG1(p interface{}) []byte {
	data := castG1(p).Bytes()
	return data[:]
}

func (BLS12381) EncodeG2(p interface{}) []byte {
	data := castG2(p).Bytes()
	return data[:]
}

func (BLS12381) DecodeScalar(data []byte) (interface{}, error) {
	if len(data) != fr.Bytes {
		return nil, fmt.Errorf("invalid scalar length %d", len(data))
	}
	s := new(fr.Element)
	if err := s.SetBytesCanonical(data); err != nil {
		return nil, err
	}
	return s, nil
}

func (BLS12381) AddG1(a, b interface{}) interface{} {
	out := new(bls12381.G1Affine)
	out.Add(castG1(a), castG1(b))
	return out
}

func (BLS12381) NegG1(a interface{}) interface{} {
	out := new(bls12381.G1Affine)
	out.Neg(castG1(a))
	return out
}

func (BLS12381) NegG2(a interface{}) interface{} {
	out := new(bls12381.G2Affine)
	out.Neg(castG2(a))
	return out
}

func (BLS12381) MSM(points []interface{}, scalars []interface{}) (interface{}, error) {
	if len(points) != len(scalars) {
		return nil, errors.New("mismatched MSM lengths")
	}
	ps := make([]bls12381.G1Affine, len(points))
	ss := make([]fr.Element, len(scalars))
	for i := range points {
		ps[i] = *castG1(points[i])
		ss[i] = *castScalar(scalars[i])
	}
	out := new(bls12381.G1Affine)
	if _, err := out.MultiExp(ps, ss, ecc.MultiExpConfig{}); err != nil {
		return nil, err
	}
	return out, nil
}

func (BLS12381) PairingCheck(g1 []interface{}, g2 []interface{}) (bool, error) {
	if len(g1) != len(g2) {
		return false, errors.New("mismatched pairing lengths")
	}
	ps := make([]bls12381.G1Affine, len(g1))
	qs := make([]bls12381.G2Affine, len(g2))
	for i := range g1 {
		ps[i] = *castG1(g1[i])
		qs[i] = *castG2(g2[i])
	}
	return bls12381.PairingCheck(ps, qs)
}
