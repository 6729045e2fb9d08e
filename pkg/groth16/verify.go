package groth16

import "fmt"

// Proof holds the three decoded proof elements.
type Proof struct {
	A interface{} // G1
	B interface{} // G2
	C interface{} // G1
}

// DecodeProof deserializes A ‖ B ‖ C, rejecting anything off curve or
// outside the prime-order subgroups.
func DecodeProof(e Engine, data []byte) (*Proof, error) {
	g1, g2 := e.G1Bytes(), e.G2Bytes()
	if len(data) != 2*g1+g2 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedProof, len(data))
	}
	a, err := e.DecodeG1(data[:g1])
	if err != nil {
		return nil, fmt.Errorf("%w: A: %v", ErrMalformedProof, err)
	}
	b, err := e.DecodeG2(data[g1 : g1+g2])
	if err != nil {
		return nil, fmt.Errorf("%w: B: %v", ErrMalformedProof, err)
	}
	c, err := e.DecodeG1(data[g1+g2:])
	if err != nil {
		return nil, fmt.Errorf("%w: C: %v", ErrMalformedProof, err)
	}
	return &Proof{A: a, B: b, C: c}, nil
}

// Encode serializes the proof as A ‖ B ‖ C.
func (p *Proof) Encode(e Engine) []byte {
	out := make([]byte, 0, 2*e.G1Bytes()+e.G2Bytes())
	out = append(out, e.EncodeG1(p.A)...)
	out = append(out, e.EncodeG2(p.B)...)
	out = append(out, e.EncodeG1(p.C)...)
	return out
}

// VerifyingKey is the raw circuit verification key.
type VerifyingKey struct {
	AlphaG1 interface{}
	BetaG2  interface{}
	GammaG2 interface{}
	DeltaG2 interface{}
	// IC has one element more than the circuit's public input count.
	IC []interface{}
}

// PreparedVerifyingKey carries the negated key elements so that
// verification is a single pairing product compared against one.
type PreparedVerifyingKey struct {
	NegAlphaG1 interface{}
	BetaG2     interface{}
	NegGammaG2 interface{}
	NegDeltaG2 interface{}
	IC         []interface{}
}

// Prepare precomputes the negations used by Verify. The prepared key is
// immutable and safe for concurrent use.
func Prepare(e Engine, vk *VerifyingKey) *PreparedVerifyingKey {
	return &PreparedVerifyingKey{
		NegAlphaG1: e.NegG1(vk.AlphaG1),
		BetaG2:     vk.BetaG2,
		NegGammaG2: e.NegG2(vk.GammaG2),
		NegDeltaG2: e.NegG2(vk.DeltaG2),
		IC:         vk.IC,
	}
}

// InputLen returns the number of public inputs the key expects.
func (pvk *PreparedVerifyingKey) InputLen() int {
	return len(pvk.IC) - 1
}

// Verify checks proof against the prepared key and the encoded public
// inputs, evaluating
//
//	e(A, B) · e(acc, −γ) · e(C, −δ) · e(−α, β) == 1
//
// where acc = IC₀ + Σ inputᵢ·ICᵢ₊₁.
func Verify(e Engine, pvk *PreparedVerifyingKey, proof *Proof, publicInputs [][]byte) error {
	if len(publicInputs)+1 != len(pvk.IC) {
		return fmt.Errorf("%w: got %d inputs, key expects %d",
			ErrMalformedInputs, len(publicInputs), len(pvk.IC)-1)
	}

	scalars := make([]interface{}, len(publicInputs))
	for i, data := range publicInputs {
		s, err := e.DecodeScalar(data)
		if err != nil {
			return fmt.Errorf("%w: input %d: %v", ErrMalformedInputs, i, err)
		}
		scalars[i] = s
	}

	acc := pvk.IC[0]
	if len(scalars) > 0 {
		sum, err := e.MSM(pvk.IC[1:], scalars)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInputs, err)
		}
		acc = e.AddG1(acc, sum)
	}

	ok, err := e.PairingCheck(
		[]interface{}{proof.A, acc, proof.C, pvk.NegAlphaG1},
		[]interface{}{proof.B, pvk.NegGammaG2, pvk.NegDeltaG2, pvk.BetaG2},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if !ok {
		return ErrRejected
	}
	return nil
}
