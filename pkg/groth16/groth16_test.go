package groth16

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dummyModulus is a small prime standing in for the pairing curve order.
const dummyModulus = 64513

type (
	dumG1     uint64
	dumG2     uint64
	dumScalar uint64
)

// dummyEngine models all three pairing groups as ℤ_q under addition,
// with e(a, b) = a·b mod q. The Groth16 equation holds verbatim, which
// lets the verifier logic be tested without a real pairing.
type dummyEngine struct{}

func (dummyEngine) Name() string     { return "dummy" }
func (dummyEngine) G1Bytes() int     { return 2 }
func (dummyEngine) G2Bytes() int     { return 2 }
func (dummyEngine) ScalarBytes() int { return 2 }

func decodeDummy(data []byte) (uint64, error) {
	if len(data) != 2 {
		return 0, fmt.Errorf("invalid length %d", len(data))
	}
	v := uint64(binary.BigEndian.Uint16(data))
	if v >= dummyModulus {
		return 0, errors.New("not canonical")
	}
	return v, nil
}

func encodeDummy(v uint64) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, uint16(v))
	return out
}

func (dummyEngine) DecodeG1(data []byte) (interface{}, error) {
	v, err := decodeDummy(data)
	return dumG1(v), err
}

func (dummyEngine) DecodeG2(data []byte) (interface{}, error) {
	v, err := decodeDummy(data)
	return dumG2(v), err
}

func (dummyEngine) EncodeG1(p interface{}) []byte { return encodeDummy(uint64(p.(dumG1))) }
func (dummyEngine) EncodeG2(p interface{}) []byte { return encodeDummy(uint64(p.(dumG2))) }

func (dummyEngine) DecodeScalar(data []byte) (interface{}, error) {
	v, err := decodeDummy(data)
	return dumScalar(v), err
}

func (dummyEngine) AddG1(a, b interface{}) interface{} {
	return dumG1((uint64(a.(dumG1)) + uint64(b.(dumG1))) % dummyModulus)
}

func (dummyEngine) NegG1(a interface{}) interface{} {
	return dumG1((dummyModulus - uint64(a.(dumG1))) % dummyModulus)
}

func (dummyEngine) NegG2(a interface{}) interface{} {
	return dumG2((dummyModulus - uint64(a.(dumG2))) % dummyModulus)
}

func (dummyEngine) MSM(points []interface{}, scalars []interface{}) (interface{}, error) {
	if len(points) != len(scalars) {
		return nil, errors.New("mismatched MSM lengths")
	}
	var acc uint64
	for i := range points {
		acc = (acc + uint64(points[i].(dumG1))*uint64(scalars[i].(dumScalar))) % dummyModulus
	}
	return dumG1(acc), nil
}

func (dummyEngine) PairingCheck(g1 []interface{}, g2 []interface{}) (bool, error) {
	if len(g1) != len(g2) {
		return false, errors.New("mismatched pairing lengths")
	}
	var acc uint64
	for i := range g1 {
		acc = (acc + uint64(g1[i].(dumG1))*uint64(g2[i].(dumG2))) % dummyModulus
	}
	return acc == 0, nil
}

func modInverse(a uint64) uint64 {
	// q is prime, a^(q-2) = a⁻¹
	result, base, exp := uint64(1), a%dummyModulus, uint64(dummyModulus-2)
	for exp > 0 {
		if exp&1 == 1 {
			result = result * base % dummyModulus
		}
		base = base * base % dummyModulus
		exp >>= 1
	}
	return result
}

// dummyInstance fabricates a verifying key, inputs, and a proof
// satisfying A·B = α·β + acc·γ + C·δ.
func dummyInstance(t *testing.T, rng *rand.Rand, numInputs int) (*PreparedVerifyingKey, []byte, [][]byte) {
	t.Helper()
	nonzero := func() uint64 { return uint64(rng.Intn(dummyModulus-1)) + 1 }

	alpha, beta, gamma, delta := nonzero(), nonzero(), nonzero(), nonzero()
	ic := make([]interface{}, numInputs+1)
	for i := range ic {
		ic[i] = dumG1(nonzero())
	}
	vk := &VerifyingKey{
		AlphaG1: dumG1(alpha),
		BetaG2:  dumG2(beta),
		GammaG2: dumG2(gamma),
		DeltaG2: dumG2(delta),
		IC:      ic,
	}

	inputs := make([][]byte, numInputs)
	acc := uint64(ic[0].(dumG1))
	for i := range inputs {
		v := nonzero()
		inputs[i] = encodeDummy(v)
		acc = (acc + v*uint64(ic[i+1].(dumG1))) % dummyModulus
	}

	a, b := nonzero(), nonzero()
	rhs := (alpha*beta + acc*gamma) % dummyModulus
	c := (a*b + dummyModulus - rhs) % dummyModulus * modInverse(delta) % dummyModulus

	proof := &Proof{A: dumG1(a), B: dumG2(b), C: dumG1(c)}
	return Prepare(dummyEngine{}, vk), proof.Encode(dummyEngine{}), inputs
}

func TestVerifyAccepts(t *testing.T) {
	e := dummyEngine{}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 16; i++ {
		pvk, proofBytes, inputs := dummyInstance(t, rng, 5)
		proof, err := DecodeProof(e, proofBytes)
		require.NoError(t, err)
		assert.NoError(t, Verify(e, pvk, proof, inputs))
	}
}

func TestVerifyRejectsPerturbedProof(t *testing.T) {
	e := dummyEngine{}
	rng := rand.New(rand.NewSource(43))
	pvk, proofBytes, inputs := dummyInstance(t, rng, 5)

	for i := range proofBytes {
		bad := append([]byte{}, proofBytes...)
		bad[i] ^= 1
		proof, err := DecodeProof(e, bad)
		if err != nil {
			continue
		}
		assert.Error(t, Verify(e, pvk, proof, inputs), "flipping byte %d should not verify", i)
	}
}

func TestVerifyRejectsSwappedInputs(t *testing.T) {
	e := dummyEngine{}
	rng := rand.New(rand.NewSource(44))
	pvk, proofBytes, inputs := dummyInstance(t, rng, 5)
	proof, err := DecodeProof(e, proofBytes)
	require.NoError(t, err)

	inputs[0], inputs[1] = inputs[1], inputs[0]
	assert.ErrorIs(t, Verify(e, pvk, proof, inputs), ErrRejected)
}

func TestVerifyRejectsWrongInputCount(t *testing.T) {
	e := dummyEngine{}
	rng := rand.New(rand.NewSource(45))
	pvk, proofBytes, inputs := dummyInstance(t, rng, 5)
	proof, err := DecodeProof(e, proofBytes)
	require.NoError(t, err)

	assert.ErrorIs(t, Verify(e, pvk, proof, inputs[:4]), ErrMalformedInputs)
}

func TestDecodeProofRejectsBadLength(t *testing.T) {
	_, err := DecodeProof(dummyEngine{}, make([]byte, 5))
	assert.ErrorIs(t, err, ErrMalformedProof)
}

func TestDecodeScalarRejectsNonCanonical(t *testing.T) {
	e := dummyEngine{}
	_, err := e.DecodeScalar(encodeDummy(dummyModulus - 1))
	assert.NoError(t, err)
	_, err = e.DecodeScalar([]byte{0xff, 0xff})
	assert.Error(t, err)
}
