// Package groth16 verifies Groth16 proofs against a prepared verifying
// key. The pairing curve is abstracted behind the Engine interface, so
// tests can substitute small prime arithmetic for the real pairing.
package groth16

import "errors"

var (
	// ErrMalformedProof is returned when a proof fails to deserialize.
	ErrMalformedProof = errors.New("groth16: malformed proof")
	// ErrMalformedInputs is returned when a public input is not a
	// canonical field element, or the input count does not match the key.
	ErrMalformedInputs = errors.New("groth16: malformed public inputs")
	// ErrRejected is returned when the pairing check fails.
	ErrRejected = errors.New("groth16: proof rejected")
)

// Engine is the narrow pairing capability the verifier needs. Points
// and scalars are opaque handles owned by the engine; mixing handles
// from different engines panics.
type Engine interface {
	Name() string

	// G1Bytes and G2Bytes are the compressed encoding lengths; a proof
	// is A ‖ B ‖ C of length 2·G1Bytes + G2Bytes.
	G1Bytes() int
	G2Bytes() int
	ScalarBytes() int

	// DecodeG1 rejects non-canonical, off-curve, and out-of-subgroup
	// encodings.
	DecodeG1(data []byte) (interface{}, error)
	DecodeG2(data []byte) (interface{}, error)
	EncodeG1(p interface{}) []byte
	EncodeG2(p interface{}) []byte

	// DecodeScalar decodes a canonical big-endian field element.
	DecodeScalar(data []byte) (interface{}, error)

	AddG1(a, b interface{}) interface{}
	NegG1(a interface{}) interface{}
	NegG2(a interface{}) interface{}

	// MSM returns Σ scalarᵢ·pointᵢ. Both slices must have equal length.
	MSM(points []interface{}, scalars []interface{}) (interface{}, error)

	// PairingCheck reports whether ∏ e(p1ᵢ, p2ᵢ) is the identity of GT.
	PairingCheck(g1 []interface{}, g2 []interface{}) (bool, error)
}
