package transfer

import (
	"errors"
	"fmt"

	"github.com/zeroledger/zeroledger/pkg/groth16"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/reddsa"
)

// Verifier checks transfer records. It is stateless; replay and
// snapshot checks belong to the ledger, which knows the current epoch.
type Verifier struct {
	group curve.Curve
	snark SnarkVerifier
}

// NewVerifier returns a Verifier using the given snark backend.
func NewVerifier(group curve.Curve, snark SnarkVerifier) *Verifier {
	return &Verifier{group: group, snark: snark}
}

// VerifyRecord checks the proof and the randomized signature of a
// confidential record against the epoch generator.
func (v *Verifier) VerifyRecord(record *Record, gEpoch curve.Point) error {
	st := record.Statement(gEpoch)
	if err := v.snark.VerifyProof(record.Proof, st.PublicInputs()); err != nil {
		return err
	}
	message, err := record.SigningMessage()
	if err != nil {
		return err
	}
	return v.verifySignature(record.Rvk, record.Signature, message)
}

// VerifyRingRecord is VerifyRecord for the anonymous variant.
func (v *Verifier) VerifyRingRecord(record *RingRecord, gEpoch curve.Point) error {
	n := len(record.EkRing)
	if n < 2 || n > MaxRingSize || len(record.CRing) != n {
		return fmt.Errorf("%w: ring size %d", ErrMalformedInputs, n)
	}
	st := record.Statement(gEpoch)
	if err := v.snark.VerifyProof(record.Proof, st.PublicInputs()); err != nil {
		return err
	}
	message, err := record.SigningMessage()
	if err != nil {
		return err
	}
	return v.verifySignature(record.Rvk, record.Signature, message)
}

func (v *Verifier) verifySignature(rvk curve.Point, sig *reddsa.Signature, message []byte) error {
	if rvk.IsIdentity() {
		return fmt.Errorf("%w: identity rvk", ErrMalformedInputs)
	}
	if !reddsa.NewPublicKey(rvk).Verify(sig, message) {
		return ErrSignatureInvalid
	}
	return nil
}

// Groth16Verifier adapts a pairing engine and prepared verifying key to
// the SnarkVerifier interface, mapping engine errors onto the transfer
// failure taxonomy.
type Groth16Verifier struct {
	Engine groth16.Engine
	PVK    *groth16.PreparedVerifyingKey
}

// VerifyProof implements SnarkVerifier.
func (g *Groth16Verifier) VerifyProof(proof []byte, publicInputs [][]byte) error {
	decoded, err := groth16.DecodeProof(g.Engine, proof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	err = groth16.Verify(g.Engine, g.PVK, decoded, publicInputs)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, groth16.ErrMalformedInputs):
		return fmt.Errorf("%w: %v", ErrMalformedInputs, err)
	default:
		return fmt.Errorf("%w: %v", ErrSnarkRejected, err)
	}
}
