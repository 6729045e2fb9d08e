// Package zktest is an in-process stand-in for the snark backend. Prove
// checks the transfer relation against the real witness and emits a
// keyed transcript tag of the public inputs; VerifyProof recomputes the
// tag. Proofs are unsound against anyone holding the system key, which
// is exactly as much soundness as tests need.
package zktest

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/zeroledger/zeroledger/internal/params"
	"github.com/zeroledger/zeroledger/pkg/elgamal"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/transfer"
)

// System implements transfer.Prover and transfer.SnarkVerifier.
type System struct {
	group curve.Curve
	key   [32]byte
}

// NewSystem derives the tag key from a context string, so independent
// systems reject each other's proofs.
func NewSystem(group curve.Curve, context string) *System {
	s := &System{group: group}
	blake3.DeriveKey("zeroledger/zktest/tag-key", []byte(context), s.key[:])
	return s
}

var errUnsatisfied = errors.New("zktest: witness does not satisfy the relation")

// Prove implements transfer.Prover.
func (s *System) Prove(st *transfer.Statement, w *transfer.Witness) ([]byte, error) {
	var err error
	if st.Anonymous() {
		err = s.checkRingRelation(st, w)
	} else {
		err = s.checkRelation(st, w)
	}
	if err != nil {
		return nil, err
	}
	return s.tag(st.PublicInputs())
}

// VerifyProof implements transfer.SnarkVerifier.
func (s *System) VerifyProof(proof []byte, publicInputs [][]byte) error {
	if len(proof) != params.ProofBytes {
		return fmt.Errorf("%w: length %d", transfer.ErrMalformedProof, len(proof))
	}
	expected, err := s.tag(publicInputs)
	if err != nil {
		return fmt.Errorf("%w: %v", transfer.ErrMalformedInputs, err)
	}
	if subtle.ConstantTimeCompare(proof, expected) != 1 {
		return transfer.ErrSnarkRejected
	}
	return nil
}

func (s *System) tag(publicInputs [][]byte) ([]byte, error) {
	h, err := blake3.NewKeyed(s.key[:])
	if err != nil {
		return nil, err
	}
	for _, input := range publicInputs {
		_, _ = h.Write([]byte{byte(len(input))})
		_, _ = h.Write(input)
	}
	out := make([]byte, params.ProofBytes)
	_, _ = h.Digest().Read(out)
	return out, nil
}

func (s *System) checkRelation(st *transfer.Statement, w *transfer.Witness) error {
	if w.Amount > params.MaxAmount || w.Fee > params.MaxAmount || w.Remaining > params.MaxAmount {
		return errUnsatisfied
	}
	dk := w.Pgk.DecryptionKey()
	defer dk.Wipe()

	// ek_s = dk·G_enc
	if !st.EkSender.Equal(dk.ActOn(curve.GenEnc)) {
		return errUnsatisfied
	}

	// the three amount ciphertexts share the randomness r
	cS, err := elgamal.Encrypt(st.EkSender, w.Amount, w.R)
	if err != nil {
		return err
	}
	cR, err := elgamal.Encrypt(st.EkRecipient, w.Amount, w.R)
	if err != nil {
		return err
	}
	cFee, err := elgamal.Encrypt(st.EkSender, w.Fee, w.R)
	if err != nil {
		return err
	}
	if !cS.Equal(st.CSender) || !cR.Equal(st.CRecipient) || !cFee.Equal(st.CFee) {
		return errUnsatisfied
	}

	// the balance left after the debit is the claimed remaining
	left := st.CBalance.Sub(st.CSender).Sub(st.CFee).Decrypt(dk)
	if !left.Equal(s.lift(w.Remaining)) {
		return errUnsatisfied
	}

	return s.checkAuthorization(st, w)
}

func (s *System) checkRingRelation(st *transfer.Statement, w *transfer.Witness) error {
	n := len(st.Ring)
	if len(st.CRing) != n || w.SIndex == w.TIndex ||
		w.SIndex < 0 || w.SIndex >= n || w.TIndex < 0 || w.TIndex >= n {
		return errUnsatisfied
	}
	if w.Amount > params.MaxAmount || w.Fee > params.MaxAmount || w.Remaining > params.MaxAmount ||
		w.Amount+w.Fee > params.MaxAmount {
		return errUnsatisfied
	}
	dk := w.Pgk.DecryptionKey()
	defer dk.Wipe()

	if !st.Ring[w.SIndex].Equal(dk.ActOn(curve.GenEnc)) {
		return errUnsatisfied
	}

	debit := s.group.NewScalar().SetUint64(w.Amount + w.Fee).Negate()
	for i := range st.Ring {
		var want *elgamal.Ciphertext
		var err error
		switch i {
		case w.SIndex:
			want = elgamal.EncryptScalar(st.Ring[i], debit, w.R)
		case w.TIndex:
			want, err = elgamal.Encrypt(st.Ring[i], w.Amount, w.R)
		default:
			want, err = elgamal.Encrypt(st.Ring[i], 0, w.R)
		}
		if err != nil {
			return err
		}
		if !want.Equal(st.CRing[i]) {
			return errUnsatisfied
		}
	}

	left := st.CBalance.Add(st.CRing[w.SIndex]).Decrypt(dk)
	if !left.Equal(s.lift(w.Remaining)) {
		return errUnsatisfied
	}

	return s.checkAuthorization(st, w)
}

// checkAuthorization covers the statement parts shared by both
// variants: the randomized key and the epoch nonce.
func (s *System) checkAuthorization(st *transfer.Statement, w *transfer.Witness) error {
	rvk := s.group.NewScalar().Set(w.Pgk.Ask).Add(w.Alpha).ActOn(curve.GenSpend)
	if !st.Rvk.Equal(rvk) {
		return errUnsatisfied
	}
	dk := w.Pgk.DecryptionKey()
	defer dk.Wipe()
	if !st.Nonce.Equal(dk.Act(st.GEpoch)) {
		return errUnsatisfied
	}
	return nil
}

func (s *System) lift(amount uint64) curve.Point {
	return s.group.NewScalar().SetUint64(amount).ActOn(curve.GenEnc)
}
