package transfer

import (
	"errors"
	"fmt"
	"io"

	"github.com/zeroledger/zeroledger/internal/params"
	"github.com/zeroledger/zeroledger/pkg/elgamal"
	"github.com/zeroledger/zeroledger/pkg/keys"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/math/sample"
	"github.com/zeroledger/zeroledger/pkg/reddsa"
)

// Witness is the private side of the transfer relation.
type Witness struct {
	Amount    uint64
	Fee       uint64
	Remaining uint64
	// R is the shared encryption randomness of all amount ciphertexts.
	R curve.Scalar
	// Alpha shifts the verification key for this transfer.
	Alpha curve.Scalar
	Pgk   *keys.ProofGenerationKey
	// SIndex and TIndex are the hidden sender and recipient ring
	// positions; only meaningful when the statement is anonymous.
	SIndex int
	TIndex int
}

// Wipe overwrites the witness scalars. The proof generation key is left
// alone as the caller owns it.
func (w *Witness) Wipe() {
	if w.R != nil {
		w.R.Wipe()
	}
	if w.Alpha != nil {
		w.Alpha.Wipe()
	}
}

// Prover produces a proof for a statement it has a satisfying witness
// for. The snark backend is external; tests use a transcript tag system
// with the same interface.
type Prover interface {
	Prove(st *Statement, w *Witness) ([]byte, error)
}

// SnarkVerifier checks a proof against the canonical public inputs.
type SnarkVerifier interface {
	VerifyProof(proof []byte, publicInputs [][]byte) error
}

// Composer assembles transfer records on behalf of a wallet.
type Composer struct {
	group   curve.Curve
	prover  Prover
	decoder *elgamal.Decoder
	rand    io.Reader
}

// NewComposer returns a Composer drawing randomness from rand.
func NewComposer(group curve.Curve, prover Prover, decoder *elgamal.Decoder, rand io.Reader) *Composer {
	return &Composer{group: group, prover: prover, decoder: decoder, rand: rand}
}

// ConfidentialTransfer builds a Record sending amount to ekRecipient,
// debiting amount plus fee from the balance snapshot. The snapshot must
// be the ledger's current ciphertext for the sender, decryptable by pgk.
func (c *Composer) ConfidentialTransfer(
	pgk *keys.ProofGenerationKey,
	ekRecipient keys.EncryptionKey,
	amount, fee uint64,
	balance *elgamal.Ciphertext,
	gEpoch curve.Point,
) (*Record, error) {
	dk := pgk.DecryptionKey()
	defer dk.Wipe()
	ekSender := pgk.EncryptionKey()

	r := sample.ScalarUnit(c.rand, c.group)
	alpha := sample.Scalar(c.rand, c.group)

	cSender, err := elgamal.Encrypt(ekSender, amount, r)
	if err != nil {
		return nil, err
	}
	cRecipient, err := elgamal.Encrypt(ekRecipient, amount, r)
	if err != nil {
		return nil, err
	}
	cFee, err := elgamal.Encrypt(ekSender, fee, r)
	if err != nil {
		return nil, err
	}

	remaining, err := c.decoder.Decrypt(dk, balance.Sub(cSender).Sub(cFee))
	if err != nil {
		return nil, fmt.Errorf("transfer: insufficient funds or wrong snapshot: %w", err)
	}

	st := &Statement{
		EkSender:    ekSender,
		EkRecipient: ekRecipient,
		CSender:     cSender,
		CRecipient:  cRecipient,
		CFee:        cFee,
		CBalance:    balance.Clone(),
		Rvk:         c.group.NewScalar().Set(pgk.Ask).Add(alpha).ActOn(curve.GenSpend),
		Nonce:       dk.Act(gEpoch),
		GEpoch:      gEpoch,
	}
	w := &Witness{Amount: amount, Fee: fee, Remaining: remaining, R: r, Alpha: alpha, Pgk: pgk}

	proof, err := c.prover.Prove(st, w)
	if err != nil {
		w.Wipe()
		return nil, fmt.Errorf("transfer: proving: %w", err)
	}

	record := &Record{
		Proof:       proof,
		EkSender:    ekSender,
		EkRecipient: ekRecipient,
		CRecipient:  cRecipient,
		CSender:     cSender,
		CFee:        cFee,
		Rvk:         st.Rvk,
		CBalance:    st.CBalance,
		Nonce:       st.Nonce,
	}
	record.Signature, err = c.sign(pgk, alpha, record)
	w.Wipe()
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RingTransfer builds an anonymous RingRecord over the given anonymity
// set. ring must contain the sender's own key at sIndex and the
// recipient's at tIndex; the remaining entries are decoys whose
// balances are unchanged by the transfer.
func (c *Composer) RingTransfer(
	pgk *keys.ProofGenerationKey,
	ring []keys.EncryptionKey,
	sIndex, tIndex int,
	amount, fee uint64,
	balance *elgamal.Ciphertext,
	gEpoch curve.Point,
) (*RingRecord, error) {
	n := len(ring)
	if n < 2 || n > MaxRingSize {
		return nil, fmt.Errorf("%w: ring size %d", ErrMalformedInputs, n)
	}
	if sIndex == tIndex || sIndex < 0 || sIndex >= n || tIndex < 0 || tIndex >= n {
		return nil, errors.New("transfer: invalid ring positions")
	}
	if amount+fee < amount || amount+fee > params.MaxAmount {
		return nil, elgamal.ErrAmountRange
	}

	dk := pgk.DecryptionKey()
	defer dk.Wipe()
	ekSender := pgk.EncryptionKey()
	if !ring[sIndex].Equal(ekSender) {
		return nil, errors.New("transfer: ring sender position does not hold our key")
	}

	r := sample.ScalarUnit(c.rand, c.group)
	alpha := sample.Scalar(c.rand, c.group)

	debit := c.group.NewScalar().SetUint64(amount + fee).Negate()
	cRing := make([]*elgamal.Ciphertext, n)
	for i, ek := range ring {
		var err error
		switch i {
		case sIndex:
			cRing[i] = elgamal.EncryptScalar(ek, debit, r)
		case tIndex:
			cRing[i], err = elgamal.Encrypt(ek, amount, r)
		default:
			cRing[i], err = elgamal.Encrypt(ek, 0, r)
		}
		if err != nil {
			return nil, err
		}
	}

	remaining, err := c.decoder.Decrypt(dk, balance.Add(cRing[sIndex]))
	if err != nil {
		return nil, fmt.Errorf("transfer: insufficient funds or wrong snapshot: %w", err)
	}

	st := &Statement{
		Ring:     ring,
		CRing:    cRing,
		CBalance: balance.Clone(),
		Rvk:      c.group.NewScalar().Set(pgk.Ask).Add(alpha).ActOn(curve.GenSpend),
		Nonce:    dk.Act(gEpoch),
		GEpoch:   gEpoch,
	}
	w := &Witness{
		Amount: amount, Fee: fee, Remaining: remaining,
		R: r, Alpha: alpha, Pgk: pgk,
		SIndex: sIndex, TIndex: tIndex,
	}

	proof, err := c.prover.Prove(st, w)
	if err != nil {
		w.Wipe()
		return nil, fmt.Errorf("transfer: proving: %w", err)
	}

	record := &RingRecord{
		Proof:    proof,
		EkRing:   ring,
		CRing:    cRing,
		Rvk:      st.Rvk,
		CBalance: st.CBalance,
		Nonce:    st.Nonce,
	}
	record.Signature, err = c.signRing(pgk, alpha, record)
	w.Wipe()
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Composer) sign(pgk *keys.ProofGenerationKey, alpha curve.Scalar, record *Record) (*reddsa.Signature, error) {
	message, err := record.SigningMessage()
	if err != nil {
		return nil, err
	}
	return c.signMessage(pgk, alpha, message)
}

func (c *Composer) signRing(pgk *keys.ProofGenerationKey, alpha curve.Scalar, record *RingRecord) (*reddsa.Signature, error) {
	message, err := record.SigningMessage()
	if err != nil {
		return nil, err
	}
	return c.signMessage(pgk, alpha, message)
}

func (c *Composer) signMessage(pgk *keys.ProofGenerationKey, alpha curve.Scalar, message []byte) (*reddsa.Signature, error) {
	rsk := reddsa.NewPrivateKey(pgk.Ask).Randomize(alpha)
	defer rsk.Wipe()
	return rsk.Sign(c.rand, message)
}
