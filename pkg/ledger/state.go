// Package ledger holds the encrypted account state and applies verified
// transfer records to it.
package ledger

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zeroledger/zeroledger/pkg/elgamal"
	"github.com/zeroledger/zeroledger/pkg/keys"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/transfer"
)

const epochPersonalization = "zlgepoch"

// EpochGenerator derives the per-epoch generator g_epoch.
func EpochGenerator(group curve.Curve, epoch uint64) (curve.Point, error) {
	var msg [8]byte
	binary.LittleEndian.PutUint64(msg[:], epoch)
	return group.GroupHash(epochPersonalization, msg[:])
}

// State is the encrypted balance table, the registered account set, and
// the per-epoch replay nonce set. All mutations are serialized; records
// apply atomically or not at all.
type State struct {
	mtx sync.Mutex

	group    curve.Curve
	verifier *transfer.Verifier

	epochLength uint64
	height      uint64
	epoch       uint64
	gEpoch      curve.Point

	// balances maps the canonical encoding of an encryption key to the
	// account's current encrypted balance. Presence means registered.
	balances map[string]*elgamal.Ciphertext
	// nonces holds the nonce encodings seen in the current epoch.
	nonces map[string]struct{}
}

// NewState returns an empty State at height 0 with the given epoch
// length in blocks.
func NewState(group curve.Curve, verifier *transfer.Verifier, epochLength uint64) (*State, error) {
	if epochLength == 0 {
		return nil, fmt.Errorf("ledger: epoch length must be positive")
	}
	gEpoch, err := EpochGenerator(group, 0)
	if err != nil {
		return nil, err
	}
	return &State{
		group:       group,
		verifier:    verifier,
		epochLength: epochLength,
		gEpoch:      gEpoch,
		balances:    make(map[string]*elgamal.Ciphertext),
		nonces:      make(map[string]struct{}),
	}, nil
}

func encodePoint(p curve.Point) (string, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Register adds an account with the canonical zero balance. Registering
// an existing account is a no-op.
func (s *State) Register(ek keys.EncryptionKey) error {
	return s.RegisterWithBalance(ek, elgamal.Zero(s.group))
}

// RegisterWithBalance adds an account with an initial encrypted
// balance, as an issuer would at genesis.
func (s *State) RegisterWithBalance(ek keys.EncryptionKey, balance *elgamal.Ciphertext) error {
	key, err := encodePoint(ek)
	if err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.balances[key]; !ok {
		s.balances[key] = balance.Clone()
	}
	return nil
}

// Balance returns a copy of the account's current encrypted balance.
func (s *State) Balance(ek keys.EncryptionKey) (*elgamal.Ciphertext, error) {
	key, err := encodePoint(ek)
	if err != nil {
		return nil, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	bal, ok := s.balances[key]
	if !ok {
		return nil, transfer.ErrUnknownAccount
	}
	return bal.Clone(), nil
}

// Epoch returns the current epoch number.
func (s *State) Epoch() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.epoch
}

// EpochGenerator returns the current g_epoch.
func (s *State) EpochGenerator() curve.Point {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.group.NewPoint().Set(s.gEpoch)
}

// NonceSeen reports whether nonce was already recorded this epoch.
func (s *State) NonceSeen(nonce curve.Point) (bool, error) {
	key, err := encodePoint(nonce)
	if err != nil {
		return false, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	_, seen := s.nonces[key]
	return seen, nil
}

// SetHeight advances the chain height. Crossing an epoch boundary
// rotates g_epoch and purges the seen-nonce set.
func (s *State) SetHeight(height uint64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.height = height
	epoch := height / s.epochLength
	if epoch == s.epoch {
		return nil
	}
	gEpoch, err := EpochGenerator(s.group, epoch)
	if err != nil {
		return err
	}
	s.epoch = epoch
	s.gEpoch = gEpoch
	s.nonces = make(map[string]struct{})
	return nil
}

// AdvanceEpoch moves the height to the start of the next epoch.
func (s *State) AdvanceEpoch() error {
	s.mtx.Lock()
	next := (s.epoch + 1) * s.epochLength
	s.mtx.Unlock()
	return s.SetHeight(next)
}

// Apply verifies a confidential record and updates both balances.
// On any failure the state is untouched.
func (s *State) Apply(record *transfer.Record) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	senderKey, nonceKey, err := s.checkLocked(record.EkSender, record.Nonce, record.CBalance)
	if err != nil {
		return err
	}
	if err := s.verifier.VerifyRecord(record, s.gEpoch); err != nil {
		return err
	}

	recipientKey, err := encodePoint(record.EkRecipient)
	if err != nil {
		return fmt.Errorf("%w: %v", transfer.ErrMalformedInputs, err)
	}

	// debit before reading the recipient balance, so a self-transfer
	// credits the already-debited value
	s.balances[senderKey] = s.balances[senderKey].Sub(record.CSender).Sub(record.CFee)
	recipientBal, ok := s.balances[recipientKey]
	if !ok {
		recipientBal = elgamal.Zero(s.group)
	}
	s.balances[recipientKey] = recipientBal.Add(record.CRecipient)
	s.nonces[nonceKey] = struct{}{}
	return nil
}

// ApplyRing verifies an anonymous record and folds every ring
// ciphertext into its account. Decoy ciphertexts encrypt zero, so only
// the hidden sender and recipient balances change.
func (s *State) ApplyRing(record *transfer.RingRecord) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	ringKeys := make([]string, len(record.EkRing))
	snapshotMatch := false
	for i, ek := range record.EkRing {
		key, err := encodePoint(ek)
		if err != nil {
			return fmt.Errorf("%w: %v", transfer.ErrMalformedInputs, err)
		}
		bal, ok := s.balances[key]
		if !ok {
			// the hidden sender must be among the ring, so every ring
			// account has to exist
			return transfer.ErrUnknownAccount
		}
		if bal.Equal(record.CBalance) {
			snapshotMatch = true
		}
		ringKeys[i] = key
	}

	nonceKey, err := encodePoint(record.Nonce)
	if err != nil {
		return fmt.Errorf("%w: %v", transfer.ErrMalformedInputs, err)
	}
	if _, seen := s.nonces[nonceKey]; seen {
		return transfer.ErrNonceReplay
	}
	if !snapshotMatch {
		return transfer.ErrStaleSnapshot
	}
	if err := s.verifier.VerifyRingRecord(record, s.gEpoch); err != nil {
		return err
	}

	for i, key := range ringKeys {
		s.balances[key] = s.balances[key].Add(record.CRing[i])
	}
	s.nonces[nonceKey] = struct{}{}
	return nil
}

// checkLocked runs the state-dependent checks in their canonical order:
// unknown account, nonce replay, stale snapshot.
func (s *State) checkLocked(ekSender, nonce curve.Point, cBalance *elgamal.Ciphertext) (senderKey, nonceKey string, err error) {
	senderKey, err = encodePoint(ekSender)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", transfer.ErrMalformedInputs, err)
	}
	bal, ok := s.balances[senderKey]
	if !ok {
		return "", "", transfer.ErrUnknownAccount
	}

	nonceKey, err = encodePoint(nonce)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", transfer.ErrMalformedInputs, err)
	}
	if _, seen := s.nonces[nonceKey]; seen {
		return "", "", transfer.ErrNonceReplay
	}

	if !bal.Equal(cBalance) {
		return "", "", transfer.ErrStaleSnapshot
	}
	return senderKey, nonceKey, nil
}

// ApplyBatch verifies the records' proofs and signatures in parallel,
// then applies them in order. The result slice has one entry per
// record; later records see the state changes of earlier valid ones.
func (s *State) ApplyBatch(records []*transfer.Record) []error {
	results := make([]error, len(records))
	gEpoch := s.EpochGenerator()

	var g errgroup.Group
	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			results[i] = s.verifier.VerifyRecord(record, gEpoch)
			return nil
		})
	}
	_ = g.Wait()

	s.mtx.Lock()
	defer s.mtx.Unlock()
	for i, record := range records {
		if results[i] != nil {
			continue
		}
		senderKey, nonceKey, err := s.checkLocked(record.EkSender, record.Nonce, record.CBalance)
		if err != nil {
			results[i] = err
			continue
		}

		recipientKey, err := encodePoint(record.EkRecipient)
		if err != nil {
			results[i] = fmt.Errorf("%w: %v", transfer.ErrMalformedInputs, err)
			continue
		}
		s.balances[senderKey] = s.balances[senderKey].Sub(record.CSender).Sub(record.CFee)
		recipientBal, ok := s.balances[recipientKey]
		if !ok {
			recipientBal = elgamal.Zero(s.group)
		}
		s.balances[recipientKey] = recipientBal.Add(record.CRecipient)
		s.nonces[nonceKey] = struct{}{}
	}
	return results
}
