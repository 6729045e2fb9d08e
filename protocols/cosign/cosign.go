// Package cosign implements the MuSig-style two-round protocol that
// lets the holders of a shared account produce a single randomized
// signature. Nonce commitments are exchanged before reveals, so no
// party can bias the aggregate nonce.
package cosign

import (
	"errors"
	"fmt"

	"github.com/zeroledger/zeroledger/internal/round"
	"github.com/zeroledger/zeroledger/pkg/hash"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/party"
	"github.com/zeroledger/zeroledger/pkg/reddsa"
)

const (
	protocolID                     = "zeroledger/cosign-1"
	protocolFinalRound round.Number = 4
)

var (
	// ErrCommitmentMismatch is the abort cause when a revealed nonce does
	// not match its commitment.
	ErrCommitmentMismatch = errors.New("cosign: commitment mismatch")
	// ErrInvalidShare is the abort cause when a signature share fails its
	// consistency check.
	ErrInvalidShare = errors.New("cosign: invalid signature share")
)

// Config describes one participant of a cosigning session over a fixed
// signer set.
type Config struct {
	// SelfID is this participant.
	SelfID party.ID
	// Secret is this participant's key share xᵢ.
	Secret curve.Scalar
	// Signers maps every participant to its public share Xᵢ.
	Signers map[party.ID]curve.Point
	// Randomizer is the participant folding the randomization scalar α
	// into its share. The aggregate signature then verifies under
	// X + α·G_spend instead of the long term X.
	Randomizer party.ID
	// Alpha is α; only the Randomizer sets it.
	Alpha curve.Scalar
	// AlphaG is α·G_spend, known to every participant.
	AlphaG curve.Point
	// Message is the byte string being signed.
	Message []byte
}

// Result is the protocol output, identical for all participants.
type Result struct {
	// Signature verifies under Rvk via Verify.
	Signature *reddsa.Signature
	// GroupKey is the aggregate key X = Σ aᵢ·Xᵢ.
	GroupKey curve.Point
	// Rvk is X + α·G_spend.
	Rvk curve.Point
}

// StartCosign validates the config and returns the first round of the
// session. sessionID must be fresh per execution.
func StartCosign(config *Config, sessionID []byte) (round.Session, error) {
	if config.Secret == nil || len(config.Message) == 0 {
		return nil, errors.New("cosign: incomplete config")
	}
	group := config.Secret.Curve()

	self, ok := config.Signers[config.SelfID]
	if !ok {
		return nil, errors.New("cosign: self not in signer set")
	}
	if !self.Equal(config.Secret.ActOn(curve.GenSpend)) {
		return nil, errors.New("cosign: secret share does not match public share")
	}
	if _, ok := config.Signers[config.Randomizer]; !ok {
		return nil, errors.New("cosign: randomizer not in signer set")
	}
	if config.AlphaG == nil {
		return nil, errors.New("cosign: missing alpha point")
	}
	if config.SelfID == config.Randomizer {
		if config.Alpha == nil || !config.AlphaG.Equal(config.Alpha.ActOn(curve.GenSpend)) {
			return nil, errors.New("cosign: alpha does not match alpha point")
		}
	}

	partyIDs := make([]party.ID, 0, len(config.Signers))
	for id := range config.Signers {
		partyIDs = append(partyIDs, id)
	}

	info := round.Info{
		ProtocolID:       protocolID,
		FinalRoundNumber: protocolFinalRound,
		SelfID:           config.SelfID,
		PartyIDs:         partyIDs,
		Group:            group,
	}

	alphaGBytes, err := config.AlphaG.MarshalBinary()
	if err != nil {
		return nil, err
	}
	helper, err := round.NewSession(info, sessionID,
		hash.BytesWithDomain{TheDomain: "Signed Message", Bytes: config.Message},
		hash.BytesWithDomain{TheDomain: "Alpha Point", Bytes: alphaGBytes},
		config.Randomizer,
	)
	if err != nil {
		return nil, fmt.Errorf("cosign: %w", err)
	}

	keyList, err := EncodeKeyList(helper.PartyIDs(), config.Signers)
	if err != nil {
		return nil, err
	}
	groupKey, err := AggregateKey(group, helper.PartyIDs(), config.Signers)
	if err != nil {
		return nil, err
	}

	return &round1{
		Helper:   helper,
		config:   config,
		keyList:  keyList,
		groupKey: groupKey,
		rvk:      groupKey.Add(config.AlphaG),
	}, nil
}

// challenge derives the share challenge c = H*(rvk ‖ R̄ ‖ M). Prefixing
// the randomized key pins the signature to this session's key shift.
func challenge(group curve.Curve, rvk curve.Point, rBar, message []byte) (curve.Scalar, error) {
	rvkBytes, err := rvk.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return reddsa.HStar(group, rvkBytes, rBar, message), nil
}

// Verify checks an aggregate cosignature against the randomized group
// key rvk = X + α·G_spend.
func Verify(rvk curve.Point, sig *reddsa.Signature, message []byte) bool {
	group := rvk.Curve()
	if sig == nil || len(sig.RBar) != group.PointBytes() || len(sig.SBar) != group.ScalarBytes() {
		return false
	}
	r := group.NewPoint()
	if err := r.UnmarshalBinary(sig.RBar); err != nil {
		return false
	}
	s := group.NewScalar()
	if err := s.UnmarshalBinary(sig.SBar); err != nil {
		return false
	}
	c, err := challenge(group, rvk, sig.RBar, message)
	if err != nil {
		return false
	}
	return s.ActOn(curve.GenSpend).Equal(r.Add(c.Act(rvk)))
}
