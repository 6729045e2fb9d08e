package cosign

import (
	"github.com/zeroledger/zeroledger/internal/round"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/party"
	"github.com/zeroledger/zeroledger/pkg/reddsa"
)

type broadcast4 struct {
	// Share is sⱼ = rⱼ + c·aⱼ·xⱼ, plus c·α when sent by the randomizer.
	Share curve.Scalar
}

type round4 struct {
	*round3

	// aggregateNonce is R̄ = Σ Rⱼ.
	aggregateNonce curve.Point
	challenge      curve.Scalar
	shares         map[party.ID]curve.Scalar
}

// VerifyMessage implements round.Round.
func (round4) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Share == nil || body.Share.IsZero() {
		return round.ErrNilFields
	}
	return nil
}

// StoreMessage implements round.Round.
func (r *round4) StoreMessage(msg round.Message) error {
	body := msg.Content.(*broadcast4)
	r.shares[msg.From] = body.Share
	return nil
}

// Finalize implements round.Round.
//
// Each share is checked against the sender's published nonce point
// before aggregation, so a bad share is attributed instead of merely
// producing an invalid signature.
func (r *round4) Finalize(chan<- *round.Message) (round.Session, error) {
	var culprits []party.ID
	for _, j := range r.OtherPartyIDs() {
		binding, err := BindingFactor(r.Group(), r.keyList, r.config.Signers[j])
		if err != nil {
			return r, err
		}
		expected := r.noncePoints[j].Add(r.challenge.Act(binding.Act(r.config.Signers[j])))
		if j == r.config.Randomizer {
			expected = expected.Add(r.challenge.Act(r.config.AlphaG))
		}
		if !r.shares[j].ActOn(curve.GenSpend).Equal(expected) {
			culprits = append(culprits, j)
		}
	}
	if len(culprits) > 0 {
		return r.AbortRound(ErrInvalidShare, culprits...), nil
	}

	s := r.Group().NewScalar()
	for _, j := range r.PartyIDs() {
		s.Add(r.shares[j])
	}

	rBar, err := r.aggregateNonce.MarshalBinary()
	if err != nil {
		return r, err
	}
	sBar, err := s.MarshalBinary()
	if err != nil {
		return r, err
	}
	sig := &reddsa.Signature{RBar: rBar, SBar: sBar}

	if !Verify(r.rvk, sig, r.config.Message) {
		return r.AbortRound(ErrInvalidShare, r.OtherPartyIDs()...), nil
	}

	return r.ResultRound(&Result{
		Signature: sig,
		GroupKey:  r.groupKey,
		Rvk:       r.rvk,
	}), nil
}

// MessageContent implements round.Round.
func (r *round4) MessageContent() round.Content { return &broadcast4{} }

// RoundNumber implements round.Content.
func (broadcast4) RoundNumber() round.Number { return 4 }

// Init implements round.Content.
func (b *broadcast4) Init(group curve.Curve) {
	b.Share = group.NewScalar()
}

// Number implements round.Round.
func (round4) Number() round.Number { return 4 }
