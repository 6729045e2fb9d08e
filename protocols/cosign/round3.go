package cosign

import (
	"github.com/zeroledger/zeroledger/internal/round"
	"github.com/zeroledger/zeroledger/pkg/hash"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/party"
)

type broadcast3 struct {
	// NoncePoint is the Rⱼ committed to in the previous round.
	NoncePoint curve.Point
	// Decommitment opens that commitment.
	Decommitment hash.Decommitment
}

type round3 struct {
	*round2

	noncePoints   map[party.ID]curve.Point
	decommitments map[party.ID]hash.Decommitment
}

// VerifyMessage implements round.Round.
func (r *round3) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.NoncePoint == nil || body.NoncePoint.IsIdentity() {
		return round.ErrNilFields
	}
	return body.Decommitment.Validate()
}

// StoreMessage implements round.Round.
func (r *round3) StoreMessage(msg round.Message) error {
	body := msg.Content.(*broadcast3)
	if r.decommitments == nil {
		r.decommitments = map[party.ID]hash.Decommitment{}
	}
	r.noncePoints[msg.From] = body.NoncePoint
	r.decommitments[msg.From] = body.Decommitment
	return nil
}

// Finalize implements round.Round.
//
// The decommitment check happens here rather than in VerifyMessage so
// that all misbehaving parties are reported together as culprits.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	var culprits []party.ID
	for _, j := range r.OtherPartyIDs() {
		if !r.HashForID(j).Decommit(r.commitments[j], r.decommitments[j], r.noncePoints[j]) {
			culprits = append(culprits, j)
		}
	}
	if len(culprits) > 0 {
		r.nonce.Wipe()
		return r.AbortRound(ErrCommitmentMismatch, culprits...), nil
	}

	aggregateNonce := r.Group().NewPoint()
	for _, j := range r.PartyIDs() {
		aggregateNonce = aggregateNonce.Add(r.noncePoints[j])
	}
	nonceBytes, err := aggregateNonce.MarshalBinary()
	if err != nil {
		return r, err
	}

	c, err := challenge(r.Group(), r.rvk, nonceBytes, r.config.Message)
	if err != nil {
		return r, err
	}

	binding, err := BindingFactor(r.Group(), r.keyList, r.config.Signers[r.SelfID()])
	if err != nil {
		return r, err
	}
	share := r.Group().NewScalar().Set(c).Mul(binding).Mul(r.config.Secret).Add(r.nonce)
	if r.SelfID() == r.config.Randomizer {
		share.Add(r.Group().NewScalar().Set(c).Mul(r.config.Alpha))
	}
	r.nonce.Wipe()

	if err := r.BroadcastMessage(out, &broadcast4{Share: share}); err != nil {
		return r, err
	}

	return &round4{
		round3:         r,
		aggregateNonce: aggregateNonce,
		challenge:      c,
		shares:         map[party.ID]curve.Scalar{r.SelfID(): share},
	}, nil
}

// MessageContent implements round.Round.
func (r *round3) MessageContent() round.Content { return &broadcast3{} }

// RoundNumber implements round.Content.
func (broadcast3) RoundNumber() round.Number { return 3 }

// Init implements round.Content.
func (b *broadcast3) Init(group curve.Curve) {
	b.NoncePoint = group.NewPoint()
}

// Number implements round.Round.
func (round3) Number() round.Number { return 3 }
