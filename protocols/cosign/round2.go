package cosign

import (
	"github.com/zeroledger/zeroledger/internal/round"
	"github.com/zeroledger/zeroledger/pkg/hash"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/party"
)

type broadcast2 struct {
	// Commitment binds the sender to its nonce point before any
	// nonce is revealed.
	Commitment hash.Commitment
}

type round2 struct {
	*round1

	// nonce is this party's secret rᵢ.
	nonce curve.Scalar
	// noncePoint is Rᵢ = rᵢ·G_spend.
	noncePoint curve.Point

	decommitment hash.Decommitment
	commitments  map[party.ID]hash.Commitment
}

// VerifyMessage implements round.Round.
func (round2) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	return body.Commitment.Validate()
}

// StoreMessage implements round.Round.
func (r *round2) StoreMessage(msg round.Message) error {
	body := msg.Content.(*broadcast2)
	r.commitments[msg.From] = body.Commitment
	return nil
}

// Finalize implements round.Round.
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	if err := r.BroadcastMessage(out, &broadcast3{
		NoncePoint:   r.noncePoint,
		Decommitment: r.decommitment,
	}); err != nil {
		return r, err
	}

	return &round3{
		round2:      r,
		noncePoints: map[party.ID]curve.Point{r.SelfID(): r.noncePoint},
	}, nil
}

// MessageContent implements round.Round.
func (round2) MessageContent() round.Content { return &broadcast2{} }

// RoundNumber implements round.Content.
func (broadcast2) RoundNumber() round.Number { return 2 }

// Init implements round.Content.
func (broadcast2) Init(curve.Curve) {}

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }
