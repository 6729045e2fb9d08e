package cosign

import (
	"crypto/rand"
	"fmt"

	"github.com/zeroledger/zeroledger/internal/round"
	"github.com/zeroledger/zeroledger/pkg/hash"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/math/sample"
	"github.com/zeroledger/zeroledger/pkg/party"
)

// round1 has no incoming messages; its Finalize samples the nonce and
// broadcasts a binding commitment to it, so that no later party can
// pick its nonce as a function of the others.
type round1 struct {
	*round.Helper
	config *Config

	// keyList is L, the concatenation of all signer keys.
	keyList []byte
	// groupKey is X = Σ aᵢ·Xᵢ.
	groupKey curve.Point
	// rvk is X + α·G_spend, the key the final signature verifies under.
	rvk curve.Point
}

// VerifyMessage implements round.Round.
func (round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	nonce := sample.ScalarUnit(rand.Reader, r.Group())
	noncePoint := nonce.ActOn(curve.GenSpend)

	commitment, decommitment, err := r.HashForID(r.SelfID()).Commit(noncePoint)
	if err != nil {
		return r, fmt.Errorf("cosign: committing to nonce: %w", err)
	}

	if err := r.BroadcastMessage(out, &broadcast2{Commitment: commitment}); err != nil {
		return r, err
	}

	return &round2{
		round1:       r,
		nonce:        nonce,
		noncePoint:   noncePoint,
		decommitment: decommitment,
		commitments:  map[party.ID]hash.Commitment{r.SelfID(): commitment},
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
