package round

import (
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/party"
)

// Content represents the message payload, either broadcast or P2P,
// returned by a round during finalization.
type Content interface {
	RoundNumber() Number
	// Init allocates the curve-dependent fields so that the content can
	// be deserialized into.
	Init(group curve.Curve)
}

type Message struct {
	From, To  party.ID
	Broadcast bool
	Content   Content
}
