package round

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/party"
)

// ProcessRounds finalizes all rounds and delivers the resulting messages,
// serializing them through cbor the way a transport would.
// It is intended for tests only.
func ProcessRounds(group curve.Curve, rounds map[party.ID]Session) error {
	N := len(rounds)
	out := make(chan *Message, N*N)
	for idJ, r := range rounds {
		newRound, err := r.Finalize(out)
		if err != nil {
			return err
		}
		if newRound != nil {
			rounds[idJ] = newRound
		}
	}
	close(out)

	for msg := range out {
		msgBytes, err := cbor.Marshal(msg.Content)
		if err != nil {
			return err
		}
		for idJ, r := range rounds {
			if msg.From == idJ || (msg.To != "" && msg.To != idJ) {
				continue
			}
			m := Message{From: msg.From, To: msg.To, Broadcast: msg.Broadcast}
			m.Content = r.MessageContent()
			if m.Content == nil {
				continue
			}
			m.Content.Init(group)
			if err = cbor.Unmarshal(msgBytes, m.Content); err != nil {
				return err
			}

			if err = r.VerifyMessage(m); err != nil {
				return err
			}
			if err = r.StoreMessage(m); err != nil {
				return err
			}
		}
	}
	return nil
}
