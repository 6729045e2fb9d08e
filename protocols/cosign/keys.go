package cosign

import (
	"errors"

	"github.com/zeebo/blake3"

	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/party"
)

const bindingPrefix = "zeroledger/cosign/binding"

// EncodeKeyList concatenates the signer keys in party order, producing
// the L fed into every binding factor.
func EncodeKeyList(signers party.IDSlice, keys map[party.ID]curve.Point) ([]byte, error) {
	out := make([]byte, 0, len(signers)*32)
	for _, id := range signers {
		x, ok := keys[id]
		if !ok {
			return nil, errors.New("cosign: missing signer key")
		}
		data, err := x.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

// BindingFactor computes aᵢ = H(L ‖ Xᵢ), the per-signer weight in the
// aggregate key. A direct hash of the concatenated list keeps the
// factor reproducible across implementations.
func BindingFactor(group curve.Curve, keyList []byte, x curve.Point) (curve.Scalar, error) {
	xBytes, err := x.MarshalBinary()
	if err != nil {
		return nil, err
	}
	h := blake3.New()
	_, _ = h.Write([]byte(bindingPrefix))
	_, _ = h.Write(keyList)
	_, _ = h.Write(xBytes)
	var wide [64]byte
	_, _ = h.Digest().Read(wide[:])
	return curve.FromHash(group, wide[:]), nil
}

// AggregateKey computes X = Σ aᵢ·Xᵢ over the signer set.
func AggregateKey(group curve.Curve, signers party.IDSlice, keys map[party.ID]curve.Point) (curve.Point, error) {
	keyList, err := EncodeKeyList(signers, keys)
	if err != nil {
		return nil, err
	}
	out := group.NewPoint()
	for _, id := range signers {
		a, err := BindingFactor(group, keyList, keys[id])
		if err != nil {
			return nil, err
		}
		out = out.Add(a.Act(keys[id]))
	}
	return out, nil
}
