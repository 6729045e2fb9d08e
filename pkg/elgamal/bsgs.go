package elgamal

import (
	"errors"

	"github.com/zeroledger/zeroledger/internal/params"
	"github.com/zeroledger/zeroledger/pkg/keys"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
)

// ErrOutOfRange is returned when a decrypted point encodes no amount in
// [0, 2³²). A well formed ciphertext can still trigger it, for example
// when decrypting with the wrong key.
var ErrOutOfRange = errors.New("elgamal: discrete log outside amount range")

// Decoder recovers amounts from lifted points by baby-step giant-step
// over the range [0, 2³²), with 2¹⁶ baby steps. The baby table costs a
// few megabytes and is built once, so decoders should be reused.
type Decoder struct {
	group curve.Curve
	// base maps the encoding of j·G_enc to j for j < 2¹⁶.
	baby map[string]uint64
	// giant is −2¹⁶·G_enc.
	giant curve.Point
}

// NewDecoder builds the baby-step table for the group.
func NewDecoder(group curve.Curve) (*Decoder, error) {
	gEnc := group.Generator(curve.GenEnc)
	step := uint64(1) << params.BabyStepBits

	baby := make(map[string]uint64, step)
	cur := group.NewPoint()
	for j := uint64(0); j < step; j++ {
		data, err := cur.MarshalBinary()
		if err != nil {
			return nil, err
		}
		baby[string(data)] = j
		cur = cur.Add(gEnc)
	}

	giant := group.NewScalar().SetUint64(step).ActOn(curve.GenEnc).Negate()
	return &Decoder{group: group, baby: baby, giant: giant}, nil
}

// Decode solves m = log_{G_enc}(p) for m ∈ [0, 2³²).
func (d *Decoder) Decode(p curve.Point) (uint64, error) {
	return d.decode(p, params.MaxAmount)
}

func (d *Decoder) decode(p curve.Point, max uint64) (uint64, error) {
	steps := max>>params.BabyStepBits + 1
	cur := d.group.NewPoint().Set(p)
	for i := uint64(0); i < steps; i++ {
		data, err := cur.MarshalBinary()
		if err != nil {
			return 0, err
		}
		if j, ok := d.baby[string(data)]; ok {
			m := i<<params.BabyStepBits + j
			if m > max {
				return 0, ErrOutOfRange
			}
			return m, nil
		}
		cur = cur.Add(d.giant)
	}
	return 0, ErrOutOfRange
}

// Decrypt recovers the amount encrypted in c under dk.
func (d *Decoder) Decrypt(dk keys.DecryptionKey, c *Ciphertext) (uint64, error) {
	if !c.Valid() {
		return 0, ErrMalformedCiphertext
	}
	return d.Decode(c.Decrypt(dk))
}

// DecryptWithin is Decrypt with a tighter bound on the plaintext,
// searching only the giant steps covering [0, max]. Callers that know
// an account's balance cap get a proportionally faster failure.
func (d *Decoder) DecryptWithin(dk keys.DecryptionKey, c *Ciphertext, max uint64) (uint64, error) {
	if !c.Valid() {
		return 0, ErrMalformedCiphertext
	}
	if max > params.MaxAmount {
		max = params.MaxAmount
	}
	return d.decode(c.Decrypt(dk), max)
}
