package transfer

import (
	"github.com/zeroledger/zeroledger/pkg/elgamal"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
)

// inputBuilder assembles the public-input vector consumed by the snark
// verifier. Each point contributes its affine x and y as separate
// field elements; the push order is part of the statement and must
// match the circuit exactly.
type inputBuilder struct {
	inputs [][]byte
}

func newInputBuilder(points int) *inputBuilder {
	return &inputBuilder{inputs: make([][]byte, 0, 2*points)}
}

func (b *inputBuilder) point(p curve.Point) *inputBuilder {
	x, y := p.AffineCoordinates()
	b.inputs = append(b.inputs, x, y)
	return b
}

func (b *inputBuilder) ciphertext(c *elgamal.Ciphertext) *inputBuilder {
	return b.point(c.Left).point(c.Right)
}

// Statement is the public part of the transfer relation. Ring is nil
// for a confidential transfer; for an anonymous one it carries the full
// anonymity set and EkSender/EkRecipient/CSender/CRecipient/CFee are unused.
type Statement struct {
	EkSender    curve.Point
	EkRecipient curve.Point
	CSender     *elgamal.Ciphertext
	CRecipient  *elgamal.Ciphertext
	CFee        *elgamal.Ciphertext

	Ring  []curve.Point
	CRing []*elgamal.Ciphertext

	CBalance *elgamal.Ciphertext
	Rvk      curve.Point
	Nonce    curve.Point
	GEpoch   curve.Point
}

// Anonymous reports whether the statement carries an anonymity set.
func (st *Statement) Anonymous() bool {
	return len(st.Ring) > 0
}

// PublicInputs builds the canonical input vector.
//
// Confidential order: ek_s, ek_r, c_s, c_r, c_fee, c_balance, rvk,
// nonce, g_epoch. Anonymous order: the N ring keys, the N ring
// ciphertexts, then c_balance, rvk, nonce, g_epoch.
func (st *Statement) PublicInputs() [][]byte {
	if st.Anonymous() {
		b := newInputBuilder(3*len(st.Ring) + 5)
		for _, ek := range st.Ring {
			b.point(ek)
		}
		for _, c := range st.CRing {
			b.ciphertext(c)
		}
		b.ciphertext(st.CBalance)
		b.point(st.Rvk).point(st.Nonce).point(st.GEpoch)
		return b.inputs
	}

	b := newInputBuilder(13)
	b.point(st.EkSender).point(st.EkRecipient)
	b.ciphertext(st.CSender).ciphertext(st.CRecipient).ciphertext(st.CFee)
	b.ciphertext(st.CBalance)
	b.point(st.Rvk).point(st.Nonce).point(st.GEpoch)
	return b.inputs
}
