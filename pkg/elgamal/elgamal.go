package elgamal

import (
	"errors"
	"fmt"
	"io"

	"github.com/zeroledger/zeroledger/internal/params"
	"github.com/zeroledger/zeroledger/pkg/keys"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/math/sample"
)

var (
	// ErrAmountRange is returned when an amount does not fit the lifted
	// plaintext domain [0, 2³²).
	ErrAmountRange = fmt.Errorf("elgamal: amount outside [0, 2^%d)", params.AmountBits)
	// ErrMalformedCiphertext is returned when a ciphertext has missing or
	// invalid components.
	ErrMalformedCiphertext = errors.New("elgamal: malformed ciphertext")
)

// Ciphertext is a lifted ElGamal encryption of a bounded integer amount:
//
//	Right = r·G_enc
//	Left  = amount·G_enc + r·ek
//
// Addition of ciphertexts under the same key adds the amounts.
type Ciphertext struct {
	Left  curve.Point
	Right curve.Point
}

// Empty returns a Ciphertext with allocated, identity components,
// suitable for deserializing into.
func Empty(group curve.Curve) *Ciphertext {
	return &Ciphertext{
		Left:  group.NewPoint(),
		Right: group.NewPoint(),
	}
}

// Zero returns the canonical encryption of 0 with randomness 0, the
// starting balance of a fresh account. Any decryption key decrypts it to 0.
func Zero(group curve.Curve) *Ciphertext {
	return Empty(group)
}

// Encrypt encrypts amount under ek with the given randomness.
func Encrypt(ek keys.EncryptionKey, amount uint64, nonce curve.Scalar) (*Ciphertext, error) {
	if amount > params.MaxAmount {
		return nil, ErrAmountRange
	}
	group := ek.Curve()
	m := group.NewScalar().SetUint64(amount)
	return EncryptScalar(ek, m, nonce), nil
}

// EncryptNew encrypts amount under ek with randomness drawn from rand,
// returning the randomness alongside the ciphertext.
func EncryptNew(rand io.Reader, ek keys.EncryptionKey, amount uint64) (*Ciphertext, curve.Scalar, error) {
	nonce := sample.Scalar(rand, ek.Curve())
	c, err := Encrypt(ek, amount, nonce)
	if err != nil {
		return nil, nil, err
	}
	return c, nonce, nil
}

// EncryptScalar encrypts an arbitrary scalar multiple of G_enc. The
// anonymous transfer path uses it to encrypt negated amounts; such
// ciphertexts only decode after homomorphic cancellation.
func EncryptScalar(ek keys.EncryptionKey, m curve.Scalar, nonce curve.Scalar) *Ciphertext {
	return &Ciphertext{
		Left:  m.ActOn(curve.GenEnc).Add(nonce.Act(ek)),
		Right: nonce.ActOn(curve.GenEnc),
	}
}

// Add returns the pointwise sum, leaving both inputs untouched.
func (c *Ciphertext) Add(other *Ciphertext) *Ciphertext {
	return &Ciphertext{
		Left:  c.Left.Add(other.Left),
		Right: c.Right.Add(other.Right),
	}
}

// Sub returns the pointwise difference, leaving both inputs untouched.
func (c *Ciphertext) Sub(other *Ciphertext) *Ciphertext {
	return &Ciphertext{
		Left:  c.Left.Sub(other.Left),
		Right: c.Right.Sub(other.Right),
	}
}

// AddAmount credits amount in plaintext, adding amount·G_enc to the
// left component. The randomness leg is unchanged, so any party can
// apply a public credit without knowing the key.
func (c *Ciphertext) AddAmount(amount uint64) (*Ciphertext, error) {
	if amount > params.MaxAmount {
		return nil, ErrAmountRange
	}
	group := c.Left.Curve()
	lift := group.NewScalar().SetUint64(amount).ActOn(curve.GenEnc)
	return &Ciphertext{
		Left:  c.Left.Add(lift),
		Right: group.NewPoint().Set(c.Right),
	}, nil
}

// Clone returns a deep copy.
func (c *Ciphertext) Clone() *Ciphertext {
	group := c.Left.Curve()
	return &Ciphertext{
		Left:  group.NewPoint().Set(c.Left),
		Right: group.NewPoint().Set(c.Right),
	}
}

// Equal returns true if both components match.
func (c *Ciphertext) Equal(other *Ciphertext) bool {
	return c.Left.Equal(other.Left) && c.Right.Equal(other.Right)
}

// Valid returns false if any component is missing.
func (c *Ciphertext) Valid() bool {
	return c != nil && c.Left != nil && c.Right != nil
}

// Decrypt recovers amount·G_enc as Left − dk·Right. Decoding the amount
// itself is the Decoder's job.
func (c *Ciphertext) Decrypt(dk keys.DecryptionKey) curve.Point {
	return c.Left.Sub(dk.Act(c.Right))
}

// MarshalBinary encodes the ciphertext as Left ‖ Right.
func (c *Ciphertext) MarshalBinary() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrMalformedCiphertext
	}
	left, err := c.Left.MarshalBinary()
	if err != nil {
		return nil, err
	}
	right, err := c.Right.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

// UnmarshalBinary decodes Left ‖ Right. The receiver's components must
// be allocated, as by Empty.
func (c *Ciphertext) UnmarshalBinary(data []byte) error {
	if !c.Valid() {
		return ErrMalformedCiphertext
	}
	pointBytes := c.Left.Curve().PointBytes()
	if len(data) != 2*pointBytes {
		return fmt.Errorf("elgamal: invalid ciphertext length %d", len(data))
	}
	if err := c.Left.UnmarshalBinary(data[:pointBytes]); err != nil {
		return fmt.Errorf("elgamal: left component: %w", err)
	}
	if err := c.Right.UnmarshalBinary(data[pointBytes:]); err != nil {
		return fmt.Errorf("elgamal: right component: %w", err)
	}
	return nil
}

// WriteTo implements io.WriterTo.
func (c *Ciphertext) WriteTo(w io.Writer) (int64, error) {
	data, err := c.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Ciphertext) Domain() string {
	return "ElGamal Ciphertext"
}
