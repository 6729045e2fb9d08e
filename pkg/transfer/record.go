package transfer

import (
	"fmt"

	"github.com/zeroledger/zeroledger/internal/params"
	"github.com/zeroledger/zeroledger/pkg/elgamal"
	"github.com/zeroledger/zeroledger/pkg/keys"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/reddsa"
)

// RecordBytes is the length of a serialized confidential Record.
const RecordBytes = params.ProofBytes + // proof
	2*params.PointBytes + // ek_sender, ek_recipient
	3*params.CiphertextBytes + // c_recipient, c_sender, c_fee
	params.PointBytes + // rvk
	params.SignatureBytes + // signature
	params.CiphertextBytes + // c_balance
	params.PointBytes // nonce

// MaxRingSize bounds the anonymity set, so a ring record's length field
// fits one byte with room to spare.
const MaxRingSize = 16

// Record is a confidential transfer as broadcast on the wire. Fixed
// field order, little-endian group encodings throughout.
type Record struct {
	Proof       []byte
	EkSender    keys.EncryptionKey
	EkRecipient keys.EncryptionKey
	CRecipient  *elgamal.Ciphertext
	CSender     *elgamal.Ciphertext
	CFee        *elgamal.Ciphertext
	Rvk         curve.Point
	Signature   *reddsa.Signature
	CBalance    *elgamal.Ciphertext
	Nonce       curve.Point
}

// Statement returns the public statement the record claims, against the
// given epoch generator.
func (r *Record) Statement(gEpoch curve.Point) *Statement {
	return &Statement{
		EkSender:    r.EkSender,
		EkRecipient: r.EkRecipient,
		CSender:     r.CSender,
		CRecipient:  r.CRecipient,
		CFee:        r.CFee,
		CBalance:    r.CBalance,
		Rvk:         r.Rvk,
		Nonce:       r.Nonce,
		GEpoch:      gEpoch,
	}
}

// SigningMessage is the byte string the randomized signature covers:
// every wire field except rvk and the signature itself.
func (r *Record) SigningMessage() ([]byte, error) {
	out := make([]byte, 0, RecordBytes-params.PointBytes-params.SignatureBytes)
	out = append(out, r.Proof...)
	for _, enc := range []interface{ MarshalBinary() ([]byte, error) }{
		r.EkSender, r.EkRecipient, r.CRecipient, r.CSender, r.CFee, r.CBalance, r.Nonce,
	} {
		data, err := enc.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("transfer: signing message: %w", err)
		}
		out = append(out, data...)
	}
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *Record) MarshalBinary() ([]byte, error) {
	if len(r.Proof) != params.ProofBytes {
		return nil, fmt.Errorf("%w: proof length %d", ErrMalformedProof, len(r.Proof))
	}
	sig, err := r.Signature.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, RecordBytes)
	out = append(out, r.Proof...)
	for _, enc := range []interface{ MarshalBinary() ([]byte, error) }{
		r.EkSender, r.EkRecipient, r.CRecipient, r.CSender, r.CFee, r.Rvk,
	} {
		data, err := enc.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	out = append(out, sig...)
	for _, enc := range []interface{ MarshalBinary() ([]byte, error) }{
		r.CBalance, r.Nonce,
	} {
		data, err := enc.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

// ParseRecord deserializes a confidential Record, rejecting any
// non-canonical point.
func ParseRecord(group curve.Curve, data []byte) (*Record, error) {
	if len(data) != RecordBytes {
		return nil, fmt.Errorf("%w: record length %d", ErrMalformedInputs, len(data))
	}

	r := &Record{
		Proof:       append([]byte{}, data[:params.ProofBytes]...),
		EkSender:    group.NewPoint(),
		EkRecipient: group.NewPoint(),
		CRecipient:  elgamal.Empty(group),
		CSender:     elgamal.Empty(group),
		CFee:        elgamal.Empty(group),
		Rvk:         group.NewPoint(),
		Signature:   &reddsa.Signature{},
		CBalance:    elgamal.Empty(group),
		Nonce:       group.NewPoint(),
	}
	rest := data[params.ProofBytes:]

	read := func(dec interface{ UnmarshalBinary([]byte) error }, n int) error {
		if err := dec.UnmarshalBinary(rest[:n]); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInputs, err)
		}
		rest = rest[n:]
		return nil
	}

	for _, f := range []struct {
		dec interface{ UnmarshalBinary([]byte) error }
		n   int
	}{
		{r.EkSender, params.PointBytes},
		{r.EkRecipient, params.PointBytes},
		{r.CRecipient, params.CiphertextBytes},
		{r.CSender, params.CiphertextBytes},
		{r.CFee, params.CiphertextBytes},
		{r.Rvk, params.PointBytes},
		{r.Signature, params.SignatureBytes},
		{r.CBalance, params.CiphertextBytes},
		{r.Nonce, params.PointBytes},
	} {
		if err := read(f.dec, f.n); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RingRecord is the anonymous variant: the single sender, recipient and
// fee fields are replaced by a ring of keys and ciphertexts, one of
// which debits the hidden sender by amount plus fee.
type RingRecord struct {
	Proof     []byte
	EkRing    []keys.EncryptionKey
	CRing     []*elgamal.Ciphertext
	Rvk       curve.Point
	Signature *reddsa.Signature
	CBalance  *elgamal.Ciphertext
	Nonce     curve.Point
}

// RingRecordBytes returns the serialized length for a ring of size n.
func RingRecordBytes(n int) int {
	return 1 + params.ProofBytes +
		n*(params.PointBytes+params.CiphertextBytes) +
		params.PointBytes + params.SignatureBytes +
		params.CiphertextBytes + params.PointBytes
}

// Statement returns the public statement for the epoch generator.
func (r *RingRecord) Statement(gEpoch curve.Point) *Statement {
	return &Statement{
		Ring:     r.EkRing,
		CRing:    r.CRing,
		CBalance: r.CBalance,
		Rvk:      r.Rvk,
		Nonce:    r.Nonce,
		GEpoch:   gEpoch,
	}
}

// SigningMessage covers every wire field except rvk and the signature.
func (r *RingRecord) SigningMessage() ([]byte, error) {
	out := []byte{byte(len(r.EkRing))}
	out = append(out, r.Proof...)
	encs := make([]interface{ MarshalBinary() ([]byte, error) }, 0, 2*len(r.EkRing)+2)
	for _, ek := range r.EkRing {
		encs = append(encs, ek)
	}
	for _, c := range r.CRing {
		encs = append(encs, c)
	}
	encs = append(encs, r.CBalance, r.Nonce)
	for _, enc := range encs {
		data, err := enc.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("transfer: signing message: %w", err)
		}
		out = append(out, data...)
	}
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *RingRecord) MarshalBinary() ([]byte, error) {
	n := len(r.EkRing)
	if n < 2 || n > MaxRingSize || len(r.CRing) != n {
		return nil, fmt.Errorf("%w: ring size %d", ErrMalformedInputs, n)
	}
	if len(r.Proof) != params.ProofBytes {
		return nil, fmt.Errorf("%w: proof length %d", ErrMalformedProof, len(r.Proof))
	}
	sig, err := r.Signature.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, RingRecordBytes(n))
	out = append(out, byte(n))
	out = append(out, r.Proof...)
	for _, ek := range r.EkRing {
		data, err := ek.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	for _, c := range r.CRing {
		data, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	rvk, err := r.Rvk.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out = append(out, rvk...)
	out = append(out, sig...)
	cb, err := r.CBalance.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out = append(out, cb...)
	nonce, err := r.Nonce.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out = append(out, nonce...)
	return out, nil
}

// ParseRingRecord deserializes an anonymous RingRecord.
func ParseRingRecord(group curve.Curve, data []byte) (*RingRecord, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty record", ErrMalformedInputs)
	}
	n := int(data[0])
	if n < 2 || n > MaxRingSize {
		return nil, fmt.Errorf("%w: ring size %d", ErrMalformedInputs, n)
	}
	if len(data) != RingRecordBytes(n) {
		return nil, fmt.Errorf("%w: record length %d", ErrMalformedInputs, len(data))
	}
	rest := data[1:]

	r := &RingRecord{
		Proof:     append([]byte{}, rest[:params.ProofBytes]...),
		EkRing:    make([]keys.EncryptionKey, n),
		CRing:     make([]*elgamal.Ciphertext, n),
		Rvk:       group.NewPoint(),
		Signature: &reddsa.Signature{},
		CBalance:  elgamal.Empty(group),
		Nonce:     group.NewPoint(),
	}
	rest = rest[params.ProofBytes:]

	read := func(dec interface{ UnmarshalBinary([]byte) error }, n int) error {
		if err := dec.UnmarshalBinary(rest[:n]); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInputs, err)
		}
		rest = rest[n:]
		return nil
	}

	for i := 0; i < n; i++ {
		r.EkRing[i] = group.NewPoint()
		if err := read(r.EkRing[i], params.PointBytes); err != nil {
			return nil, err
		}
	}
	for i := 0; i < n; i++ {
		r.CRing[i] = elgamal.Empty(group)
		if err := read(r.CRing[i], params.CiphertextBytes); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		dec interface{ UnmarshalBinary([]byte) error }
		n   int
	}{
		{r.Rvk, params.PointBytes},
		{r.Signature, params.SignatureBytes},
		{r.CBalance, params.CiphertextBytes},
		{r.Nonce, params.PointBytes},
	} {
		if err := read(f.dec, f.n); err != nil {
			return nil, err
		}
	}
	return r, nil
}
