package elgamal

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeroledger/zeroledger/pkg/keys"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/math/sample"
)

var (
	decoderOnce sync.Once
	decoder     *Decoder
)

func testDecoder(t *testing.T) *Decoder {
	t.Helper()
	decoderOnce.Do(func() {
		var err error
		decoder, err = NewDecoder(curve.Jubjub{})
		if err != nil {
			t.Fatal(err)
		}
	})
	return decoder
}

func testKeyPair(t *testing.T, seed string) (keys.DecryptionKey, keys.EncryptionKey) {
	t.Helper()
	pgk := keys.NewSpendingKey([]byte(seed)).ProofGenerationKey(curve.Jubjub{})
	return pgk.DecryptionKey(), pgk.EncryptionKey()
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	d := testDecoder(t)
	dk, ek := testKeyPair(t, "Alice")

	for _, amount := range []uint64{0, 1, 100, 65535, 65536, 1 << 20} {
		c, _, err := EncryptNew(rand.Reader, ek, amount)
		require.NoError(t, err)
		got, err := d.Decrypt(dk, c)
		require.NoError(t, err)
		assert.Equal(t, amount, got)
	}
}

func TestHomomorphicAddSub(t *testing.T) {
	d := testDecoder(t)
	dk, ek := testKeyPair(t, "Alice")

	c1, _, err := EncryptNew(rand.Reader, ek, 100)
	require.NoError(t, err)
	c2, _, err := EncryptNew(rand.Reader, ek, 42)
	require.NoError(t, err)

	sum, err := d.Decrypt(dk, c1.Add(c2))
	require.NoError(t, err)
	assert.EqualValues(t, 142, sum)

	diff, err := d.Decrypt(dk, c1.Sub(c2))
	require.NoError(t, err)
	assert.EqualValues(t, 58, diff)
}

func TestZeroBalance(t *testing.T) {
	d := testDecoder(t)
	dk, ek := testKeyPair(t, "Alice")

	zero := Zero(curve.Jubjub{})
	got, err := d.Decrypt(dk, zero)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got)

	// crediting a zero balance works like a fresh encryption
	c, _, err := EncryptNew(rand.Reader, ek, 10)
	require.NoError(t, err)
	got, err = d.Decrypt(dk, zero.Add(c))
	require.NoError(t, err)
	assert.EqualValues(t, 10, got)
}

func TestDecryptWrongKeyOutOfRange(t *testing.T) {
	d := testDecoder(t)
	_, ek := testKeyPair(t, "Alice")
	dkBob, _ := testKeyPair(t, "Bob")

	c, _, err := EncryptNew(rand.Reader, ek, 1234)
	require.NoError(t, err)
	_, err = d.Decrypt(dkBob, c)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBoundaryAmounts(t *testing.T) {
	d := testDecoder(t)
	group := curve.Jubjub{}
	dk, ek := testKeyPair(t, "Alice")

	for _, amount := range []uint64{0, 1, 1<<32 - 1} {
		c, _, err := EncryptNew(rand.Reader, ek, amount)
		require.NoError(t, err)
		got, err := d.Decrypt(dk, c)
		require.NoError(t, err)
		assert.Equal(t, amount, got)
	}

	// 2³² does not fit the plaintext domain
	_, _, err := EncryptNew(rand.Reader, ek, 1<<32)
	assert.ErrorIs(t, err, ErrAmountRange)

	// and a ciphertext lifting 2³² anyway fails to decode
	m := group.NewScalar().SetUint64(1 << 32)
	c := EncryptScalar(ek, m, sample.Scalar(rand.Reader, group))
	_, err = d.Decrypt(dk, c)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNegatedAmountCancels(t *testing.T) {
	d := testDecoder(t)
	group := curve.Jubjub{}
	dk, ek := testKeyPair(t, "Alice")

	nonce := sample.Scalar(rand.Reader, group)
	neg := EncryptScalar(ek, group.NewScalar().SetUint64(30).Negate(), nonce)

	balance, _, err := EncryptNew(rand.Reader, ek, 100)
	require.NoError(t, err)
	got, err := d.Decrypt(dk, balance.Add(neg))
	require.NoError(t, err)
	assert.EqualValues(t, 70, got)
}

func TestAddAmount(t *testing.T) {
	d := testDecoder(t)
	dk, ek := testKeyPair(t, "Alice")

	c, _, err := EncryptNew(rand.Reader, ek, 40)
	require.NoError(t, err)
	credited, err := c.AddAmount(2)
	require.NoError(t, err)

	got, err := d.Decrypt(dk, credited)
	require.NoError(t, err)
	assert.EqualValues(t, 42, got)

	// the original ciphertext is untouched
	got, err = d.Decrypt(dk, c)
	require.NoError(t, err)
	assert.EqualValues(t, 40, got)

	_, err = c.AddAmount(1 << 32)
	assert.ErrorIs(t, err, ErrAmountRange)
}

func TestDecryptWithin(t *testing.T) {
	d := testDecoder(t)
	dk, ek := testKeyPair(t, "Alice")

	c, _, err := EncryptNew(rand.Reader, ek, 70_000)
	require.NoError(t, err)

	got, err := d.DecryptWithin(dk, c, 100_000)
	require.NoError(t, err)
	assert.EqualValues(t, 70_000, got)

	_, err = d.DecryptWithin(dk, c, 50_000)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCiphertextRoundTrip(t *testing.T) {
	group := curve.Jubjub{}
	_, ek := testKeyPair(t, "Alice")

	c, _, err := EncryptNew(rand.Reader, ek, 55)
	require.NoError(t, err)

	data, err := c.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 2*group.PointBytes())

	decoded := Empty(group)
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.True(t, c.Equal(decoded))

	assert.Error(t, decoded.UnmarshalBinary(data[:17]))
}
