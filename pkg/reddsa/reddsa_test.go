package reddsa

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/math/sample"
)

func TestSignVerify(t *testing.T) {
	for _, group := range []curve.Curve{curve.Jubjub{}, curve.Secp256k1{}} {
		t.Run(group.Name(), func(t *testing.T) {
			priv := GenerateKey(rand.Reader, group)
			pub := priv.Public()
			message := []byte("transfer body")

			sig, err := priv.Sign(rand.Reader, message)
			require.NoError(t, err)
			assert.True(t, pub.Verify(sig, message))
			assert.False(t, pub.Verify(sig, []byte("other body")))
		})
	}
}

func TestRandomization(t *testing.T) {
	group := curve.Jubjub{}
	priv := GenerateKey(rand.Reader, group)
	pub := priv.Public()
	alpha := sample.Scalar(rand.Reader, group)
	message := []byte("transfer body")

	rsk := priv.Randomize(alpha)
	rvk := pub.Randomize(alpha)

	sig, err := rsk.Sign(rand.Reader, message)
	require.NoError(t, err)

	assert.True(t, rvk.Verify(sig, message))
	// the unrandomized key must not accept it
	assert.False(t, pub.Verify(sig, message))
}

func TestSignatureRoundTrip(t *testing.T) {
	group := curve.Jubjub{}
	priv := GenerateKey(rand.Reader, group)

	sig, err := priv.Sign(rand.Reader, []byte("m"))
	require.NoError(t, err)

	data, err := sig.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 64)

	var decoded Signature
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.True(t, priv.Public().Verify(&decoded, []byte("m")))

	assert.Error(t, decoded.UnmarshalBinary(data[:63]))
}

func TestVerifyBatch(t *testing.T) {
	group := curve.Jubjub{}
	entries := make([]BatchEntry, 0, 4)
	for i := 0; i < 4; i++ {
		priv := GenerateKey(rand.Reader, group)
		message := []byte{byte(i)}
		sig, err := priv.Sign(rand.Reader, message)
		require.NoError(t, err)
		entries = append(entries, BatchEntry{
			PublicKey: priv.Public(),
			Signature: sig,
			Message:   message,
		})
	}
	assert.True(t, VerifyBatch(rand.Reader, entries))

	// swapping one message must sink the whole batch
	entries[2].Message = []byte("swapped")
	assert.False(t, VerifyBatch(rand.Reader, entries))
	entries[2].Message = []byte{2}
	assert.True(t, VerifyBatch(rand.Reader, entries))

	// a signature from another key cannot hide behind the others
	entries[1].Signature = entries[3].Signature
	assert.False(t, VerifyBatch(rand.Reader, entries))

	assert.True(t, VerifyBatch(rand.Reader, nil))
	assert.False(t, VerifyBatch(rand.Reader, []BatchEntry{{}}))
}

func TestTamperedSignatureRejected(t *testing.T) {
	group := curve.Jubjub{}
	priv := GenerateKey(rand.Reader, group)
	pub := priv.Public()
	message := []byte("m")

	sig, err := priv.Sign(rand.Reader, message)
	require.NoError(t, err)

	bad := &Signature{
		RBar: append([]byte{}, sig.RBar...),
		SBar: append([]byte{}, sig.SBar...),
	}
	bad.SBar[0] ^= 1
	assert.False(t, pub.Verify(bad, message))

	wrongKey := GenerateKey(rand.Reader, group).Public()
	assert.False(t, wrongKey.Verify(sig, message))
}
