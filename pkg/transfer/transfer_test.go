package transfer_test

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeroledger/zeroledger/internal/zktest"
	"github.com/zeroledger/zeroledger/pkg/elgamal"
	"github.com/zeroledger/zeroledger/pkg/keys"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/transfer"
)

var (
	decoderOnce sync.Once
	decoder     *elgamal.Decoder
)

func testDecoder(t *testing.T) *elgamal.Decoder {
	t.Helper()
	decoderOnce.Do(func() {
		var err error
		decoder, err = elgamal.NewDecoder(curve.Jubjub{})
		if err != nil {
			t.Fatal(err)
		}
	})
	return decoder
}

func testEpochGenerator(t *testing.T, group curve.Curve) curve.Point {
	t.Helper()
	g, err := group.GroupHash("zlgepoch", []byte{0, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	return g
}

func composeRecord(t *testing.T) (*transfer.Verifier, *transfer.Record, curve.Point) {
	t.Helper()
	group := curve.Jubjub{}
	system := zktest.NewSystem(group, "transfer-test")
	composer := transfer.NewComposer(group, system, testDecoder(t), rand.Reader)

	alice := keys.NewSpendingKey([]byte("Alice")).ProofGenerationKey(group)
	bob := keys.NewSpendingKey([]byte("Bob")).ProofGenerationKey(group)
	balance, _, err := elgamal.EncryptNew(rand.Reader, alice.EncryptionKey(), 100)
	require.NoError(t, err)

	gEpoch := testEpochGenerator(t, group)
	record, err := composer.ConfidentialTransfer(alice, bob.EncryptionKey(), 10, 1, balance, gEpoch)
	require.NoError(t, err)
	return transfer.NewVerifier(group, system), record, gEpoch
}

func TestComposeAndVerify(t *testing.T) {
	verifier, record, gEpoch := composeRecord(t)
	assert.NoError(t, verifier.VerifyRecord(record, gEpoch))
}

func TestVerifyWrongEpoch(t *testing.T) {
	verifier, record, _ := composeRecord(t)
	group := curve.Jubjub{}
	otherEpoch, err := group.GroupHash("zlgepoch", []byte{1, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.ErrorIs(t, verifier.VerifyRecord(record, otherEpoch), transfer.ErrSnarkRejected)
}

func TestRecordRoundTrip(t *testing.T) {
	verifier, record, gEpoch := composeRecord(t)
	group := curve.Jubjub{}

	data, err := record.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, transfer.RecordBytes)

	decoded, err := transfer.ParseRecord(group, data)
	require.NoError(t, err)
	assert.NoError(t, verifier.VerifyRecord(decoded, gEpoch))

	_, err = transfer.ParseRecord(group, data[:len(data)-1])
	assert.ErrorIs(t, err, transfer.ErrMalformedInputs)
}

func TestParseRejectsNonCanonicalPoint(t *testing.T) {
	_, record, _ := composeRecord(t)
	group := curve.Jubjub{}

	data, err := record.MarshalBinary()
	require.NoError(t, err)
	// corrupt the sender key encoding
	for i := 192; i < 192+32; i++ {
		data[i] = 0xff
	}
	_, err = transfer.ParseRecord(group, data)
	assert.ErrorIs(t, err, transfer.ErrMalformedInputs)
}

func TestTamperedProofRejected(t *testing.T) {
	verifier, record, gEpoch := composeRecord(t)
	record.Proof[10] ^= 1
	assert.ErrorIs(t, verifier.VerifyRecord(record, gEpoch), transfer.ErrSnarkRejected)
}

func TestTamperedCiphertextRejected(t *testing.T) {
	verifier, record, gEpoch := composeRecord(t)
	record.CRecipient, record.CSender = record.CSender, record.CRecipient
	assert.ErrorIs(t, verifier.VerifyRecord(record, gEpoch), transfer.ErrSnarkRejected)
}

func TestTamperedSignatureRejected(t *testing.T) {
	verifier, record, gEpoch := composeRecord(t)
	record.Signature.RBar, record.Signature.SBar = record.Signature.SBar, record.Signature.RBar
	assert.ErrorIs(t, verifier.VerifyRecord(record, gEpoch), transfer.ErrSignatureInvalid)
}

func TestPublicInputLayout(t *testing.T) {
	_, record, gEpoch := composeRecord(t)
	st := record.Statement(gEpoch)

	inputs := st.PublicInputs()
	// 13 points, two coordinates each
	require.Len(t, inputs, 26)
	for i, input := range inputs {
		assert.Len(t, input, 32, "input %d", i)
	}

	// the vector opens with the sender key's affine coordinates
	x, y := record.EkSender.AffineCoordinates()
	assert.Equal(t, x, inputs[0])
	assert.Equal(t, y, inputs[1])
}

func TestRingRecordRoundTrip(t *testing.T) {
	group := curve.Jubjub{}
	system := zktest.NewSystem(group, "transfer-test")
	composer := transfer.NewComposer(group, system, testDecoder(t), rand.Reader)
	verifier := transfer.NewVerifier(group, system)

	alice := keys.NewSpendingKey([]byte("Alice")).ProofGenerationKey(group)
	ring := []keys.EncryptionKey{alice.EncryptionKey()}
	for _, seed := range []string{"Bob", "Carol", "Dave"} {
		ring = append(ring, keys.NewSpendingKey([]byte(seed)).ProofGenerationKey(group).EncryptionKey())
	}
	balance, _, err := elgamal.EncryptNew(rand.Reader, alice.EncryptionKey(), 100)
	require.NoError(t, err)

	gEpoch := testEpochGenerator(t, group)
	record, err := composer.RingTransfer(alice, ring, 0, 1, 5, 1, balance, gEpoch)
	require.NoError(t, err)
	require.NoError(t, verifier.VerifyRingRecord(record, gEpoch))

	data, err := record.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, transfer.RingRecordBytes(4))

	decoded, err := transfer.ParseRingRecord(group, data)
	require.NoError(t, err)
	assert.NoError(t, verifier.VerifyRingRecord(decoded, gEpoch))

	// anonymous inputs: 4 keys + 4 ring ciphertexts + balance + 3 points
	assert.Len(t, decoded.Statement(gEpoch).PublicInputs(), 2*(4+8+2+3))
}

func TestComposerRejectsBadRing(t *testing.T) {
	group := curve.Jubjub{}
	system := zktest.NewSystem(group, "transfer-test")
	composer := transfer.NewComposer(group, system, testDecoder(t), rand.Reader)

	alice := keys.NewSpendingKey([]byte("Alice")).ProofGenerationKey(group)
	bob := keys.NewSpendingKey([]byte("Bob")).ProofGenerationKey(group)
	ring := []keys.EncryptionKey{alice.EncryptionKey(), bob.EncryptionKey()}
	balance, _, err := elgamal.EncryptNew(rand.Reader, alice.EncryptionKey(), 100)
	require.NoError(t, err)
	gEpoch := testEpochGenerator(t, group)

	// sender and recipient at the same position
	_, err = composer.RingTransfer(alice, ring, 0, 0, 5, 1, balance, gEpoch)
	assert.Error(t, err)

	// sender position does not hold alice's key
	_, err = composer.RingTransfer(alice, ring, 1, 0, 5, 1, balance, gEpoch)
	assert.Error(t, err)
}
