package cosign

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeroledger/zeroledger/internal/round"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
	"github.com/zeroledger/zeroledger/pkg/math/sample"
	"github.com/zeroledger/zeroledger/pkg/party"
	"github.com/zeroledger/zeroledger/pkg/reddsa"
)

type fixture struct {
	group      curve.Curve
	ids        party.IDSlice
	randomizer party.ID
	secrets    map[party.ID]curve.Scalar
	signers    map[party.ID]curve.Point
	alpha      curve.Scalar
	alphaG     curve.Point
	groupKey   curve.Point
	message    []byte
	rounds     map[party.ID]round.Session
}

func newFixture(t *testing.T, group curve.Curve, n int) *fixture {
	t.Helper()

	f := &fixture{
		group:   group,
		ids:     party.RandomIDs(n),
		secrets: map[party.ID]curve.Scalar{},
		signers: map[party.ID]curve.Point{},
		message: []byte("transfer record under test"),
		rounds:  map[party.ID]round.Session{},
	}
	f.randomizer = f.ids[0]
	for _, id := range f.ids {
		sk := sample.Scalar(rand.Reader, group)
		f.secrets[id] = sk
		f.signers[id] = sk.ActOn(curve.GenSpend)
	}
	f.alpha = sample.Scalar(rand.Reader, group)
	f.alphaG = f.alpha.ActOn(curve.GenSpend)

	var err error
	f.groupKey, err = AggregateKey(group, f.ids, f.signers)
	require.NoError(t, err)

	sessionID := []byte("cosign-test-session")
	for _, id := range f.ids {
		config := &Config{
			SelfID:     id,
			Secret:     f.secrets[id],
			Signers:    f.signers,
			Randomizer: f.randomizer,
			AlphaG:     f.alphaG,
			Message:    f.message,
		}
		if id == f.randomizer {
			config.Alpha = f.alpha
		}
		f.rounds[id], err = StartCosign(config, sessionID)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) step(t *testing.T) {
	t.Helper()
	require.NoError(t, round.ProcessRounds(f.group, f.rounds))
}

func TestCosign(t *testing.T) {
	for _, group := range []curve.Curve{curve.Jubjub{}, curve.Secp256k1{}} {
		t.Run(group.Name(), func(t *testing.T) {
			f := newFixture(t, group, 4)
			for i := 0; i < int(protocolFinalRound); i++ {
				f.step(t)
			}

			var sig *reddsa.Signature
			for _, id := range f.ids {
				output, ok := f.rounds[id].(*round.Output)
				require.True(t, ok, "party %s did not reach the output round", id)
				result, ok := output.Result.(*Result)
				require.True(t, ok)

				expectedRvk := f.groupKey.Add(f.alphaG)
				assert.True(t, result.GroupKey.Equal(f.groupKey))
				assert.True(t, result.Rvk.Equal(expectedRvk))
				assert.True(t, Verify(result.Rvk, result.Signature, f.message))

				if sig == nil {
					sig = result.Signature
				} else {
					assert.Equal(t, sig.RBar, result.Signature.RBar)
					assert.Equal(t, sig.SBar, result.Signature.SBar)
				}
			}

			// The randomized verification key is the same point a
			// single signer would have produced from X and α.
			rpk := reddsa.NewPublicKey(f.groupKey).Randomize(f.alpha)
			assert.True(t, rpk.Point().Equal(f.groupKey.Add(f.alphaG)))
			assert.False(t, Verify(f.groupKey, sig, f.message), "aggregate key alone must not verify")
		})
	}
}

func TestCosignWrongMessageRejected(t *testing.T) {
	group := curve.Jubjub{}
	f := newFixture(t, group, 3)
	for i := 0; i < int(protocolFinalRound); i++ {
		f.step(t)
	}
	result := f.rounds[f.ids[0]].(*round.Output).Result.(*Result)
	assert.False(t, Verify(result.Rvk, result.Signature, []byte("a different record")))
}

func TestCosignCommitmentMismatchAborts(t *testing.T) {
	group := curve.Jubjub{}
	f := newFixture(t, group, 3)
	cheater := f.ids[1]

	// Commitments are exchanged, then the cheater swaps its nonce
	// point before revealing, so the opening no longer matches.
	f.step(t)
	r2 := f.rounds[cheater].(*round2)
	r2.noncePoint = sample.Scalar(rand.Reader, group).ActOn(curve.GenSpend)

	f.step(t)
	f.step(t)

	for _, id := range f.ids {
		if id == cheater {
			continue
		}
		abort, ok := f.rounds[id].(*round.Abort)
		require.True(t, ok, "party %s did not abort", id)
		assert.ErrorIs(t, abort.Err, ErrCommitmentMismatch)
		assert.Equal(t, []party.ID{cheater}, abort.Culprits)
	}
}

func TestCosignBadShareAborts(t *testing.T) {
	group := curve.Jubjub{}
	f := newFixture(t, group, 3)
	cheater := f.ids[2]

	f.step(t)
	f.step(t)

	// The cheater signs with a key other than the one it registered,
	// so its share fails the per-party check.
	r3 := f.rounds[cheater].(*round3)
	r3.config.Secret = sample.Scalar(rand.Reader, group)

	f.step(t)
	f.step(t)

	for _, id := range f.ids {
		if id == cheater {
			continue
		}
		abort, ok := f.rounds[id].(*round.Abort)
		require.True(t, ok, "party %s did not abort", id)
		assert.ErrorIs(t, abort.Err, ErrInvalidShare)
		assert.Equal(t, []party.ID{cheater}, abort.Culprits)
	}
}

func TestStartCosignRejectsBadConfig(t *testing.T) {
	group := curve.Jubjub{}
	f := newFixture(t, group, 3)
	id := f.ids[0]

	base := func() *Config {
		return &Config{
			SelfID:     id,
			Secret:     f.secrets[id],
			Signers:    f.signers,
			Randomizer: f.randomizer,
			Alpha:      f.alpha,
			AlphaG:     f.alphaG,
			Message:    f.message,
		}
	}

	cfg := base()
	cfg.Secret = sample.Scalar(rand.Reader, group)
	_, err := StartCosign(cfg, []byte("sid"))
	assert.Error(t, err, "secret not matching the registered key")

	cfg = base()
	cfg.Randomizer = "nobody"
	_, err = StartCosign(cfg, []byte("sid"))
	assert.Error(t, err, "randomizer outside the signer set")

	cfg = base()
	cfg.Alpha = sample.Scalar(rand.Reader, group)
	_, err = StartCosign(cfg, []byte("sid"))
	assert.Error(t, err, "alpha not opening the published point")
}
