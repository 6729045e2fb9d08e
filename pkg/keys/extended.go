package keys

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeroledger/zeroledger/internal/params"
	"github.com/zeroledger/zeroledger/pkg/math/curve"
)

// HardenedIndexStart is the first hardened child index.
const HardenedIndexStart uint32 = 1 << 31

const masterHMACKey = "zeroledger seed"

// ExtendedKeyBytes is the length of a serialized ExtendedSpendingKey.
const ExtendedKeyBytes = 1 + 4 + 4 + params.SecBytes + params.SecBytes

// ExtendedSpendingKey is a node of the hierarchical derivation tree.
// Hardened children consume the parent's spending key, non-hardened
// children only its encryption key.
type ExtendedSpendingKey struct {
	Depth      uint8
	ParentTag  [4]byte
	ChildIndex uint32
	ChainCode  [params.SecBytes]byte
	Key        SpendingKey
}

// NewMaster derives the root of a derivation tree from a seed.
func NewMaster(seed []byte) *ExtendedSpendingKey {
	mac := hmac.New(sha512.New, []byte(masterHMACKey))
	_, _ = mac.Write(seed)
	i := mac.Sum(nil)

	out := &ExtendedSpendingKey{}
	copy(out.Key[:], i[:params.SecBytes])
	copy(out.ChainCode[:], i[params.SecBytes:])
	return out
}

// IsMaster reports whether this key is the root of its tree.
func (esk *ExtendedSpendingKey) IsMaster() bool {
	return esk.Depth == 0 && esk.ParentTag == [4]byte{} && esk.ChildIndex == 0
}

// SpendingKey returns a copy of the node's spending key seed.
func (esk *ExtendedSpendingKey) SpendingKey() *SpendingKey {
	sk := esk.Key
	return &sk
}

// Derive returns the child at index. Hardened indices are those at or
// above HardenedIndexStart. If an index yields an unusable child key,
// the index is bumped and the actual index used is recorded in the
// child's ChildIndex.
func (esk *ExtendedSpendingKey) Derive(group curve.Curve, index uint32) (*ExtendedSpendingKey, error) {
	pgk := esk.Key.ProofGenerationKey(group)
	defer pgk.Wipe()

	tag, err := pgk.Tag()
	if err != nil {
		return nil, fmt.Errorf("keys: derive child %d: %w", index, err)
	}

	hardened := index >= HardenedIndexStart
	var ekBytes []byte
	if !hardened {
		if ekBytes, err = pgk.EncryptionKey().MarshalBinary(); err != nil {
			return nil, fmt.Errorf("keys: derive child %d: %w", index, err)
		}
	}

	for i := index; ; i++ {
		// Bumping must not cross the hardened boundary.
		if hardened != (i >= HardenedIndexStart) {
			return nil, fmt.Errorf("keys: no usable child at or above index %d", index)
		}

		mac := hmac.New(sha512.New, esk.ChainCode[:])
		if hardened {
			_, _ = mac.Write(esk.Key[:])
		} else {
			_, _ = mac.Write(ekBytes)
		}
		var iBytes [4]byte
		binary.BigEndian.PutUint32(iBytes[:], i)
		_, _ = mac.Write(iBytes[:])
		sum := mac.Sum(nil)

		child := &ExtendedSpendingKey{
			Depth:      esk.Depth + 1,
			ParentTag:  tag,
			ChildIndex: i,
		}
		copy(child.Key[:], sum[:params.SecBytes])
		copy(child.ChainCode[:], sum[params.SecBytes:])

		if !childUsable(group, &child.Key) {
			continue
		}
		return child, nil
	}
}

// childUsable rejects child seeds whose derived scalars vanish.
func childUsable(group curve.Curve, sk *SpendingKey) bool {
	pgk := sk.ProofGenerationKey(group)
	defer pgk.Wipe()
	return !pgk.Ask.IsZero() && !pgk.Nsk.IsZero()
}

// Wipe overwrites the node's secret material.
func (esk *ExtendedSpendingKey) Wipe() {
	esk.Key.Wipe()
	for i := range esk.ChainCode {
		esk.ChainCode[i] = 0
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (esk *ExtendedSpendingKey) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, ExtendedKeyBytes)
	out = append(out, esk.Depth)
	out = append(out, esk.ParentTag[:]...)
	out = binary.BigEndian.AppendUint32(out, esk.ChildIndex)
	out = append(out, esk.ChainCode[:]...)
	out = append(out, esk.Key[:]...)
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (esk *ExtendedSpendingKey) UnmarshalBinary(data []byte) error {
	if len(data) != ExtendedKeyBytes {
		return fmt.Errorf("keys: invalid extended key length %d", len(data))
	}
	out := ExtendedSpendingKey{Depth: data[0]}
	copy(out.ParentTag[:], data[1:5])
	out.ChildIndex = binary.BigEndian.Uint32(data[5:9])
	copy(out.ChainCode[:], data[9:9+params.SecBytes])
	copy(out.Key[:], data[9+params.SecBytes:])

	if out.Depth == 0 && !out.IsMaster() {
		return errors.New("keys: depth zero key with nonzero parent fields")
	}
	*esk = out
	return nil
}
