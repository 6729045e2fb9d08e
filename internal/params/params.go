package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// AmountBits bounds the plaintext domain of a lifted-ElGamal
	// ciphertext: amounts live in [0, 2³²).
	AmountBits = 32
	// BabyStepBits fixes the baby-step table size for discrete-log
	// recovery, AmountBits/2 so that both loops run 2¹⁶ steps.
	BabyStepBits = AmountBits / 2

	// MaxAmount is the largest encodable amount, 2³²−1.
	MaxAmount = uint64(1)<<AmountBits - 1

	// ProofBytes is the size of a compressed Groth16 proof (A ‖ B ‖ C).
	ProofBytes = 192

	// Wire sizes for the transfer record. Points use the 32-byte
	// canonical compressed encoding of the production group.
	PointBytes      = 32
	ScalarBytes     = 32
	CiphertextBytes = 2 * PointBytes
	SignatureBytes  = 2 * ScalarBytes
)
