package transfer

import "errors"

// Verification failures are distinct so callers can tell an attack from
// an operational problem. None of them carry secret material.
var (
	// ErrMalformedProof indicates the proof bytes failed to deserialize.
	ErrMalformedProof = errors.New("transfer: malformed proof")
	// ErrMalformedInputs indicates a non-canonical point or truncated record.
	ErrMalformedInputs = errors.New("transfer: malformed public inputs")
	// ErrSnarkRejected indicates the proof deserialized but the pairing check failed.
	ErrSnarkRejected = errors.New("transfer: snark rejected")
	// ErrSignatureInvalid indicates the randomized signature did not verify.
	ErrSignatureInvalid = errors.New("transfer: invalid signature")
	// ErrNonceReplay indicates the nonce was already seen this epoch.
	ErrNonceReplay = errors.New("transfer: nonce replay")
	// ErrUnknownAccount indicates the sender is not registered.
	ErrUnknownAccount = errors.New("transfer: unknown account")
	// ErrStaleSnapshot indicates the balance snapshot in the record does
	// not match the ledger's current balance for the sender.
	ErrStaleSnapshot = errors.New("transfer: stale balance snapshot")
)
