package round

import "errors"

var (
	// ErrOutChanFull is returned when the out channel of Finalize has no capacity left.
	ErrOutChanFull = errors.New("round: out channel is full")
	// ErrInvalidContent is returned when a message's content is not the right type for the round.
	ErrInvalidContent = errors.New("round: invalid content")
	// ErrNilFields is returned when a message's content contains unset fields.
	ErrNilFields = errors.New("round: message contains nil fields")
	// ErrDuplicate is returned when a party sends a second message for the same round.
	ErrDuplicate = errors.New("round: duplicate message")
)

type Round interface {
	// VerifyMessage handles an incoming Message from j and validates its content with regard to the protocol specification.
	// The content argument can be cast to the appropriate type for this round without error check.
	// In the first round, this function returns nil.
	// This function should not modify any saved state as it may be running concurrently.
	VerifyMessage(msg Message) error

	// StoreMessage should be called after VerifyMessage and should only store the appropriate fields from the
	// content.
	StoreMessage(msg Message) error

	// Finalize is called after all messages from the parties have been processed in the current round.
	// Messages for the next round are sent out through the out channel.
	// If a non-critical error occurs (like a failure to sample, hash, or send a message), the current round can be
	// returned so that the caller may try to finalize again.
	//
	// In the last round, Finalize should return
	//   r.ResultRound(result), nil
	// where result is the output of the protocol.
	Finalize(out chan<- *Message) (Session, error)

	// MessageContent returns an uninitialized Content for this round.
	//
	// The first round of a protocol should return nil.
	MessageContent() Content

	// Number returns the current round number.
	Number() Number
}
