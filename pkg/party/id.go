package party

import (
	"io"
	"math/rand"
)

// ID represents the identifier of a participant in a cosigning session.
type ID string

// WriteTo implements io.WriterTo interface.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	if id == "" {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write([]byte(id))
	return int64(n), err
}

// Domain implements WriterToWithDomain, and separates this type within hash.Hash.
func (ID) Domain() string {
	return "ID"
}

// RandomIDs returns a slice of random IDs with 20 alphanumeric characters.
func RandomIDs(n int) IDSlice {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	partyIDs := make([]ID, n)
	for i := range partyIDs {
		b := make([]byte, 20)
		for j := range b {
			b[j] = letters[rand.Intn(len(letters))]
		}
		partyIDs[i] = ID(b)
	}
	return NewIDSlice(partyIDs)
}
