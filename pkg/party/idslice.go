package party

import (
	"encoding/binary"
	"io"
	"sort"
)

// IDSlice is a sorted slice of unique IDs.
type IDSlice []ID

// NewIDSlice returns a sorted copy of partyIDs, with duplicates removed.
func NewIDSlice(partyIDs []ID) IDSlice {
	ids := IDSlice(partyIDs).Copy()
	sort.Sort(ids)
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (partyIDs IDSlice) Len() int           { return len(partyIDs) }
func (partyIDs IDSlice) Less(i, j int) bool { return partyIDs[i] < partyIDs[j] }
func (partyIDs IDSlice) Swap(i, j int)      { partyIDs[i], partyIDs[j] = partyIDs[j], partyIDs[i] }

// Valid returns true if the slice is sorted and contains no duplicates.
func (partyIDs IDSlice) Valid() bool {
	for i := 1; i < len(partyIDs); i++ {
		if partyIDs[i-1] >= partyIDs[i] {
			return false
		}
	}
	return true
}

// Contains returns true if partyIDs contains all the given ids.
// Assumes that the slice is valid.
func (partyIDs IDSlice) Contains(ids ...ID) bool {
	for _, id := range ids {
		if _, ok := partyIDs.search(id); !ok {
			return false
		}
	}
	return true
}

// GetIndex returns the index of id in partyIDs, or -1 if it is absent.
// Assumes that the slice is valid.
func (partyIDs IDSlice) GetIndex(id ID) int {
	if idx, ok := partyIDs.search(id); ok {
		return idx
	}
	return -1
}

func (partyIDs IDSlice) search(x ID) (int, bool) {
	index := sort.Search(len(partyIDs), func(i int) bool { return partyIDs[i] >= x })
	if index >= 0 && index < len(partyIDs) && partyIDs[index] == x {
		return index, true
	}
	return 0, false
}

// Remove returns a copy of the slice with id removed, if present.
func (partyIDs IDSlice) Remove(id ID) IDSlice {
	out := make(IDSlice, 0, len(partyIDs))
	for _, other := range partyIDs {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}

func (partyIDs IDSlice) Copy() IDSlice {
	a := make(IDSlice, len(partyIDs))
	copy(a, partyIDs)
	return a
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (partyIDs IDSlice) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.BigEndian, uint64(len(partyIDs))); err != nil {
		return 0, err
	}
	nAll := int64(8)
	for _, id := range partyIDs {
		n, err := id.WriteTo(w)
		nAll += n
		if err != nil {
			return nAll, err
		}
	}
	return nAll, nil
}

// Domain implements WriterToWithDomain, and separates this type within hash.Hash.
func (IDSlice) Domain() string {
	return "IDSlice"
}
