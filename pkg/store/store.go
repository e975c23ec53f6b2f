// Package store holds per-round partial signatures. It is owned
// exclusively by the single round-loop goroutine that drives a
// contributor node, and therefore needs no internal locking.
package store

import (
	"sort"

	"github.com/luxfi/contributor/pkg/bls"
)

// Entry is one contributor's stored partial signature for a round.
type Entry struct {
	Index     int
	Key       *bls.PublicKey
	Signature *bls.Signature
}

// InsertOutcome reports whether an Insert call actually stored anything.
type InsertOutcome int

const (
	// Inserted means this is the first signature seen for (round, index).
	Inserted InsertOutcome = iota
	// Duplicate means (round, index) already had a stored signature.
	Duplicate
)

// Store is the per-round signature table: round -> contributor index -> partial.
type Store struct {
	rounds map[uint64]map[int]Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{rounds: make(map[uint64]map[int]Entry)}
}

// HasRound reports whether any entry exists for round yet.
func (s *Store) HasRound(round uint64) bool {
	_, ok := s.rounds[round]
	return ok
}

// Insert stores (round, index, key, sig) if the slot is unused. The round's
// inner map is created lazily on first insertion.
func (s *Store) Insert(round uint64, index int, key *bls.PublicKey, sig *bls.Signature) InsertOutcome {
	byIndex, ok := s.rounds[round]
	if !ok {
		byIndex = make(map[int]Entry)
		s.rounds[round] = byIndex
	}
	if _, exists := byIndex[index]; exists {
		return Duplicate
	}
	byIndex[index] = Entry{Index: index, Key: key, Signature: sig}
	return Inserted
}

// Count returns the number of distinct contributor partials stored for round.
func (s *Store) Count(round uint64) int {
	return len(s.rounds[round])
}

// IterByIndex returns every stored entry for round in ascending index order,
// the deterministic order required when building aggregation inputs.
func (s *Store) IterByIndex(round uint64) []Entry {
	byIndex := s.rounds[round]
	entries := make([]Entry, 0, len(byIndex))
	for _, e := range byIndex {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	return entries
}
