// Package membership holds the fixed contributor set a node authenticates
// inbound messages against: a sorted, deduplicated list of BLS public keys
// with a dense position index, plus an equality check against the single
// authorised orchestrator key.
package membership

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/luxfi/contributor/pkg/bls"
)

// Index is the immutable, sorted contributor set for one session.
type Index struct {
	orchestrator *bls.PublicKey
	members      []*bls.PublicKey
	indexOf      map[string]int
}

// New builds an Index from an orchestrator key and an unordered member
// list. members is sorted ascending by compressed key bytes and
// deduplicated; self must be present in members.
func New(orchestrator *bls.PublicKey, members []*bls.PublicKey, self *bls.PublicKey) (*Index, int, error) {
	if len(members) == 0 {
		return nil, 0, fmt.Errorf("membership: member list must not be empty")
	}

	sorted := make([]*bls.PublicKey, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Bytes(), sorted[j].Bytes()) < 0
	})

	indexOf := make(map[string]int, len(sorted))
	deduped := sorted[:0:0]
	for _, m := range sorted {
		key := string(m.Bytes())
		if _, exists := indexOf[key]; exists {
			continue
		}
		indexOf[key] = len(deduped)
		deduped = append(deduped, m)
	}

	idx := &Index{
		orchestrator: orchestrator,
		members:      deduped,
		indexOf:      indexOf,
	}

	selfIndex, ok := idx.IndexOf(self)
	if !ok {
		return nil, 0, fmt.Errorf("membership: self key not found in member list")
	}

	return idx, selfIndex, nil
}

// IsOrchestrator reports whether key equals the authorised orchestrator key.
func (idx *Index) IsOrchestrator(key *bls.PublicKey) bool {
	return idx.orchestrator.Equal(key)
}

// IndexOf returns the dense position of key in the member list.
func (idx *Index) IndexOf(key *bls.PublicKey) (int, bool) {
	i, ok := idx.indexOf[string(key.Bytes())]
	return i, ok
}

// Members returns the sorted member list. Callers must not mutate the
// returned slice.
func (idx *Index) Members() []*bls.PublicKey {
	return idx.members
}

// Len returns the number of distinct contributors, n.
func (idx *Index) Len() int {
	return len(idx.members)
}

// KeyAt returns the member at a dense position, or nil if out of range.
func (idx *Index) KeyAt(i int) *bls.PublicKey {
	if i < 0 || i >= len(idx.members) {
		return nil
	}
	return idx.members[i]
}
