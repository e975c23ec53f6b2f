package store_test

import (
	"testing"

	"github.com/luxfi/contributor/pkg/bls"
	"github.com/luxfi/contributor/pkg/store"
	"github.com/stretchr/testify/require"
)

func newSig(t *testing.T) (*bls.PublicKey, *bls.Signature) {
	t.Helper()
	sk, err := bls.GeneratePrivateKey()
	require.NoError(t, err)
	sig, err := sk.Sign([]byte("payload"))
	require.NoError(t, err)
	return sk.PublicKey(), sig
}

func TestInsertAndDuplicate(t *testing.T) {
	s := store.New()
	pk, sig := newSig(t)

	require.Equal(t, store.Inserted, s.Insert(7, 1, pk, sig))
	require.Equal(t, store.Duplicate, s.Insert(7, 1, pk, sig))
	require.Equal(t, 1, s.Count(7))
}

func TestDifferentIndicesSameRound(t *testing.T) {
	s := store.New()
	pk1, sig1 := newSig(t)
	pk2, sig2 := newSig(t)

	require.Equal(t, store.Inserted, s.Insert(7, 0, pk1, sig1))
	require.Equal(t, store.Inserted, s.Insert(7, 1, pk2, sig2))
	require.Equal(t, 2, s.Count(7))
}

func TestIterByIndexIsAscending(t *testing.T) {
	s := store.New()
	pk0, sig0 := newSig(t)
	pk1, sig1 := newSig(t)
	pk2, sig2 := newSig(t)

	s.Insert(7, 2, pk2, sig2)
	s.Insert(7, 0, pk0, sig0)
	s.Insert(7, 1, pk1, sig1)

	entries := s.IterByIndex(7)
	require.Len(t, entries, 3)
	require.Equal(t, []int{0, 1, 2}, []int{entries[0].Index, entries[1].Index, entries[2].Index})
}

func TestHasRoundAndCountForUnknownRound(t *testing.T) {
	s := store.New()
	require.False(t, s.HasRound(99))
	require.Equal(t, 0, s.Count(99))
	require.Empty(t, s.IterByIndex(99))
}
