package bls_test

import (
	"testing"

	"github.com/luxfi/contributor/pkg/bls"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	sk, err := bls.GeneratePrivateKey()
	require.NoError(t, err)
	pk := sk.PublicKey()

	payload := []byte("round=7 metadata=M")
	sig, err := sk.Sign(payload)
	require.NoError(t, err)

	ok, err := bls.Verify(pk, payload, sig)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyRejectsWrongPayload(t *testing.T) {
	sk, err := bls.GeneratePrivateKey()
	require.NoError(t, err)
	pk := sk.PublicKey()

	sig, err := sk.Sign([]byte("payload a"))
	require.NoError(t, err)

	ok, err := bls.Verify(pk, []byte("payload b"), sig)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAggregateVerify(t *testing.T) {
	const n = 4
	payload := []byte("round=9 metadata=agg")

	var pks []*bls.PublicKey
	var sigs []*bls.Signature
	for i := 0; i < n; i++ {
		sk, err := bls.GeneratePrivateKey()
		require.NoError(t, err)
		pks = append(pks, sk.PublicKey())
		sig, err := sk.Sign(payload)
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}

	agg, err := bls.AggregateSignatures(sigs)
	require.NoError(t, err)

	ok, err := bls.AggregateVerify(pks, payload, agg)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAggregateVerifyRejectsMissingSigner(t *testing.T) {
	payload := []byte("round=1 metadata=x")

	sk1, err := bls.GeneratePrivateKey()
	require.NoError(t, err)
	sk2, err := bls.GeneratePrivateKey()
	require.NoError(t, err)

	sig1, err := sk1.Sign(payload)
	require.NoError(t, err)
	sig2, err := sk2.Sign(payload)
	require.NoError(t, err)

	agg, err := bls.AggregateSignatures([]*bls.Signature{sig1, sig2})
	require.NoError(t, err)

	ok, err := bls.AggregateVerify([]*bls.PublicKey{sk1.PublicKey()}, payload, agg)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPublicKeyRoundTrip(t *testing.T) {
	sk, err := bls.GeneratePrivateKey()
	require.NoError(t, err)
	pk := sk.PublicKey()

	decoded, err := bls.PublicKeyFromBytes(pk.Bytes())
	require.NoError(t, err)
	require.True(t, pk.Equal(decoded))
}

func TestAggregateEmptyInputErrors(t *testing.T) {
	_, err := bls.AggregateSignatures(nil)
	require.ErrorIs(t, err, bls.ErrEmptyAggregateInput)

	_, err = bls.AggregatePublicKeys(nil)
	require.ErrorIs(t, err, bls.ErrEmptyAggregateInput)
}
