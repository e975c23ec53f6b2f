package bls

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

// ErrEmptyAggregateInput is returned when aggregation is attempted over an
// empty slice of signatures or public keys.
var ErrEmptyAggregateInput = errors.New("bls: aggregate input is empty")

// AggregateSignatures sums G1 points into a single aggregate signature.
// Order does not matter; the sum is commutative.
func AggregateSignatures(sigs []*Signature) (*Signature, error) {
	if len(sigs) == 0 {
		return nil, ErrEmptyAggregateInput
	}
	var acc bn254.G1Jac
	acc.FromAffine(&sigs[0].point)
	for _, s := range sigs[1:] {
		var next bn254.G1Jac
		next.FromAffine(&s.point)
		acc.AddAssign(&next)
	}
	var out bn254.G1Affine
	out.FromJacobian(&acc)
	return &Signature{point: out}, nil
}

// AggregatePublicKeys sums G2 points into a single aggregate public key.
func AggregatePublicKeys(pks []*PublicKey) (*PublicKey, error) {
	if len(pks) == 0 {
		return nil, ErrEmptyAggregateInput
	}
	var acc bn254.G2Jac
	acc.FromAffine(&pks[0].point)
	for _, pk := range pks[1:] {
		var next bn254.G2Jac
		next.FromAffine(&pk.point)
		acc.AddAssign(&next)
	}
	var out bn254.G2Affine
	out.FromJacobian(&acc)
	return &PublicKey{point: out}, nil
}

// AggregateVerify checks an aggregate signature over a single shared payload
// against the set of signers' public keys: e(sig, G2Gen) = e(H(payload), sum(pks)).
// Callers are responsible for ensuring pks contains no duplicate signer and
// that the individual partials were already verified (or trust is otherwise
// established) before relying on this check, since BLS aggregation alone does
// not defend against rogue-key attacks.
func AggregateVerify(pks []*PublicKey, payload []byte, sig *Signature) (bool, error) {
	if len(pks) == 0 {
		return false, ErrEmptyAggregateInput
	}
	aggPK, err := AggregatePublicKeys(pks)
	if err != nil {
		return false, err
	}

	h, err := bn254.HashToG1(payload, domainSeparationTag)
	if err != nil {
		return false, fmt.Errorf("bls: hash to curve: %w", err)
	}

	_, _, _, g2Gen := bn254.Generators()
	var negG2Gen bn254.G2Affine
	negG2Gen.Neg(&g2Gen)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{sig.point, h},
		[]bn254.G2Affine{negG2Gen, aggPK.point},
	)
	if err != nil {
		return false, fmt.Errorf("bls: pairing check: %w", err)
	}
	return ok, nil
}
