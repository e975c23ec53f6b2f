// Package bls wraps BN254 pairing operations from gnark-crypto into the
// keypair/sign/verify/aggregate primitives the contributor protocol needs.
//
// Public keys live in G2, signatures and proof-of-possession keys live in
// G1, matching the convention used by EigenLayer-style AVS BLS registries.
package bls

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// domainSeparationTag is mixed into every hash-to-curve call so signatures
// produced by this package are never valid under a different protocol's
// hash-to-curve domain.
var domainSeparationTag = []byte("LUXFI-CONTRIBUTOR-BLS-BN254-G1_XMD:SHA-256_SVDW_RO_")

// PrivateKey is a BN254 scalar used to sign over G1.
type PrivateKey struct {
	scalar fr.Element
}

// PublicKey is the G2 counterpart of a PrivateKey, used for signature
// verification.
type PublicKey struct {
	point bn254.G2Affine
}

// G1PublicKey is the G1 counterpart of a PrivateKey. It exists only to
// support proof-of-possession style checks some validators may require;
// it never appears in a sign/verify equation in this package.
type G1PublicKey struct {
	point bn254.G1Affine
}

// Signature is a point on G1 produced by PrivateKey.Sign.
type Signature struct {
	point bn254.G1Affine
}

// GeneratePrivateKey samples a fresh, uniformly random BN254 scalar.
func GeneratePrivateKey() (*PrivateKey, error) {
	var s fr.Element
	if _, err := s.SetRandom(); err != nil {
		return nil, fmt.Errorf("bls: generate private key: %w", err)
	}
	return &PrivateKey{scalar: s}, nil
}

// PrivateKeyFromBytes interprets a 32-byte big-endian scalar as a private key.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	var s fr.Element
	s.SetBytes(b)
	return &PrivateKey{scalar: s}, nil
}

// Bytes returns the canonical big-endian encoding of the scalar.
func (sk *PrivateKey) Bytes() []byte {
	b := sk.scalar.Bytes()
	return b[:]
}

// PublicKey derives the G2 public key gG2^sk.
func (sk *PrivateKey) PublicKey() *PublicKey {
	_, _, _, g2Gen := bn254.Generators()
	var pk bn254.G2Affine
	pk.ScalarMultiplication(&g2Gen, sk.scalarBigInt())
	return &PublicKey{point: pk}
}

// G1PublicKey derives the G1 public key gG1^sk, usable for proof-of-possession.
func (sk *PrivateKey) G1PublicKey() *G1PublicKey {
	_, _, g1Gen, _ := bn254.Generators()
	var pk bn254.G1Affine
	pk.ScalarMultiplication(&g1Gen, sk.scalarBigInt())
	return &G1PublicKey{point: pk}
}

// Sign hashes payload onto G1 and multiplies it by the private scalar.
func (sk *PrivateKey) Sign(payload []byte) (*Signature, error) {
	h, err := bn254.HashToG1(payload, domainSeparationTag)
	if err != nil {
		return nil, fmt.Errorf("bls: hash to curve: %w", err)
	}
	var sig bn254.G1Affine
	sig.ScalarMultiplication(&h, sk.scalarBigInt())
	return &Signature{point: sig}, nil
}

func (sk *PrivateKey) scalarBigInt() *big.Int {
	var out big.Int
	sk.scalar.BigInt(&out)
	return &out
}

// Verify checks sig against a single public key and payload using the
// pairing equation e(sig, G2Gen) = e(H(payload), pk).
func Verify(pk *PublicKey, payload []byte, sig *Signature) (bool, error) {
	return AggregateVerify([]*PublicKey{pk}, payload, sig)
}

// PublicKeyFromBytes decompresses a G2 point.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	var p bn254.G2Affine
	if _, err := p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("bls: decode public key: %w", err)
	}
	return &PublicKey{point: p}, nil
}

// Bytes returns the compressed encoding of the G2 point.
func (pk *PublicKey) Bytes() []byte {
	b := pk.point.Bytes()
	return b[:]
}

// Equal reports whether two public keys encode the same point.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.point.Equal(&other.point)
}

// G1PublicKeyFromBytes decompresses a G1 point.
func G1PublicKeyFromBytes(b []byte) (*G1PublicKey, error) {
	var p bn254.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("bls: decode g1 public key: %w", err)
	}
	return &G1PublicKey{point: p}, nil
}

// Bytes returns the compressed encoding of the G1 point.
func (pk *G1PublicKey) Bytes() []byte {
	b := pk.point.Bytes()
	return b[:]
}

// SignatureFromBytes decompresses a G1 point as a signature.
func SignatureFromBytes(b []byte) (*Signature, error) {
	var p bn254.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("bls: decode signature: %w", err)
	}
	return &Signature{point: p}, nil
}

// Bytes returns the compressed encoding of the signature point.
func (s *Signature) Bytes() []byte {
	b := s.point.Bytes()
	return b[:]
}
