// Package capcrypto wraps the cryptographic primitives the token envelope
// and policy crypto predicates depend on: SHA-256 hashing, Ed25519
// signature verification, Merkle proof checking, and hash-chain receipt
// verification.
//
// Ed25519 and SHA-256 are treated as black-box primitives — both ship in
// the standard library, so no third-party crypto package sits between this
// package and crypto/ed25519 / crypto/sha256.
package capcrypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// SHA256Hex returns the SHA-256 digest of data, hex-encoded.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyEd25519 verifies an Ed25519 signature over message. It never
// panics or errors on malformed hex or wrong-length keys/signatures; any
// parse or verification failure simply returns false.
func VerifyEd25519(message []byte, signatureHex, publicKeyHex string) bool {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}

// MerkleStep is one sibling hash in a Merkle inclusion proof.
type MerkleStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"` // "left" or "right"
}

// VerifyMerkleProof recomputes the root from leaf and proof and compares it
// to rootHex. The leaf is hashed once with SHA-256 before folding in the
// proof steps; any malformed hex in the proof causes a false result rather
// than an error, so a single corrupt proof entry can never panic a verify
// call.
func VerifyMerkleProof(leaf string, proof []MerkleStep, rootHex string) bool {
	current := sha256.Sum256([]byte(leaf))
	currentBytes := current[:]

	for _, step := range proof {
		sibling, err := hex.DecodeString(step.Hash)
		if err != nil {
			return false
		}
		var combined []byte
		if step.Position == "right" {
			combined = append(append([]byte{}, currentBytes...), sibling...)
		} else {
			combined = append(append([]byte{}, sibling...), currentBytes...)
		}
		next := sha256.Sum256(combined)
		currentBytes = next[:]
	}

	return hex.EncodeToString(currentBytes) == rootHex
}

// HashTuple JSON-serializes values (compact form) and SHA-256 hashes the
// result, hex-encoded. Used by hosts wiring up merkle_ok?/vrf_ok? callbacks
// against a committed tuple of values.
func HashTuple(values []any) (string, error) {
	serialized, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return SHA256Hex(serialized), nil
}

// VerifyHashChain hashes preimageHex exactly (chainLength - index) times
// and compares the result to commitment. A malformed preimageHex or a
// negative step count returns false rather than erroring.
func VerifyHashChain(commitment, preimageHex string, index, chainLength int) bool {
	current, err := hex.DecodeString(preimageHex)
	if err != nil {
		return false
	}
	steps := chainLength - index
	if steps < 0 {
		return false
	}
	for i := 0; i < steps; i++ {
		sum := sha256.Sum256(current)
		current = sum[:]
	}
	return hex.EncodeToString(current) == commitment
}
