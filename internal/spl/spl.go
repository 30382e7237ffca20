// Package spl is the public facade over the policy language and token
// envelope: Parse, Eval, Verify, Mint, VerifyToken, and GenerateKeypair, all
// in one place for hosts (and the CLI) that don't need to reach into the
// policy/token/capcrypto packages directly.
package spl

import (
	"github.com/captoken/spl/internal/capcrypto"
	"github.com/captoken/spl/internal/policy"
	"github.com/captoken/spl/internal/token"
)

// EnvelopeVersion is the token envelope format this build mints.
const EnvelopeVersion = token.EnvelopeVersion

// Re-exported types so callers only need this one import.
type (
	Value           = policy.Value
	Bindings        = policy.Bindings
	CryptoCallbacks = policy.CryptoCallbacks
	Result          = policy.Result
	Token           = token.Token
	MintOptions     = token.MintOptions
	VerifyOptions   = token.VerifyOptions
	TokenResult     = token.Result
	MerkleStep      = capcrypto.MerkleStep
)

// Value constructors, re-exported for convenience.
var (
	Null          = policy.Null
	Bool          = policy.Bool
	Int           = policy.Int
	Float         = policy.Float
	String        = policy.String
	List          = policy.List
	NewMap        = policy.NewMap
	DefaultMaxGas = policy.DefaultMaxGas
	MaxDepth      = policy.MaxDepth
)

// Parse parses policy source text into an AST.
func Parse(src string) (Value, error) {
	return policy.Parse(src)
}

// Eval evaluates an already-parsed policy AST within bindings.
func Eval(ast Value, b Bindings) (Value, error) {
	return policy.EvalPolicy(ast, b)
}

// Verify evaluates an unsigned, already-trusted policy AST against a
// request, honoring the sealed short-circuit.
func Verify(ast Value, req map[string]Value, b Bindings, sealed bool) (Result, error) {
	return policy.Verify(ast, req, b, sealed)
}

// GenerateKeypair creates a new Ed25519 keypair for minting tokens.
func GenerateKeypair() (publicKeyHex, privateSeedHex string, err error) {
	return token.GenerateKeypair()
}

// Mint signs a policy into a capability token.
func Mint(policySrc, privateSeedHex string, opts MintOptions) (Token, error) {
	return token.Mint(policySrc, privateSeedHex, opts)
}

// CreatePresentationSignature produces a PoP signature binding a
// presentation of t to the holder identified by agentPrivateSeedHex.
func CreatePresentationSignature(t Token, agentPrivateSeedHex string) (string, error) {
	return token.CreatePresentationSignature(t, agentPrivateSeedHex)
}

// VerifyToken runs the full envelope-then-policy verification pipeline.
func VerifyToken(t Token, opts VerifyOptions) (TokenResult, error) {
	return token.VerifyToken(t, opts)
}

// ParseToken decodes a JSON token envelope.
func ParseToken(data []byte) (Token, error) {
	return token.ParseToken(data)
}

// SHA256Hex hashes data with SHA-256, hex-encoded — exposed for hosts
// computing Merkle leaves or hash-chain preimages outside the evaluator.
func SHA256Hex(data []byte) string {
	return capcrypto.SHA256Hex(data)
}

// VerifyMerkleProof recomputes a Merkle root from leaf and proof and
// compares it to rootHex.
func VerifyMerkleProof(leaf string, proof []MerkleStep, rootHex string) bool {
	return capcrypto.VerifyMerkleProof(leaf, proof, rootHex)
}

// HashTuple JSON-serializes values and SHA-256 hashes the result.
func HashTuple(values []any) (string, error) {
	return capcrypto.HashTuple(values)
}

// VerifyHashChain verifies a hash-chain receipt.
func VerifyHashChain(commitment, preimageHex string, index, chainLength int) bool {
	return capcrypto.VerifyHashChain(commitment, preimageHex, index, chainLength)
}
