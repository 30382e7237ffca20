// Package token implements the signed capability token envelope: minting,
// the canonical signing payload, Ed25519-backed verification, optional
// proof-of-possession binding, and the pipeline that ties envelope
// verification to policy evaluation.
package token

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/captoken/spl/internal/capcrypto"
	"github.com/captoken/spl/internal/policy"
)

// EnvelopeVersion is the token format version minted by this package.
const EnvelopeVersion = "0.1.0"

// Sentinel errors surfaced by VerifyToken. These are envelope-layer
// failures — they are always folded into Result.Error, never returned as a
// Go error, so a caller can't accidentally treat a denied, unsigned, or
// expired token as a code-level fault. Policy parse and evaluator failures
// are the only ones that propagate as an error (see Result and VerifyToken).
var (
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrMissingPresentation = errors.New("PoP binding requires presentation signature")
	ErrInvalidPresentation = errors.New("invalid presentation signature")
)

// Token is the signed capability token envelope described in the policy
// language's token format. Optional fields use pointers/empty-string zero
// values and are simply omitted from JSON when unset.
type Token struct {
	Version             string `json:"version"`
	Policy              string `json:"policy"`
	Sealed              bool   `json:"sealed"`
	PublicKey           string `json:"public_key"`
	Signature           string `json:"signature"`
	Expires             string `json:"expires,omitempty"`
	MerkleRoot          string `json:"merkle_root,omitempty"`
	HashChainCommitment string `json:"hash_chain_commitment,omitempty"`
	PopKey              string `json:"pop_key,omitempty"`
}

// MintOptions are the optional fields a minted token may carry.
type MintOptions struct {
	MerkleRoot          string
	HashChainCommitment string
	Sealed              bool
	Expires             string
	PopKey              string
}

// GenerateKeypair creates an Ed25519 keypair, returning the hex-encoded
// public key and the hex-encoded 32-byte private seed (not the expanded
// 64-byte private key ed25519.GenerateKey also returns).
func GenerateKeypair() (publicKeyHex, privateSeedHex string, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", "", fmt.Errorf("generating ed25519 keypair: %w", err)
	}
	seed := priv.Seed()
	return hex.EncodeToString(pub), hex.EncodeToString(seed), nil
}

// signingPayload builds the canonical NUL-joined payload covering every
// security-relevant field, so sealed, expires, merkle_root, and
// hash_chain_commitment can never be altered without invalidating the
// signature.
func signingPayload(policySrc, merkleRoot, hashChainCommitment string, sealed bool, expires string) []byte {
	sealedFlag := "0"
	if sealed {
		sealedFlag = "1"
	}
	parts := []string{
		strings.TrimSpace(policySrc),
		merkleRoot,
		hashChainCommitment,
		sealedFlag,
		expires,
	}
	return []byte(strings.Join(parts, "\x00"))
}

// Mint signs policySrc (and the rest of the envelope) with the Ed25519
// private key identified by privateSeedHex (its 32-byte hex seed).
func Mint(policySrc, privateSeedHex string, opts MintOptions) (Token, error) {
	seed, err := hex.DecodeString(privateSeedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return Token{}, fmt.Errorf("invalid private key: expected %d-byte hex seed", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	trimmed := strings.TrimSpace(policySrc)
	payload := signingPayload(trimmed, opts.MerkleRoot, opts.HashChainCommitment, opts.Sealed, opts.Expires)
	sig := ed25519.Sign(priv, payload)

	return Token{
		Version:             EnvelopeVersion,
		Policy:              trimmed,
		Sealed:              opts.Sealed,
		PublicKey:           hex.EncodeToString(pub),
		Signature:           hex.EncodeToString(sig),
		Expires:             opts.Expires,
		MerkleRoot:          opts.MerkleRoot,
		HashChainCommitment: opts.HashChainCommitment,
		PopKey:              opts.PopKey,
	}, nil
}

// CreatePresentationSignature creates a proof-of-possession signature
// binding a presentation of t to the holder identified by
// agentPrivateSeedHex. The agent signs SHA-256(signing payload) — one
// layer removed from the minting signature — so a PoP signature can never
// be replayed as (or confused with) the minting signature itself.
func CreatePresentationSignature(t Token, agentPrivateSeedHex string) (string, error) {
	seed, err := hex.DecodeString(agentPrivateSeedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("invalid agent private key: expected %d-byte hex seed", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)

	payload := signingPayload(t.Policy, t.MerkleRoot, t.HashChainCommitment, t.Sealed, t.Expires)
	popPayload := capcrypto.SHA256(payload)
	sig := ed25519.Sign(priv, popPayload[:])
	return hex.EncodeToString(sig), nil
}

// parseTimestamp accepts an RFC3339 timestamp, or one with the zone offset
// omitted, which is read as UTC.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

// VerifyOptions carries the request context a policy evaluates against.
type VerifyOptions struct {
	Req                   map[string]policy.Value
	Vars                  map[string]policy.Value
	PerDayCount           func(action, day string) int64
	Crypto                policy.CryptoCallbacks
	Now                   string // RFC3339; defaults to time.Now().UTC()
	PresentationSignature string
	MaxGas                int
}

// Result is the outcome of verifying a token: an allow/deny decision, the
// sealed flag, and (on an envelope-layer failure) a human-readable reason.
// Mirrors policy.Result one layer up.
type Result struct {
	Allow   bool
	Sealed  bool
	Error   string
	GasUsed int
}

// VerifyToken runs the full verification pipeline: expiry, signature,
// optional PoP binding, then parse-and-evaluate. Envelope failures
// (expired, bad signature, missing/invalid PoP) are reported in
// Result.Error with Allow=false — never as a Go error — so a caller
// checking only `result.Allow` never has to remember to also check `err`
// for an ordinary deny. Evaluator failures (gas exhaustion, depth
// overrun, unknown operator) are different in kind: they indicate a
// malformed policy rather than a legitimate envelope-level deny, so they
// propagate as a returned error instead.
func VerifyToken(t Token, opts VerifyOptions) (Result, error) {
	now := opts.Now
	if now == "" {
		now = time.Now().UTC().Format(time.RFC3339)
	}

	if t.Expires != "" {
		exp, err := parseTimestamp(t.Expires)
		if err != nil {
			return Result{Sealed: t.Sealed, Error: ErrTokenExpired.Error()}, nil
		}
		current, err := parseTimestamp(now)
		if err != nil {
			current = time.Now().UTC()
		}
		if current.After(exp) {
			return Result{Sealed: t.Sealed, Error: ErrTokenExpired.Error()}, nil
		}
	}

	payload := signingPayload(t.Policy, t.MerkleRoot, t.HashChainCommitment, t.Sealed, t.Expires)
	if !capcrypto.VerifyEd25519(payload, t.Signature, t.PublicKey) {
		return Result{Sealed: t.Sealed, Error: ErrInvalidSignature.Error()}, nil
	}

	if t.PopKey != "" {
		if opts.PresentationSignature == "" {
			return Result{Sealed: t.Sealed, Error: ErrMissingPresentation.Error()}, nil
		}
		popPayload := capcrypto.SHA256(payload)
		if !capcrypto.VerifyEd25519(popPayload[:], opts.PresentationSignature, t.PopKey) {
			return Result{Sealed: t.Sealed, Error: ErrInvalidPresentation.Error()}, nil
		}
	}

	ast, err := policy.Parse(t.Policy)
	if err != nil {
		return Result{}, err
	}

	vars := map[string]policy.Value{}
	for k, v := range opts.Vars {
		vars[k] = v
	}
	vars["now"] = policy.String(now)

	b := policy.Bindings{
		Vars:        vars,
		Now:         now,
		PerDayCount: opts.PerDayCount,
		Crypto:      opts.Crypto,
		MaxGas:      opts.MaxGas,
	}

	// sealed gates attenuation, not ordinary use: verifying a sealed
	// token still evaluates its policy normally, and t.Sealed is carried
	// into the result as advisory metadata for higher layers.
	polResult, err := policy.Verify(ast, opts.Req, b, false)
	if err != nil {
		return Result{}, err
	}

	return Result{Allow: polResult.Allow, Sealed: t.Sealed, Error: polResult.Error, GasUsed: polResult.GasUsed}, nil
}

// MarshalJSON and UnmarshalJSON are the default struct-tag-driven
// behavior; ParseToken and token.String exist for the CLI's convenience
// when moving a token to and from JSON text.

// ParseToken decodes a JSON token envelope.
func ParseToken(data []byte) (Token, error) {
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return Token{}, fmt.Errorf("parsing token: %w", err)
	}
	return t, nil
}

// String renders t as indented JSON.
func (t Token) String() string {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
