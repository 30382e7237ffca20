package spl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captoken/spl/internal/spl"
)

func TestEndToEnd_MintAttenuateSealVerify(t *testing.T) {
	t.Parallel()

	pub, priv, err := spl.GenerateKeypair()
	require.NoError(t, err)
	assert.NotEmpty(t, pub)

	policySrc := `(and (member (get req "action") (tuple "read" "write")) (<= (get req "amount") 100))`

	tok, err := spl.Mint(policySrc, priv, spl.MintOptions{})
	require.NoError(t, err)

	result, err := spl.VerifyToken(tok, spl.VerifyOptions{
		Req: map[string]spl.Value{"action": spl.String("read"), "amount": spl.Int(10)},
	})
	require.NoError(t, err)
	assert.True(t, result.Allow)

	sealedTok, err := spl.Mint(policySrc, priv, spl.MintOptions{Sealed: true})
	require.NoError(t, err)

	// Sealing doesn't stop ordinary use: the sealed token still verifies,
	// carrying Sealed=true through to the caller.
	result, err = spl.VerifyToken(sealedTok, spl.VerifyOptions{
		Req: map[string]spl.Value{"action": spl.String("read"), "amount": spl.Int(10)},
	})
	require.NoError(t, err)
	assert.True(t, result.Allow)
	assert.True(t, result.Sealed)

	// What sealing does forbid is further attenuation: the unsigned verify
	// path an attenuating layer runs refuses outright when sealed.
	ast, err := spl.Parse(sealedTok.Policy)
	require.NoError(t, err)

	attResult, err := spl.Verify(ast, nil, spl.Bindings{}, sealedTok.Sealed)
	require.NoError(t, err)
	assert.False(t, attResult.Allow)
	assert.NotEmpty(t, attResult.Error)
}

func TestParseAndEval_Facade(t *testing.T) {
	t.Parallel()

	ast, err := spl.Parse(`(<= 1 2)`)
	require.NoError(t, err)

	got, err := spl.Eval(ast, spl.Bindings{})
	require.NoError(t, err)
	b, ok := got.AsBool()
	require.True(t, ok)
	assert.True(t, b)
}

func TestMerkleAndHashChain_Facade(t *testing.T) {
	t.Parallel()

	leafHash := spl.SHA256Hex([]byte("a"))
	assert.Len(t, leafHash, 64)

	commitment, err := spl.HashTuple([]any{"transfer", 10})
	require.NoError(t, err)
	assert.NotEmpty(t, commitment)
}
