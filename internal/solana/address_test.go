package solana

import (
	"testing"

	"filippo.io/edwards25519"
	solanaGo "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("GT2zuHVaZQYZSyQMgJPLzvkmyztfyXg2NJunqFp4p3A4"))
	assert.False(t, IsValidAddress("not-base58-0OIl"))
	assert.False(t, IsValidAddress("abc"))
}

func TestIsOnCurve(t *testing.T) {
	// A multiple of the base point is always on the curve.
	s, err := edwards25519.NewScalar().SetCanonicalBytes(append([]byte{7}, make([]byte, 31)...))
	require.NoError(t, err)
	wallet := base58.Encode(new(edwards25519.Point).ScalarBaseMult(s).Bytes())
	assert.True(t, IsOnCurve(wallet))

	// Program-derived addresses are off the curve by construction.
	pda, _, err := solanaGo.FindProgramAddress(
		[][]byte{[]byte("vault")},
		solanaGo.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"),
	)
	require.NoError(t, err)
	assert.False(t, IsOnCurve(pda.String()))

	assert.False(t, IsOnCurve("garbage"))
}

func TestIsValidSignature(t *testing.T) {
	assert.True(t, IsValidSignature(base58.Encode(make([]byte, 64))))
	assert.False(t, IsValidSignature(base58.Encode(make([]byte, 32))))
	assert.False(t, IsValidSignature("0OIl"))
}
