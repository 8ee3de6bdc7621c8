package discovery

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"skr-stats/internal/solana"
)

// testWallet returns a deterministic on-curve address.
func testWallet(n int) string {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n+1))
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	if err != nil {
		panic(err)
	}
	return base58.Encode(new(edwards25519.Point).ScalarBaseMult(s).Bytes())
}

// testSig returns a deterministic 64-byte signature string.
func testSig(n int) string {
	var b [64]byte
	binary.BigEndian.PutUint64(b[56:], uint64(n+1))
	return base58.Encode(b[:])
}

func testMint(n int) string {
	return fmt.Sprintf("Mint%04d", n)
}

func mintAccount(authority string) *solana.AccountInfo {
	data, _ := json.Marshal(map[string]any{
		"program": "spl-token-2022",
		"parsed": map[string]any{
			"type": "mint",
			"info": map[string]any{
				"mintAuthority": authority,
				"supply":        "1",
				"decimals":      0,
			},
		},
	})
	return &solana.AccountInfo{Owner: "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb", Data: data}
}

func mintTx(sig, mint, to string) solana.EnhancedTransaction {
	return solana.EnhancedTransaction{
		Signature: sig,
		Type:      "TOKEN_MINT",
		TokenTransfers: []solana.TokenTransfer{
			{ToUserAccount: to, TokenAmount: 1, Mint: mint},
		},
	}
}

func ownedAsset(mint, owner string) *solana.Asset {
	return &solana.Asset{ID: mint, Ownership: solana.AssetOwnership{Owner: owner}}
}
