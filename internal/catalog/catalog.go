// Package catalog holds the well-known tokens and programs the pipeline
// labels, categorizes and colors.
package catalog

import (
	"fmt"
	"strings"
	"unicode"

	solanaGo "github.com/gagliardetto/solana-go"
)

// Token is a well-known SPL token.
type Token struct {
	Mint     string
	Symbol   string
	Decimals int
	Color    string
}

// Program is a well-known on-chain program that activity is attributed to.
type Program struct {
	ID       string
	Key      string // stable identifier, e.g. JUPITER_V6
	Name     string
	Category string
	// Source is matched against the normalized source label reported by the
	// enhanced-transaction decoder. Empty means account match only.
	Source string
}

// Categories.
const (
	CategoryDEX     = "DEX"
	CategoryNFT     = "NFT"
	CategoryStaking = "Staking"
	CategoryPerps   = "Perps"
	CategoryDeFi    = "DeFi"
	CategoryOther   = "Other"
)

// NativeSymbol labels native SOL balances.
const NativeSymbol = "SOL"

var tokens = []Token{
	{Mint: mustKey("So11111111111111111111111111111111111111112"), Symbol: "SOL", Decimals: 9, Color: "#9945FF"},
	{Mint: mustKey("SKRbvo6Gf7GondiT3BbTfuRDPqLWei4j2Qy2NPGZhW3"), Symbol: "SKR", Decimals: -1, Color: "#14F195"},
	{Mint: mustKey("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"), Symbol: "USDC", Decimals: 6, Color: "#2775CA"},
	{Mint: mustKey("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"), Symbol: "USDT", Decimals: 6, Color: "#26A17B"},
	{Mint: mustKey("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"), Symbol: "JUP", Decimals: 6, Color: "#FE7D44"},
	{Mint: mustKey("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"), Symbol: "BONK", Decimals: 5, Color: "#F5A623"},
	{Mint: mustKey("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"), Symbol: "RAY", Decimals: 6, Color: "#68D5F7"},
}

var programs = []Program{
	{ID: mustKey("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"), Key: "JUPITER_V6", Category: CategoryDEX, Source: "JUPITER"},
	{ID: mustKey("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"), Key: "RAYDIUM_AMM", Category: CategoryDEX, Source: "RAYDIUM"},
	{ID: mustKey("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"), Key: "RAYDIUM_CLMM", Category: CategoryDEX},
	{ID: mustKey("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"), Key: "ORCA_WHIRLPOOL", Category: CategoryDEX, Source: "ORCA"},
	{ID: mustKey("MarBmsSgKXdrN1egZf5sqe1TMai9K1rChYNDJgjq7aD"), Key: "MARINADE", Category: CategoryStaking, Source: "MARINADE"},
	{ID: mustKey("TSWAPaqyCSx2KABk68Shruf4rp7CxcNi8hAsbdwmHbN"), Key: "TENSOR", Category: CategoryNFT, Source: "TENSOR"},
	{ID: mustKey("dRiftyHA39MWEi3m9aunc5MzRF1JYuBsbn6VPcn33UH"), Key: "DRIFT", Category: CategoryPerps, Source: "DRIFT"},
	{ID: mustKey("KLend2g3cP87ber8cJv48MUNMWnG8qGPjp3QW3FsN99"), Key: "KAMINO_LEND", Category: CategoryDeFi, Source: "KAMINO"},
}

var (
	tokensByMint   = make(map[string]Token, len(tokens))
	tokensBySymbol = make(map[string]Token, len(tokens))
	programsByID   = make(map[string]Program, len(programs))
)

func init() {
	for _, t := range tokens {
		tokensByMint[t.Mint] = t
		tokensBySymbol[t.Symbol] = t
	}
	for i := range programs {
		programs[i].Name = prettyName(programs[i].Key)
		programsByID[programs[i].ID] = programs[i]
	}
}

func mustKey(s string) string {
	return solanaGo.MustPublicKeyFromBase58(s).String()
}

// prettyName turns JUPITER_V6 into "Jupiter V6".
func prettyName(key string) string {
	words := strings.Split(strings.ToLower(key), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Tokens returns the well-known tokens.
func Tokens() []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	return out
}

// LookupToken returns the well-known token for mint.
func LookupToken(mint string) (Token, bool) {
	t, ok := tokensByMint[mint]
	return t, ok
}

// Programs returns the well-known programs.
func Programs() []Program {
	out := make([]Program, len(programs))
	copy(out, programs)
	return out
}

// LookupProgram returns the well-known program with the given id.
func LookupProgram(id string) (Program, bool) {
	p, ok := programsByID[id]
	return p, ok
}

// UnknownProgram describes a program id that is not in the catalog.
func UnknownProgram(id string) Program {
	name := id
	if len(name) > 8 {
		name = name[:8]
	}
	return Program{ID: id, Key: id, Name: name, Category: CategoryOther}
}

// MatchSource returns the programs whose source label appears in the
// decoder-reported source. Matching ignores case and non-alphanumerics, so
// "MARINADE_FINANCE" matches MARINADE.
func MatchSource(source string) []Program {
	norm := normalize(source)
	if norm == "" {
		return nil
	}
	var out []Program
	for _, p := range programs {
		if p.Source != "" && strings.Contains(norm, p.Source) {
			out = append(out, p)
		}
	}
	return out
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Color returns the display color for a token symbol. Unknown symbols get a
// hue derived from their rank.
func Color(symbol string, rank int) string {
	if t, ok := tokensBySymbol[symbol]; ok {
		return t.Color
	}
	return fmt.Sprintf("hsl(%d, 60%%, 55%%)", (rank*40)%360)
}
