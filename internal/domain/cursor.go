package domain

// CursorState is a resume point for a long-running scan.
type CursorState struct {
	Key       string // PRIMARY KEY
	Value     string
	UpdatedAt int64 // Unix ms
}

// CursorAuthorityScan is the key under which the authority scan stores the
// newest processed signature.
const CursorAuthorityScan = "discovery.authority.last_signature"
