// Package pricing resolves USD token prices and market data.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// MaxIDsPerCall is the price API's per-request id limit.
const MaxIDsPerCall = 100

// Source resolves USD prices for token mints. Mints it cannot price are
// absent from the result. A non-nil error may accompany a partial result.
type Source interface {
	Prices(ctx context.Context, mints []string) (map[string]float64, error)
}

// flexFloat decodes numbers sent either as JSON numbers or numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func dedupe(mints []string) []string {
	seen := make(map[string]struct{}, len(mints))
	out := make([]string, 0, len(mints))
	for _, m := range mints {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

var _ json.Unmarshaler = (*flexFloat)(nil)
