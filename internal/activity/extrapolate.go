package activity

import (
	"math"
	"sort"

	"skr-stats/internal/catalog"
	"skr-stats/internal/domain"
)

// Tally is the raw, unscaled activity of a sample.
type Tally struct {
	ActiveWallets int64
	TxCount       int64
	SwapCount     int64
	VolumeSOL     float64
	Programs      map[string]*ProgramTally
}

// ProgramTally is the raw activity attributed to one program.
type ProgramTally struct {
	Wallets   int64
	TxCount   int64
	VolumeSOL float64
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{Programs: make(map[string]*ProgramTally)}
}

// add folds one wallet observation into the tally.
func (t *Tally) add(w walletScan) {
	if !w.active() {
		return
	}
	t.ActiveWallets++
	t.TxCount += w.TxCount
	t.SwapCount += w.SwapCount
	t.VolumeSOL += w.VolumeSOL
	for id, use := range w.Programs {
		p, ok := t.Programs[id]
		if !ok {
			p = &ProgramTally{}
			t.Programs[id] = p
		}
		p.Wallets++
		p.TxCount += use.TxCount
		p.VolumeSOL += use.VolumeSOL
	}
}

// ScaleFactor is population / sample, or 0 for an empty sample.
func ScaleFactor(population, sample int64) float64 {
	if sample <= 0 {
		return 0
	}
	return float64(population) / float64(sample)
}

func scaleCount(raw int64, factor float64) int64 {
	return int64(math.Round(float64(raw) * factor))
}

// Extrapolate scales the tally to the population. Counters are rounded; SOL
// volumes are scaled only.
func (t *Tally) Extrapolate(date string, population, sample int64) (domain.ActivityTotals, []domain.ProtocolInteraction) {
	factor := ScaleFactor(population, sample)
	totals := domain.ActivityTotals{
		Date:          date,
		ActiveWallets: scaleCount(t.ActiveWallets, factor),
		TxCount:       scaleCount(t.TxCount, factor),
		SwapCount:     scaleCount(t.SwapCount, factor),
		SwapVolumeSOL: t.VolumeSOL * factor,
		SampleSize:    sample,
		ScaleFactor:   factor,
	}

	rows := make([]domain.ProtocolInteraction, 0, len(t.Programs))
	for id, p := range t.Programs {
		prog, ok := catalog.LookupProgram(id)
		if !ok {
			prog = catalog.UnknownProgram(id)
		}
		rows = append(rows, domain.ProtocolInteraction{
			Date:          date,
			ProgramID:     id,
			Name:          prog.Name,
			Category:      prog.Category,
			UniqueWallets: scaleCount(p.Wallets, factor),
			TxCount:       scaleCount(p.TxCount, factor),
			VolumeSOL:     p.VolumeSOL * factor,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UniqueWallets != rows[j].UniqueWallets {
			return rows[i].UniqueWallets > rows[j].UniqueWallets
		}
		return rows[i].ProgramID < rows[j].ProgramID
	})
	return totals, rows
}
