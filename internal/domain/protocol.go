package domain

// ProtocolInteraction holds daily usage counters for one program.
// Corresponds to protocol_interactions table, keyed by (date, program_id).
// Counts are extrapolated estimates.
type ProtocolInteraction struct {
	Date          string
	ProgramID     string
	Name          string
	Category      string
	UniqueWallets int64
	TxCount       int64
	VolumeSOL     float64
}
