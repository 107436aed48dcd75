// Package numbering provides gapless sequential voucher numbering.
//
// Numbers are only consumed on confirmed acceptance by the destination
// cloud API: a candidate is read under an exclusive per-(region, voucher
// type) lock, submitted, and committed together with the idempotency
// ledger record in one transaction. Rejected or failed submissions leave
// no trace and the same candidate is re-offered on the next attempt.
package numbering

import "fmt"

// Config holds numbering configuration for one destination pathway.
type Config struct {
	// Prefix added to all numbers (e.g., "AQNS")
	Prefix string

	// PadWidth is the minimum digit width (default 3).
	// Padding is a minimum, not a maximum: 1 -> "001", 1000 -> "1000".
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 3,
	}
}

// FormatNumber creates the display voucher number for a counter value.
// Pattern: PREFIX/NNN (e.g., AQNS/001, AQNS/1000).
func FormatNumber(cfg Config, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 3
	}
	return fmt.Sprintf("%s/%0*d", cfg.Prefix, padWidth, num)
}
