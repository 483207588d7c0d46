package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotVersion tags the stored shape of line snapshots and dispatch logs
// so later readers can decode historical rows.
const SnapshotVersion = 1

// SettlementLine is one frozen line-item reference inside a settlement
// snapshot. Once the settlement is confirmed these records never change,
// even if the source ledger rows do.
type SettlementLine struct {
	Version       int             `json:"version"`
	RelayID       uuid.UUID       `json:"relay_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Rate          decimal.Decimal `json:"rate"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// SettlementLines is stored as a jsonb array on the settlement row.
type SettlementLines []SettlementLine

// Total sums the snapshot amounts. Used for reconciliation checks.
func (l SettlementLines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l {
		total = total.Add(line.Amount)
	}
	return total
}

// DispatchLogKind enumerates dispatch log entry kinds.
type DispatchLogKind string

const (
	DispatchLogSent     DispatchLogKind = "sent"
	DispatchLogResent   DispatchLogKind = "resent"
	DispatchLogReceived DispatchLogKind = "received"
)

// DispatchLogEntry is one append-only record of a settlement send/receive
// action. Stored as a versioned jsonb array, never rewritten.
type DispatchLogEntry struct {
	Version int             `json:"version"`
	Kind    DispatchLogKind `json:"kind"`
	ActorID string          `json:"actor_id"`
	At      time.Time       `json:"at"`
	Note    string          `json:"note,omitempty"`
}

// DispatchLog is the ordered list of dispatch events for a settlement.
type DispatchLog []DispatchLogEntry
