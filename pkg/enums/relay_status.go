package enums

import "fmt"

// RelayStatus maps to the relay_status_enum enum in Postgres.
type RelayStatus string

const (
	RelayStatusImportPending RelayStatus = "import_pending"
	RelayStatusImported      RelayStatus = "imported"
	RelayStatusFailed        RelayStatus = "failed"
	RelayStatusCancelled     RelayStatus = "cancelled"
	RelayStatusDispatched    RelayStatus = "dispatched"
	RelayStatusFulfilled     RelayStatus = "fulfilled"
)

var validRelayStatuses = []RelayStatus{
	RelayStatusImportPending,
	RelayStatusImported,
	RelayStatusFailed,
	RelayStatusCancelled,
	RelayStatusDispatched,
	RelayStatusFulfilled,
}

// String implements fmt.Stringer.
func (s RelayStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RelayStatus.
func (s RelayStatus) IsValid() bool {
	for _, candidate := range validRelayStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no forward transition leaves this status.
// A failed relay below the retry ceiling can still be re-queued by an
// operator, which is handled by the transition table, not here.
func (s RelayStatus) IsTerminal() bool {
	switch s {
	case RelayStatusCancelled, RelayStatusFulfilled:
		return true
	}
	return false
}

// ParseRelayStatus converts raw input into a RelayStatus.
func ParseRelayStatus(value string) (RelayStatus, error) {
	for _, candidate := range validRelayStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid relay status %q", value)
}
