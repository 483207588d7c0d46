package enums

import "fmt"

// RelayAction names the transition recorded on a relay audit entry.
type RelayAction string

const (
	RelayActionCreated      RelayAction = "created"
	RelayActionImported     RelayAction = "imported"
	RelayActionImportFailed RelayAction = "import_failed"
	RelayActionRetried      RelayAction = "retried"
	RelayActionDispatched   RelayAction = "dispatched"
	RelayActionFulfilled    RelayAction = "fulfilled"
	RelayActionCancelled    RelayAction = "cancelled"
)

var validRelayActions = []RelayAction{
	RelayActionCreated,
	RelayActionImported,
	RelayActionImportFailed,
	RelayActionRetried,
	RelayActionDispatched,
	RelayActionFulfilled,
	RelayActionCancelled,
}

// IsValid reports whether the value is a known RelayAction.
func (a RelayAction) IsValid() bool {
	for _, candidate := range validRelayActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseRelayAction converts raw input into a RelayAction.
func ParseRelayAction(value string) (RelayAction, error) {
	for _, candidate := range validRelayActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid relay action %q", value)
}
