package relay

import "github.com/neture-platform/relay-backend/pkg/enums"

// allowedTransitions is the single source of truth for relay status moves.
// failed -> import_pending is the operator retry path and is additionally
// bounded by the retry ceiling in the import guard.
var allowedTransitions = map[enums.RelayStatus][]enums.RelayStatus{
	enums.RelayStatusImportPending: {enums.RelayStatusImported, enums.RelayStatusFailed},
	enums.RelayStatusFailed:        {enums.RelayStatusImportPending},
	enums.RelayStatusImported:      {enums.RelayStatusDispatched, enums.RelayStatusCancelled},
	enums.RelayStatusDispatched:    {enums.RelayStatusFulfilled, enums.RelayStatusCancelled},
}

// CanTransition reports whether a relay may move from one status to another.
func CanTransition(from, to enums.RelayStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// actionFor maps a committed transition to the audit action describing it.
func actionFor(from, to enums.RelayStatus) enums.RelayAction {
	switch to {
	case enums.RelayStatusImported:
		return enums.RelayActionImported
	case enums.RelayStatusFailed:
		return enums.RelayActionImportFailed
	case enums.RelayStatusImportPending:
		return enums.RelayActionRetried
	case enums.RelayStatusDispatched:
		return enums.RelayActionDispatched
	case enums.RelayStatusFulfilled:
		return enums.RelayActionFulfilled
	case enums.RelayStatusCancelled:
		return enums.RelayActionCancelled
	}
	return enums.RelayActionCreated
}

// eventFor maps a committed transition to the outbox event type carrying it.
func eventFor(to enums.RelayStatus) enums.OutboxEventType {
	switch to {
	case enums.RelayStatusImported:
		return enums.EventOrderRelayImported
	case enums.RelayStatusFailed:
		return enums.EventOrderRelayFailed
	case enums.RelayStatusImportPending:
		return enums.EventOrderRelayRetried
	case enums.RelayStatusDispatched:
		return enums.EventOrderRelayDispatched
	case enums.RelayStatusFulfilled:
		return enums.EventOrderRelayFulfilled
	case enums.RelayStatusCancelled:
		return enums.EventOrderRelayCancelled
	}
	return enums.EventOrderCreated
}
