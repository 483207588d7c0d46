package enums

import "fmt"

// SettlementStatus tracks the draft/confirmed/archived axis of a settlement.
type SettlementStatus string

const (
	SettlementStatusDraft     SettlementStatus = "draft"
	SettlementStatusConfirmed SettlementStatus = "confirmed"
	SettlementStatusArchived  SettlementStatus = "archived"
)

var validSettlementStatuses = []SettlementStatus{
	SettlementStatusDraft,
	SettlementStatusConfirmed,
	SettlementStatusArchived,
}

// String implements fmt.Stringer.
func (s SettlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementStatus.
func (s SettlementStatus) IsValid() bool {
	for _, candidate := range validSettlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSettlementStatus converts raw input into a SettlementStatus.
func ParseSettlementStatus(value string) (SettlementStatus, error) {
	for _, candidate := range validSettlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement status %q", value)
}

// DispatchStatus is the orthogonal delivery axis of a settlement.
// It only ever moves forward: none -> sent -> received.
type DispatchStatus string

const (
	DispatchStatusNone     DispatchStatus = "none"
	DispatchStatusSent     DispatchStatus = "sent"
	DispatchStatusReceived DispatchStatus = "received"
)

var validDispatchStatuses = []DispatchStatus{
	DispatchStatusNone,
	DispatchStatusSent,
	DispatchStatusReceived,
}

// IsValid reports whether the value is a known DispatchStatus.
func (d DispatchStatus) IsValid() bool {
	for _, candidate := range validDispatchStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

func (d DispatchStatus) rank() int {
	switch d {
	case DispatchStatusSent:
		return 1
	case DispatchStatusReceived:
		return 2
	}
	return 0
}

// CanAdvanceTo reports whether moving to next keeps the forward-only rule.
func (d DispatchStatus) CanAdvanceTo(next DispatchStatus) bool {
	return next.rank() > d.rank()
}

// ParseDispatchStatus converts raw input into a DispatchStatus.
func ParseDispatchStatus(value string) (DispatchStatus, error) {
	for _, candidate := range validDispatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispatch status %q", value)
}
