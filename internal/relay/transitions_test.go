package relay

import (
	"testing"

	"github.com/neture-platform/relay-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    enums.RelayStatus
		to      enums.RelayStatus
		allowed bool
	}{
		{"pending to imported", enums.RelayStatusImportPending, enums.RelayStatusImported, true},
		{"pending to failed", enums.RelayStatusImportPending, enums.RelayStatusFailed, true},
		{"failed retries to pending", enums.RelayStatusFailed, enums.RelayStatusImportPending, true},
		{"imported to dispatched", enums.RelayStatusImported, enums.RelayStatusDispatched, true},
		{"imported to cancelled", enums.RelayStatusImported, enums.RelayStatusCancelled, true},
		{"dispatched to fulfilled", enums.RelayStatusDispatched, enums.RelayStatusFulfilled, true},
		{"dispatched to cancelled", enums.RelayStatusDispatched, enums.RelayStatusCancelled, true},
		{"pending cannot dispatch", enums.RelayStatusImportPending, enums.RelayStatusDispatched, false},
		{"fulfilled is terminal", enums.RelayStatusFulfilled, enums.RelayStatusCancelled, false},
		{"cancelled is terminal", enums.RelayStatusCancelled, enums.RelayStatusImported, false},
		{"imported cannot fulfill directly", enums.RelayStatusImported, enums.RelayStatusFulfilled, false},
		{"failed cannot cancel", enums.RelayStatusFailed, enums.RelayStatusCancelled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestActionFor(t *testing.T) {
	cases := []struct {
		to     enums.RelayStatus
		action enums.RelayAction
	}{
		{enums.RelayStatusImported, enums.RelayActionImported},
		{enums.RelayStatusFailed, enums.RelayActionImportFailed},
		{enums.RelayStatusImportPending, enums.RelayActionRetried},
		{enums.RelayStatusDispatched, enums.RelayActionDispatched},
		{enums.RelayStatusFulfilled, enums.RelayActionFulfilled},
		{enums.RelayStatusCancelled, enums.RelayActionCancelled},
	}
	for _, tc := range cases {
		if got := actionFor(enums.RelayStatusImported, tc.to); got != tc.action {
			t.Fatalf("actionFor(_, %s) = %s, want %s", tc.to, got, tc.action)
		}
	}
}

func TestEventFor(t *testing.T) {
	cases := []struct {
		to    enums.RelayStatus
		event enums.OutboxEventType
	}{
		{enums.RelayStatusImported, enums.EventOrderRelayImported},
		{enums.RelayStatusFailed, enums.EventOrderRelayFailed},
		{enums.RelayStatusImportPending, enums.EventOrderRelayRetried},
		{enums.RelayStatusDispatched, enums.EventOrderRelayDispatched},
		{enums.RelayStatusFulfilled, enums.EventOrderRelayFulfilled},
		{enums.RelayStatusCancelled, enums.EventOrderRelayCancelled},
	}
	for _, tc := range cases {
		if got := eventFor(tc.to); got != tc.event {
			t.Fatalf("eventFor(%s) = %s, want %s", tc.to, got, tc.event)
		}
	}
}
