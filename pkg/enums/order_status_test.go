package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelling, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusProcessing, OrderStatusDelivered, true},
		{OrderStatusProcessing, OrderStatusCancelling, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusCompleted, true},
		{OrderStatusDelivered, OrderStatusCancelling, false},
		{OrderStatusCancelling, OrderStatusCancelled, true},
		{OrderStatusCancelling, OrderStatusProcessing, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	t.Parallel()

	for _, status := range validOrderStatuses {
		terminal := status == OrderStatusCompleted || status == OrderStatusCancelled
		if got := status.IsTerminal(); got != terminal {
			t.Fatalf("%s IsTerminal() = %v, want %v", status, got, terminal)
		}
	}

	if OrderStatus("shipped").IsTerminal() {
		t.Fatal("unknown status must not report terminal")
	}
}

func TestParseOrderStatus(t *testing.T) {
	t.Parallel()

	status, err := ParseOrderStatus("cancelling")
	if err != nil {
		t.Fatalf("ParseOrderStatus returned unexpected error: %v", err)
	}
	if status != OrderStatusCancelling {
		t.Fatalf("unexpected status %q", status)
	}

	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
