package breakstatus

import "testing"

func TestReconcile(t *testing.T) {
	tests := []struct {
		stored  Status
		pending bool
		want    Status
	}{
		{StatusAvailable, false, StatusAvailable},
		{StatusAvailable, true, StatusBreakRequested},
		{StatusBreakRequested, false, StatusAvailable},
		{StatusBreakRequested, true, StatusBreakRequested},
		{StatusOnBreak, false, StatusOnBreak},
		{StatusBusy, false, StatusBusy},
		{StatusBusy, true, StatusBreakRequested},
		{"", false, StatusAvailable},
		{"garbage", false, StatusAvailable},
	}
	for _, tt := range tests {
		if got := Reconcile(tt.stored, tt.pending); got != tt.want {
			t.Errorf("Reconcile(%q, %v) = %s, want %s", tt.stored, tt.pending, got, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	if got := PendingKey(7); got != "break:pending:7" {
		t.Errorf("PendingKey = %s", got)
	}
	if got := StatusKey(7); got != "barber_status:7" {
		t.Errorf("StatusKey = %s", got)
	}
	if got := RequestKey("abc"); got != "break:request:abc" {
		t.Errorf("RequestKey = %s", got)
	}
	if got := ClaimKey("abc"); got != "break:claim:abc" {
		t.Errorf("ClaimKey = %s", got)
	}
}

func TestRequestInShop(t *testing.T) {
	shop := uint(1)
	if !(Request{ShopID: &shop}).InShop(1) {
		t.Error("request of shop 1 not in shop 1")
	}
	if (Request{ShopID: &shop}).InShop(99) {
		t.Error("request of shop 1 in shop 99")
	}
	if (Request{}).InShop(1) {
		t.Error("request without shop matched")
	}
}
