package feed

import (
	"testing"
	"time"
)

func receive(t *testing.T, sub *Subscription) (Change, bool) {
	t.Helper()
	select {
	case c, ok := <-sub.C:
		return c, ok
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
		return Change{}, false
	}
}

func TestHubFiltersByProvider(t *testing.T) {
	h := NewHub()
	shop := h.SubscribeProvider("shop:1")
	barber := h.SubscribeProvider("barber:2")
	all := h.Subscribe(nil)
	defer shop.Close()
	defer barber.Close()
	defer all.Close()

	h.Publish(Change{Op: OpInsert, AppointmentID: 7, ProviderKeys: []string{"shop:1"}})

	c, _ := receive(t, shop)
	if c.AppointmentID != 7 || c.At.IsZero() {
		t.Fatalf("change = %+v", c)
	}
	if c, _ := receive(t, all); c.AppointmentID != 7 {
		t.Fatalf("catch-all got %+v", c)
	}

	select {
	case c := <-barber.C:
		t.Fatalf("barber subscriber got %+v", c)
	default:
	}
}

func TestHubCloseStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := h.SubscribeProvider("shop:1")
	sub.Close()
	sub.Close()

	if _, ok := <-sub.C; ok {
		t.Fatal("channel still open after Close")
	}
	h.Publish(Change{ProviderKeys: []string{"shop:1"}})
}

func TestHubNeverBlocksPublisher(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(nil)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Publish(Change{AppointmentID: uint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestChangeTouches(t *testing.T) {
	c := Change{ProviderKeys: []string{"shop:1", "barber:2"}}
	if !c.Touches("barber:2") || c.Touches("barber:3") {
		t.Fatal("Touches mismatch")
	}
}
