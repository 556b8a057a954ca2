package appointment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/events"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
)

func newBook(repo *repository.AppointmentMemoryRepository, pub events.Publisher) *Book {
	return NewBook(repo, identity.ContextProvider{}, domain.Policy{}, nil, pub).
		WithClock(fixedClock(at(7, 0)))
}

func TestBookSuccess(t *testing.T) {
	repo, _ := newRepo(t)
	rec := events.NewRecorder(4)
	uc := newBook(repo, rec)

	booked, err := uc.Execute(as(client), BookInput{
		Provider:  domain.ShopRef(shopID),
		ServiceID: beardID,
		Slot:      at(10, 0),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	ap := booked.Appointment
	if ap.ID == 0 || ap.Status != string(domain.StatusScheduled) || ap.ClientID != clientID {
		t.Fatalf("appointment = %+v", ap)
	}
	if ap.ShopID == nil || *ap.ShopID != shopID || ap.BarberID != nil {
		t.Fatal("appointment not attached to the shop only")
	}
	if !booked.EndTime.Equal(at(10, 45)) {
		t.Fatalf("end = %v, want 10:45", booked.EndTime)
	}
	if !strings.HasPrefix(booked.CalendarURL, "https://calendar.google.com/") {
		t.Fatalf("calendar url = %q", booked.CalendarURL)
	}

	stored, err := repo.GetAppointment(context.Background(), ap.ID)
	if err != nil || !stored.StartTime.Equal(at(10, 0)) {
		t.Fatalf("stored = %+v, %v", stored, err)
	}

	select {
	case ev := <-rec.Events():
		if ev.Type != events.AppointmentBooked || ev.Data["appointment_id"] != ap.ID {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("no booked event published")
	}
}

func TestBookCheckOrder(t *testing.T) {
	repo, _ := newRepo(t)
	uc := newBook(repo, nil)

	tests := []struct {
		name string
		ctx  context.Context
		in   BookInput
		code string
	}{
		{
			name: "no identity wins over everything",
			ctx:  context.Background(),
			in:   BookInput{},
			code: "not_authenticated",
		},
		{
			name: "no destination",
			ctx:  as(client),
			in:   BookInput{ServiceID: haircutID, Slot: at(10, 0)},
			code: "no_booking_destination",
		},
		{
			name: "both destinations",
			ctx:  as(client),
			in:   BookInput{Provider: domain.ProviderRef{ShopID: uintPtr(shopID), BarberID: uintPtr(barberID)}, ServiceID: haircutID, Slot: at(10, 0)},
			code: "ambiguous_destination",
		},
		{
			name: "no service",
			ctx:  as(client),
			in:   BookInput{Provider: domain.ShopRef(shopID), Slot: at(10, 0)},
			code: "service_required",
		},
		{
			name: "no slot",
			ctx:  as(client),
			in:   BookInput{Provider: domain.ShopRef(shopID), ServiceID: haircutID},
			code: "slot_required",
		},
		{
			name: "unknown service",
			ctx:  as(client),
			in:   BookInput{Provider: domain.ShopRef(shopID), ServiceID: 999, Slot: at(10, 0)},
			code: "service_not_found",
		},
		{
			name: "service of another provider",
			ctx:  as(client),
			in:   BookInput{Provider: domain.ShopRef(shopID), ServiceID: barberCut, Slot: at(10, 0)},
			code: "service_not_found",
		},
		{
			name: "off grid",
			ctx:  as(client),
			in:   BookInput{Provider: domain.ShopRef(shopID), ServiceID: haircutID, Slot: at(10, 10)},
			code: "slot_off_grid",
		},
		{
			name: "before opening",
			ctx:  as(client),
			in:   BookInput{Provider: domain.ShopRef(shopID), ServiceID: haircutID, Slot: at(8, 30)},
			code: "slot_off_grid",
		},
		{
			name: "runs past closing",
			ctx:  as(client),
			in:   BookInput{Provider: domain.ShopRef(shopID), ServiceID: beardID, Slot: at(17, 30)},
			code: "slot_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(tt.ctx, tt.in)
			if !httperr.IsBusiness(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBookSlotInAnotherZone(t *testing.T) {
	repo, _ := newRepo(t)
	uc := newBook(repo, nil)

	// 07:00 in UTC-3 is 10:00 in the shop's UTC day
	slot := time.Date(2024, 6, 10, 7, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	booked, err := uc.Execute(as(client), BookInput{Provider: domain.ShopRef(shopID), ServiceID: haircutID, Slot: slot})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !booked.Appointment.StartTime.Equal(at(10, 0)) {
		t.Fatalf("start = %v", booked.Appointment.StartTime)
	}
}

func TestBookRejectsTakenSlot(t *testing.T) {
	repo, _ := newRepo(t)
	scheduled(repo, domain.ShopRef(shopID), beardID, at(10, 0))
	uc := newBook(repo, nil)

	for _, slot := range []time.Time{at(10, 0), at(10, 30), at(9, 30)} {
		svc := haircutID
		if slot.Equal(at(9, 30)) {
			svc = beardID // 09:30-10:15
		}
		_, err := uc.Execute(as(client), BookInput{Provider: domain.ShopRef(shopID), ServiceID: svc, Slot: slot})
		if !httperr.IsBusiness(err, "slot_unavailable") || !httperr.IsKind(err, httperr.KindConflict) {
			t.Fatalf("%s: err = %v, want slot_unavailable", slot.Format("15:04"), err)
		}
	}

	// adjacent slot is fine
	if _, err := uc.Execute(as(client), BookInput{Provider: domain.ShopRef(shopID), ServiceID: haircutID, Slot: at(11, 0)}); err != nil {
		t.Fatalf("11:00: %v", err)
	}
}

func TestBookPastSlot(t *testing.T) {
	repo, _ := newRepo(t)
	uc := NewBook(repo, identity.ContextProvider{}, domain.Policy{}, nil, nil).
		WithClock(fixedClock(at(12, 0).Add(time.Second)))

	_, err := uc.Execute(as(client), BookInput{Provider: domain.ShopRef(shopID), ServiceID: haircutID, Slot: at(12, 0)})
	if !httperr.IsBusiness(err, "slot_unavailable") {
		t.Fatalf("err = %v, want slot_unavailable", err)
	}
}

func TestBookConcurrentSameSlot(t *testing.T) {
	repo, _ := newRepo(t)
	uc := newBook(repo, nil)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := uc.Execute(as(client), BookInput{Provider: domain.BarberRef(barberID), ServiceID: barberCut, Slot: at(15, 0)})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case httperr.IsBusiness(err, "slot_unavailable"):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 || conflicts != attempts-1 {
		t.Fatalf("successes=%d conflicts=%d, want 1 and %d", successes, conflicts, attempts-1)
	}
}

func TestBookConcurrentOverlappingSlots(t *testing.T) {
	repo, _ := newRepo(t)
	uc := newBook(repo, nil)

	// 10:00-10:45 and 10:30-11:00 overlap
	inputs := []BookInput{
		{Provider: domain.ShopRef(shopID), ServiceID: beardID, Slot: at(10, 0)},
		{Provider: domain.ShopRef(shopID), ServiceID: haircutID, Slot: at(10, 30)},
	}

	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = uc.Execute(as(client), in)
		}()
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if httperr.IsBusiness(err, "slot_unavailable") {
			conflict++
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("errors = %v, want exactly one success and one conflict", errs)
	}

	list, _ := repo.ListScheduled(context.Background(), domain.ShopRef(shopID), day, day.AddDate(0, 0, 1))
	busy := domain.BusyIntervals(list)
	for i := range busy {
		for j := i + 1; j < len(busy); j++ {
			if domain.Overlaps(busy[i], busy[j]) {
				t.Fatalf("scheduled intervals overlap: %v and %v", busy[i], busy[j])
			}
		}
	}
}

func TestBookStoreFailure(t *testing.T) {
	repo, _ := newRepo(t)
	repo.FailWrites = errors.New("disk full")
	uc := newBook(repo, nil)

	_, err := uc.Execute(as(client), BookInput{Provider: domain.ShopRef(shopID), ServiceID: haircutID, Slot: at(10, 0)})
	if !httperr.IsKind(err, httperr.KindTransientStore) || !httperr.IsBusiness(err, "booking_failed") {
		t.Fatalf("err = %v, want booking_failed", err)
	}
}
