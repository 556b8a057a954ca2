package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

func TestListDayOrderedWithAllStatuses(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)

	late := scheduled(repo, shop, haircutID, at(15, 0))
	early := scheduled(repo, shop, beardID, at(9, 0))
	done := scheduled(repo, shop, haircutID, at(11, 0))
	done.Status = string(domain.StatusCompleted)
	repo.AddAppointment(done)
	scheduled(repo, shop, haircutID, at(9, 0).AddDate(0, 0, 1)) // next day

	uc := NewListDay(repo).WithClock(fixedClock(at(12, 0)))
	schedule, err := uc.Execute(context.Background(), shop, day)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if schedule.Date != "2024-06-10" {
		t.Fatalf("date = %s", schedule.Date)
	}
	if len(schedule.Appointments) != 3 {
		t.Fatalf("got %d appointments, want 3", len(schedule.Appointments))
	}
	if schedule.Appointments[0].ID != early.ID || schedule.Appointments[2].ID != late.ID {
		t.Fatal("appointments not ordered by start")
	}
	if schedule.Appointments[1].Status != "completed" {
		t.Fatalf("middle status = %s", schedule.Appointments[1].Status)
	}
	if !schedule.Appointments[0].EndTime.Equal(at(9, 45)) {
		t.Fatalf("derived end = %v", schedule.Appointments[0].EndTime)
	}
	if schedule.Appointments[0].ClientName != "Carla" || schedule.Appointments[0].ServiceName != "Beard" {
		t.Fatalf("joined names = %q / %q", schedule.Appointments[0].ClientName, schedule.Appointments[0].ServiceName)
	}

	if schedule.NextUp == nil || schedule.NextUp.ID != late.ID {
		t.Fatalf("next up = %+v", schedule.NextUp)
	}
	if schedule.MinutesUntilNext != 180 {
		t.Fatalf("minutes until next = %d", schedule.MinutesUntilNext)
	}
}

func TestListDayDefaultsToToday(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)
	scheduled(repo, shop, haircutID, at(9, 0))

	uc := NewListDay(repo).WithClock(fixedClock(at(8, 0)))
	schedule, err := uc.Execute(context.Background(), shop, time.Time{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if schedule.Date != "2024-06-10" || len(schedule.Appointments) != 1 {
		t.Fatalf("schedule = %+v", schedule)
	}
}

func TestListDayFailsClosed(t *testing.T) {
	repo, _ := newRepo(t)
	repo.FailReads = errors.New("no route to host")

	schedule, err := NewListDay(repo).Execute(context.Background(), domain.ShopRef(shopID), day)
	if !httperr.IsBusiness(err, "schedule_unavailable") {
		t.Fatalf("err = %v, want schedule_unavailable", err)
	}
	if schedule == nil || len(schedule.Appointments) != 0 {
		t.Fatalf("schedule = %+v, want empty", schedule)
	}
}

func TestListMonth(t *testing.T) {
	repo, _ := newRepo(t)
	shop := domain.ShopRef(shopID)
	scheduled(repo, shop, haircutID, at(9, 0))
	scheduled(repo, shop, haircutID, time.Date(2024, 6, 30, 17, 0, 0, 0, time.UTC))
	scheduled(repo, shop, haircutID, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))

	list, err := NewListMonth(repo).Execute(context.Background(), shop, 2024, 6)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d, want 2", len(list))
	}

	if _, err := NewListMonth(repo).Execute(context.Background(), shop, 2024, 13); !httperr.IsBusiness(err, "invalid_date") {
		t.Fatalf("month 13: %v", err)
	}
}

func TestListServices(t *testing.T) {
	repo, _ := newRepo(t)

	services, err := NewListServices(repo).Execute(context.Background(), domain.ShopRef(shopID))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(services) != 2 || services[0].ID != haircutID || services[1].ID != beardID {
		t.Fatalf("services = %+v", services)
	}

	services, _ = NewListServices(repo).Execute(context.Background(), domain.BarberRef(barberID))
	if len(services) != 1 || services[0].ID != barberCut {
		t.Fatalf("barber services = %+v", services)
	}

	if _, err := NewListServices(repo).Execute(context.Background(), domain.ProviderRef{}); !httperr.IsBusiness(err, "no_booking_destination") {
		t.Fatalf("empty provider: %v", err)
	}
}

func TestProviderFor(t *testing.T) {
	if p, err := ProviderFor(barber); err != nil || p.Key() != "barber:2" {
		t.Fatalf("barber: %v %v", p, err)
	}
	if p, err := ProviderFor(owner); err != nil || p.Key() != "shop:1" {
		t.Fatalf("owner: %v %v", p, err)
	}
	if _, err := ProviderFor(client); !httperr.IsBusiness(err, "forbidden") {
		t.Fatalf("client: %v", err)
	}
}
