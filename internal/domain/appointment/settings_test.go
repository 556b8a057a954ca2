package appointment

import (
	"testing"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

func TestSettingsFromShopDefaults(t *testing.T) {
	s := SettingsFromShop(nil)
	if s.StartHour != 9 || s.EndHour != 18 || s.CadenceMinutes != 30 {
		t.Fatalf("defaults = %+v", s)
	}
	if s.Location == nil {
		t.Fatal("location is nil")
	}
}

func TestSettingsFromShopOverrides(t *testing.T) {
	s := SettingsFromShop(&models.Barbershop{
		Timezone:    "America/New_York",
		OpenHour:    10,
		CloseHour:   20,
		SlotMinutes: 15,
	})
	if s.StartHour != 10 || s.EndHour != 20 || s.CadenceMinutes != 15 {
		t.Fatalf("settings = %+v", s)
	}
	if s.Location.String() != "America/New_York" {
		t.Fatalf("location = %s", s.Location)
	}
}

func TestWindowForKeepsCalendarDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	s := Settings{Location: loc, StartHour: 9, EndHour: 18, CadenceMinutes: 30}

	// a date parsed as UTC midnight must stay on the same calendar day
	w := s.WindowFor(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	if w.Date.Day() != 10 || w.Date.Location() != loc {
		t.Fatalf("window date = %v", w.Date)
	}
	if !w.Start().Equal(time.Date(2024, 6, 10, 9, 0, 0, 0, loc)) {
		t.Fatalf("start = %v", w.Start())
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	s := Settings{Location: loc}

	// 01:00 UTC on the 11th is still the 10th in BRT
	today := s.Today(time.Date(2024, 6, 11, 1, 0, 0, 0, time.UTC))
	if today.Day() != 10 {
		t.Fatalf("today = %v, want the 10th", today)
	}
}
