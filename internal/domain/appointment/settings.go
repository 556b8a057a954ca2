package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// Settings is the operating day of a provider: opening hours, slot cadence
// and the timezone that defines its calendar day.
type Settings struct {
	Location       *time.Location
	StartHour      int
	EndHour        int
	CadenceMinutes int
}

// SettingsFromShop falls back to the defaults for every unset field. A nil
// shop (independent barber) gets the defaults entirely.
func SettingsFromShop(shop *models.Barbershop) Settings {
	s := Settings{
		Location:       timezone.Location(""),
		StartHour:      DefaultStartHour,
		EndHour:        DefaultEndHour,
		CadenceMinutes: DefaultCadenceMinutes,
	}
	if shop == nil {
		return s
	}

	s.Location = timezone.Location(shop.Timezone)
	if shop.OpenHour > 0 {
		s.StartHour = shop.OpenHour
	}
	if shop.CloseHour > 0 {
		s.EndHour = shop.CloseHour
	}
	if shop.SlotMinutes > 0 {
		s.CadenceMinutes = shop.SlotMinutes
	}
	return s
}

// WindowFor pins the settings to the calendar day of date, read from date's
// own year, month and day. Convert instants with In(s.Location) first.
func (s Settings) WindowFor(date time.Time) Window {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return Window{
		Date:           time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc),
		StartHour:      s.StartHour,
		EndHour:        s.EndHour,
		CadenceMinutes: s.CadenceMinutes,
	}
}

// Today is the provider-local calendar day containing now.
func (s Settings) Today(now time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc)
}
