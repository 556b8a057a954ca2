package dto

import (
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type AppointmentListDTO struct {
	ID              uint      `json:"id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	ClientName      string    `json:"client_name"`
	ServiceName     string    `json:"service_name"`
	DurationMinutes int       `json:"duration_minutes"`
}

// FromAppointment derives the end time from the joined service.
func FromAppointment(ap models.Appointment) AppointmentListDTO {
	busy := domain.BusyInterval(ap)
	out := AppointmentListDTO{
		ID:              ap.ID,
		StartTime:       busy.Start,
		EndTime:         busy.End,
		Status:          ap.Status,
		ClientName:      ap.Client.Name,
		DurationMinutes: domain.DurationOf(ap),
	}
	if ap.Service != nil {
		out.ServiceName = ap.Service.Name
	}
	return out
}

func FromAppointments(aps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, FromAppointment(ap))
	}
	return out
}
