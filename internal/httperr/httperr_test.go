package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", Validation("slot_required"), http.StatusBadRequest, "slot_required", "Choose a time slot first."},
		{"authentication", Authentication("not_authenticated"), http.StatusUnauthorized, "not_authenticated", "Please sign in to book an appointment."},
		{"conflict", Conflict("slot_unavailable"), http.StatusConflict, "slot_unavailable", "Slot no longer available. Please choose another time."},
		{"not found", NotFoundErr("service_not_found"), http.StatusNotFound, "service_not_found", "Service not found."},
		{"forbidden", Forbidden("forbidden"), http.StatusForbidden, "forbidden", "You can only manage your own appointments."},
		{"transient", TransientStore("booking_failed", errors.New("pq: timeout")), http.StatusServiceUnavailable, "booking_failed", "Unable to confirm booking. Please try again."},
		{"wrapped", fmt.Errorf("book: %w", Conflict("already_resolved")), http.StatusConflict, "already_resolved", "Appointment is already completed or cancelled."},
		{"unknown code", Validation("weird"), http.StatusBadRequest, "weird", "weird"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error", "Unexpected error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Respond(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body HTTPError
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code || body.Message != tt.message {
				t.Fatalf("body = %+v", body)
			}
		})
	}
}

func TestTransientStoreKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := TransientStore("schedule_unavailable", cause)

	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
	if !IsKind(err, KindTransientStore) || !IsBusiness(err, "schedule_unavailable") {
		t.Fatalf("classification lost: %v", err)
	}
	if IsBusiness(cause, "schedule_unavailable") {
		t.Fatal("plain error classified as business error")
	}
}
