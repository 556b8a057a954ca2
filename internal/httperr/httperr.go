package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"not_authenticated":        "Please sign in to book an appointment.",
	"no_booking_destination":   "Booking destination missing. Please try another profile.",
	"ambiguous_destination":    "Choose either a shop or a barber, not both.",
	"service_required":         "Choose a service first.",
	"slot_required":            "Choose a time slot first.",
	"slot_off_grid":            "That time is not one of the offered slots.",
	"slot_unavailable":         "Slot no longer available. Please choose another time.",
	"service_not_found":        "Service not found.",
	"provider_not_found":       "Shop or barber not found.",
	"appointment_not_found":    "Appointment not found.",
	"already_resolved":         "Appointment is already completed or cancelled.",
	"invalid_status":           "Status must be completed or cancelled.",
	"forbidden":                "You can only manage your own appointments.",
	"availability_unavailable": "Unable to load availability. Please try again.",
	"schedule_unavailable":     "Error fetching schedule. Please try again.",
	"booking_failed":           "Unable to confirm booking. Please try again.",
	"update_failed":            "Update failed. Please try again.",
	"break_already_pending":    "A break request is already waiting for approval.",
	"already_on_break":         "You are already on break.",
	"barber_busy":              "Complete your current appointment to change status.",
	"not_on_break":             "You are not on break.",
	"break_request_not_found":  "Break request not found.",
	"barber_not_found":         "Barber not found.",
	"invalid_duration":         "Break duration must be positive.",
	"break_unavailable":        "Break status is unavailable. Please try again.",
	"services_unavailable":     "Unable to load services. Please try again.",
	"break_not_resolved":       "Break request is still waiting for approval.",
	"invalid_input":            "Invalid input.",
	"invalid_date":             "Date must be YYYY-MM-DD.",
	"invalid_credentials":      "Invalid email or password.",
	"email_taken":              "Email already registered.",
	"invalid_email":            "Email domain does not exist.",
	"name_required":            "Name is required.",
	"email_required":           "A valid email is required.",
	"password_required":        "Password must have at least 6 characters.",
	"slug_required":            "Barbershop slug is required.",
	"slug_taken":               "Barbershop slug already in use.",
	"invalid_timezone":         "Unknown timezone.",
	"invalid_window":           "Opening hours or slot length are invalid.",
	"invalid_price":            "Price must be zero or positive.",
	"invalid_service_duration": "Service duration must be positive.",
	"register_failed":          "Unable to create account. Please try again.",
	"internal_error":           "Unexpected error.",
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// Respond maps err onto the response. Unknown errors become a generic 500 so
// store internals never leak to the client.
func Respond(c *gin.Context, err error) {
	var be BusinessError
	if !errors.As(err, &be) {
		Internal(c, "internal_error", "Unexpected error.")
		return
	}

	msg, ok := messages[be.Code]
	if !ok {
		msg = be.Code
	}
	Write(c, StatusFor(be.Kind), be.Code, msg)
}

func Message(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return code
}
