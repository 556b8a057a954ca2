package appointment

import (
	"net/url"
	"time"
)

const gcalLayout = "20060102T150405Z"

// CalendarURL builds a Google Calendar "add event" link for a booked slot.
func CalendarURL(title string, start, end time.Time) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", title)
	q.Set("dates", start.UTC().Format(gcalLayout)+"/"+end.UTC().Format(gcalLayout))
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
