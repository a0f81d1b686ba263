// ABOUTME: iCalendar export of appointments
// ABOUTME: Writes one VEVENT per appointment using the same time window as calendar push
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/harperreed/portal/gcal"
	"github.com/harperreed/portal/models"
)

const productID = "-//harperreed//portal agenda//EN"

var icsPriorities = map[string]string{
	models.PriorityHigh:   "1",
	models.PriorityMedium: "5",
	models.PriorityLow:    "9",
}

// UID returns the stable VEVENT uid for an appointment. Synced appointments
// reuse their calendar event id so re-importing elsewhere does not duplicate.
func UID(appt models.Appointment) string {
	if appt.ExternalEventID != "" {
		return appt.ExternalEventID
	}
	return fmt.Sprintf("portal-appointment-%d", appt.ID)
}

// BuildCalendar converts appointments into an iCalendar document.
func BuildCalendar(appts []models.Appointment, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Portal agenda")

	for _, appt := range appts {
		start, end := gcal.EventWindow(appt)

		event := cal.AddEvent(UID(appt))
		event.SetDtStampTime(now.UTC())
		event.SetStartAt(start.UTC())
		event.SetEndAt(end.UTC())
		event.SetSummary(appt.Title)
		if desc := gcal.ComposeDescription(appt); desc != "" {
			event.SetDescription(desc)
		}
		if !appt.UpdatedAt.IsZero() {
			event.SetModifiedAt(appt.UpdatedAt.UTC())
		}

		if appt.Status == models.StatusCanceled {
			event.SetStatus(ical.ObjectStatusCancelled)
		} else {
			event.SetStatus(ical.ObjectStatusConfirmed)
		}
		event.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(appt.Status))
		if p, ok := icsPriorities[appt.Priority]; ok {
			event.SetProperty(ical.ComponentPropertyPriority, p)
		}

		if appt.ContactEmail != "" {
			event.AddAttendee(appt.ContactEmail, ical.WithCN(appt.ContactName))
		}
	}

	return cal
}

// WriteICS serializes appointments as an .ics document to w.
func WriteICS(w io.Writer, appts []models.Appointment, now time.Time) error {
	if err := BuildCalendar(appts, now).SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}
