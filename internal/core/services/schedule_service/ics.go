package schedule_service

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
)

// BuildICS сериализует план приёма в календарь iCalendar - для пользователей
// не на Google Calendar. UID события стабилен относительно id записи, повторный
// импорт после редактирования обновляет события, а не плодит дубликаты.
func BuildICS(appointment domain.SavedAppointment, schedule domain.AppointmentSchedule) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Health Guardian//Appointment Planner//ZH")

	kinds := []domain.EventKind{
		domain.EventKindReminder,
		domain.EventKindBloodTest,
		domain.EventKindVisit,
	}

	for _, kind := range kinds {
		content := contentFor(kind, appointment.AppointmentDetails)
		sp := schedule.SpanFor(kind)

		event := cal.AddEvent(fmt.Sprintf("%s-%s@health-guardian", appointment.ID, kind))
		event.SetDtStampTime(time.Now())
		event.SetStartAt(sp.Start.Time)
		event.SetEndAt(sp.End.Time)
		event.SetSummary(content.title)
		event.SetDescription(content.details)
		if content.location != "" {
			event.SetLocation(content.location)
		}
	}

	return cal.Serialize()
}
