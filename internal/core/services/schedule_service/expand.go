package schedule_service

import (
	"sort"
	"time"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/json_types"
	"github.com/healthguardian/appointment-planner/internal/utils"
)

// ExpandCalendarEvents разворачивает сохранённые приёмы в плоскую ленту
// событий для календарной сетки. Записи с неразбираемой датой молча
// пропускаются: одна испорченная запись не должна ронять всю ленту.
func ExpandCalendarEvents(appointments []domain.SavedAppointment, now time.Time) []domain.CalendarEntry {
	var entries []domain.CalendarEntry

	for _, appointment := range appointments {
		schedule, ok := ScheduleFor(appointment.AppointmentDetails, now)
		if !ok {
			continue
		}

		for _, kind := range []domain.EventKind{
			domain.EventKindReminder,
			domain.EventKindBloodTest,
			domain.EventKindVisit,
		} {
			entries = append(entries, domain.CalendarEntry{
				Date:        json_types.LocalDate{Time: utils.StartOfDay(schedule.SpanFor(kind).Start.Time)},
				Kind:        kind,
				Appointment: appointment,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Time.Before(entries[j].Date.Time)
	})

	return entries
}

// UpcomingAppointment возвращает ближайший приём с датой сегодня или позже,
// nil если такого нет.
func UpcomingAppointment(appointments []domain.SavedAppointment, now time.Time) *domain.SavedAppointment {
	today := utils.StartOfDay(now)

	var upcoming *domain.SavedAppointment
	var upcomingVisit time.Time

	for i := range appointments {
		visit, ok := ParseVisitDateTimeAt(appointments[i].Date, appointments[i].Time, now)
		if !ok {
			continue
		}
		if utils.StartOfDay(visit).Before(today) {
			continue
		}
		if upcoming == nil || visit.Before(upcomingVisit) {
			upcoming = &appointments[i]
			upcomingVisit = visit
		}
	}

	return upcoming
}
