package domain

import (
	"github.com/healthguardian/appointment-planner/internal/core/json_types"
)

type EventKind string

const (
	EventKindVisit     EventKind = "visit"
	EventKindBloodTest EventKind = "blood_test"
	EventKindReminder  EventKind = "reminder"
)

// Span - интервал одного календарного события.
type Span struct {
	Start json_types.LocalDateTime `json:"start"`
	End   json_types.LocalDateTime `json:"end"`
}

// AppointmentSchedule - производный план из трёх событий для одного приёма:
// напоминание, забор крови, сам визит. Считается заново при каждом запросе,
// никогда не сохраняется.
type AppointmentSchedule struct {
	Visit     Span `json:"visit"`
	BloodTest Span `json:"bloodTest"`
	Reminder  Span `json:"reminder"`
}

func (s AppointmentSchedule) SpanFor(kind EventKind) Span {
	switch kind {
	case EventKindBloodTest:
		return s.BloodTest
	case EventKindReminder:
		return s.Reminder
	default:
		return s.Visit
	}
}

// CalendarLink - готовая ссылка "добавить в календарь" для одного события.
type CalendarLink struct {
	Kind  EventKind `json:"kind"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
}

// CalendarEntry - элемент развёрнутой календарной ленты по всем сохранённым
// приёмам (визиты, заборы крови и напоминания вперемешку, по датам).
type CalendarEntry struct {
	Date        json_types.LocalDate `json:"date"`
	Kind        EventKind            `json:"kind"`
	Appointment SavedAppointment     `json:"appointment"`
}
