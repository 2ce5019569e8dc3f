package schedule_service

import (
	"time"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/json_types"
	"github.com/healthguardian/appointment-planner/internal/utils"
)

// Политика план-графика. Значения из продуктового решения "анализ крови за
// неделю до приёма, предупреждение за три недели до анализа", а не из
// вычислений - поэтому именованные константы.
const (
	BloodTestLeadDays = 7
	ReminderLeadDays  = 21

	BloodTestHour = 9
	ReminderHour  = 9

	VisitDuration     = 60 * time.Minute
	BloodTestDuration = 60 * time.Minute
	ReminderDuration  = 30 * time.Minute
)

// DeriveEvents строит план из трёх событий от момента визита. Для нулевого
// момента возвращает (пусто, false) - частично заполненного плана не бывает.
func DeriveEvents(visit time.Time) (domain.AppointmentSchedule, bool) {
	if visit.IsZero() {
		return domain.AppointmentSchedule{}, false
	}

	bloodTest := utils.AtHour(visit.AddDate(0, 0, -BloodTestLeadDays), BloodTestHour)
	reminder := utils.AtHour(bloodTest.AddDate(0, 0, -ReminderLeadDays), ReminderHour)

	return domain.AppointmentSchedule{
		Visit:     span(visit, VisitDuration),
		BloodTest: span(bloodTest, BloodTestDuration),
		Reminder:  span(reminder, ReminderDuration),
	}, true
}

// ScheduleFor - разбор свободного текста даты/времени и построение плана
// одним вызовом.
func ScheduleFor(details domain.AppointmentDetails, now time.Time) (domain.AppointmentSchedule, bool) {
	visit, ok := ParseVisitDateTimeAt(details.Date, details.Time, now)
	if !ok {
		return domain.AppointmentSchedule{}, false
	}
	return DeriveEvents(visit)
}

func span(start time.Time, d time.Duration) domain.Span {
	return domain.Span{
		Start: json_types.LocalDateTime{Time: start},
		End:   json_types.LocalDateTime{Time: start.Add(d)},
	}
}
