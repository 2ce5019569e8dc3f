package schedule_service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
)

const googleCalendarBase = "https://calendar.google.com/calendar/render"

const unspecified = "未指定"

// eventContent - заголовок/описание/место одного события. Тексты на
// традиционном китайском - язык пользователей приложения.
type eventContent struct {
	title    string
	details  string
	location string
}

func contentFor(kind domain.EventKind, details domain.AppointmentDetails) eventContent {
	title := strings.TrimSpace(details.Title)
	if title == "" {
		title = "醫療預約"
	}

	switch kind {
	case domain.EventKindBloodTest:
		return eventContent{
			title:    fmt.Sprintf("【抽血】%s 檢查", title),
			details:  "請記得回診前一週抽血",
			location: details.Location,
		}

	case domain.EventKindReminder:
		return eventContent{
			title:   fmt.Sprintf("【提醒】預約抽血 (%s)", title),
			details: "還有三週抽血，請多吃清淡食物與運動",
		}

	default:
		number := strings.TrimSpace(details.AppointmentNumber)
		if number == "" {
			number = unspecified
		}
		doctor := strings.TrimSpace(details.Doctor)
		if doctor == "" {
			doctor = unspecified
		}
		return eventContent{
			title:    fmt.Sprintf("【回診】%s (診號: %s)", title, number),
			details:  fmt.Sprintf("%s\n醫師: %s", details.Notes, doctor),
			location: details.Location,
		}
	}
}

// BuildGoogleCalendarLink собирает deep-link на страницу создания события.
// Метки времени - плавающее локальное время без суффикса зоны, свободный
// текст кодируется стандартным query-encoding.
func BuildGoogleCalendarLink(title string, sp domain.Span, location, details string) string {
	query := url.Values{}
	query.Set("action", "TEMPLATE")
	query.Set("text", title)
	query.Set("dates", sp.Start.Compact()+"/"+sp.End.Compact())
	query.Set("details", details)
	query.Set("location", location)

	return googleCalendarBase + "?" + query.Encode()
}

// CalendarLinks возвращает ссылки для всех трёх событий плана в порядке
// наступления: напоминание, забор крови, визит.
func CalendarLinks(details domain.AppointmentDetails, schedule domain.AppointmentSchedule) []domain.CalendarLink {
	kinds := []domain.EventKind{
		domain.EventKindReminder,
		domain.EventKindBloodTest,
		domain.EventKindVisit,
	}

	links := make([]domain.CalendarLink, 0, len(kinds))
	for _, kind := range kinds {
		content := contentFor(kind, details)
		links = append(links, domain.CalendarLink{
			Kind:  kind,
			Title: content.title,
			URL:   BuildGoogleCalendarLink(content.title, schedule.SpanFor(kind), content.location, content.details),
		})
	}

	return links
}
