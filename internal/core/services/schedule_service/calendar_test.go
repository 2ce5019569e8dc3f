package schedule_service

import (
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/json_types"
)

func testSpan(start time.Time, d time.Duration) domain.Span {
	return domain.Span{
		Start: json_types.LocalDateTime{Time: start},
		End:   json_types.LocalDateTime{Time: start.Add(d)},
	}
}

func TestBuildGoogleCalendarLink_EncodingRoundTrip(t *testing.T) {
	sp := testSpan(time.Date(2024, 12, 25, 14, 0, 0, 0, time.UTC), time.Hour)

	link := BuildGoogleCalendarLink("A & B", sp, "台北市 信義區", "請記得回診前一週抽血")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", parsed.Host)
	assert.Equal(t, "/calendar/render", parsed.Path)

	// Декодирование query восстанавливает исходные строки байт в байт
	query, err := url.ParseQuery(parsed.RawQuery)
	require.NoError(t, err)
	assert.Equal(t, "TEMPLATE", query.Get("action"))
	assert.Equal(t, "A & B", query.Get("text"))
	assert.Equal(t, "台北市 信義區", query.Get("location"))
	assert.Equal(t, "請記得回診前一週抽血", query.Get("details"))
}

func TestBuildGoogleCalendarLink_CompactTimestamps(t *testing.T) {
	sp := testSpan(time.Date(2024, 1, 5, 8, 5, 0, 0, time.UTC), 30*time.Minute)

	link := BuildGoogleCalendarLink("title", sp, "", "")

	query, err := url.ParseQuery(strings.SplitN(link, "?", 2)[1])
	require.NoError(t, err)

	// Плавающее локальное время: нули ведущие, без разделителей и суффикса зоны
	dates := query.Get("dates")
	assert.Regexp(t, regexp.MustCompile(`^\d{8}T\d{6}/\d{8}T\d{6}$`), dates)
	assert.Equal(t, "20240105T080500/20240105T083500", dates)
}

func TestCalendarLinks_PerKindTemplates(t *testing.T) {
	details := domain.AppointmentDetails{
		Title:             "台大醫院 心臟內科",
		Date:              "2024-12-25",
		Time:              "14:00",
		Location:          "台北市中正區中山南路7號",
		Doctor:            "王大明",
		Notes:             "攜帶健保卡",
		AppointmentNumber: "42",
	}

	schedule, ok := ScheduleFor(details, testNow)
	require.True(t, ok)

	links := CalendarLinks(details, schedule)
	require.Len(t, links, 3)

	byKind := map[domain.EventKind]domain.CalendarLink{}
	for _, link := range links {
		byKind[link.Kind] = link
	}

	assert.Equal(t, "【回診】台大醫院 心臟內科 (診號: 42)", byKind[domain.EventKindVisit].Title)
	assert.Equal(t, "【抽血】台大醫院 心臟內科 檢查", byKind[domain.EventKindBloodTest].Title)
	assert.Equal(t, "【提醒】預約抽血 (台大醫院 心臟內科)", byKind[domain.EventKindReminder].Title)

	visitQuery, err := url.ParseQuery(strings.SplitN(byKind[domain.EventKindVisit].URL, "?", 2)[1])
	require.NoError(t, err)
	assert.Contains(t, visitQuery.Get("details"), "攜帶健保卡")
	assert.Contains(t, visitQuery.Get("details"), "醫師: 王大明")
	assert.Equal(t, details.Location, visitQuery.Get("location"))

	// У напоминания места нет
	reminderQuery, err := url.ParseQuery(strings.SplitN(byKind[domain.EventKindReminder].URL, "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, "", reminderQuery.Get("location"))
}

func TestCalendarLinks_MissingFieldsFallBack(t *testing.T) {
	details := domain.AppointmentDetails{
		Date: "2024-12-25",
	}

	schedule, ok := ScheduleFor(details, testNow)
	require.True(t, ok)

	links := CalendarLinks(details, schedule)
	require.Len(t, links, 3)

	for _, link := range links {
		if link.Kind == domain.EventKindVisit {
			assert.Equal(t, "【回診】醫療預約 (診號: 未指定)", link.Title)

			query, err := url.ParseQuery(strings.SplitN(link.URL, "?", 2)[1])
			require.NoError(t, err)
			assert.Contains(t, query.Get("details"), "醫師: 未指定")
		}
	}
}
