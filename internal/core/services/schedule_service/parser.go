package schedule_service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/healthguardian/appointment-planner/internal/utils"
)

// Часы по умолчанию, когда время не указано или указано только качественно
// (модель и талоны часто дают "下午診" без конкретного времени).
const (
	DefaultVisitHour    = 9
	AfternoonClinicHour = 14
	EveningClinicHour   = 19
)

var clockRe = regexp.MustCompile(`(\d{1,2})[:：](\d{1,2})`)

var dateDelimiters = strings.NewReplacer(
	"/", "-",
	".", "-",
	"年", "-",
	"月", "-",
	"日", "",
)

// ParseVisitDateTime разбирает свободный текст даты и времени приёма в
// конкретный момент. Второй результат false означает "дата не разбирается" -
// это штатная деградация, не ошибка.
func ParseVisitDateTime(dateStr, timeStr string) (time.Time, bool) {
	return ParseVisitDateTimeAt(dateStr, timeStr, time.Now())
}

// ParseVisitDateTimeAt - то же с явным "сейчас": от него зависит вывод года
// для коротких дат вида "12-05".
func ParseVisitDateTimeAt(dateStr, timeStr string, now time.Time) (time.Time, bool) {
	year, month, day, ok := parseDateTokens(dateStr, now)
	if !ok {
		return time.Time{}, false
	}

	hour, minute := parseClock(timeStr)

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, now.Location())

	// time.Date нормализует переполнение (2024-02-31 -> 2 марта, 25:00 ->
	// следующий день); обратная проверка отбрасывает такие значения
	if t.Year() != year || int(t.Month()) != month || t.Day() != day || t.Hour() != hour {
		return time.Time{}, false
	}

	return t, true
}

func parseDateTokens(dateStr string, now time.Time) (year, month, day int, ok bool) {
	cleaned := dateDelimiters.Replace(strings.TrimSpace(dateStr))

	var tokens []string
	for _, p := range strings.Split(cleaned, "-") {
		if strings.TrimSpace(p) != "" {
			tokens = append(tokens, strings.TrimSpace(p))
		}
	}

	switch len(tokens) {
	case 3:
		year, ok = atoi(tokens[0])
		if !ok {
			return 0, 0, 0, false
		}
		month, ok = atoi(tokens[1])
		if !ok {
			return 0, 0, 0, false
		}
		day, ok = atoi(tokens[2])
		if !ok {
			return 0, 0, 0, false
		}

	case 2:
		// Короткая дата "MM-DD" без года: талоны повторных приёмов часто
		// печатают только месяц и день
		month, ok = atoi(tokens[0])
		if !ok {
			return 0, 0, 0, false
		}
		day, ok = atoi(tokens[1])
		if !ok {
			return 0, 0, 0, false
		}
		year = inferYear(month, day, now)

	case 1:
		// Неразделённая восьмизначная дата YYYYMMDD
		if len(tokens[0]) != 8 {
			return 0, 0, 0, false
		}
		year, ok = atoi(tokens[0][:4])
		if !ok {
			return 0, 0, 0, false
		}
		month, ok = atoi(tokens[0][4:6])
		if !ok {
			return 0, 0, 0, false
		}
		day, ok = atoi(tokens[0][6:8])
		if !ok {
			return 0, 0, 0, false
		}

	default:
		return 0, 0, 0, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, false
	}

	return year, month, day, true
}

// inferYear выбирает ближайшее будущее вхождение короткой даты: кандидат в
// текущем году, а если он уже прошёл (сравнение по дням, сегодняшняя дата ещё
// считается текущим годом) - в следующем. Это эвристика для талонов повторных
// приёмов, а не гарантия.
func inferYear(month, day int, now time.Time) int {
	candidate := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	if candidate.Before(utils.StartOfDay(now)) {
		return now.Year() + 1
	}
	return now.Year()
}

func parseClock(timeStr string) (hour, minute int) {
	hour, minute = DefaultVisitHour, 0

	s := strings.TrimSpace(timeStr)
	if s == "" {
		return hour, minute
	}

	lower := strings.ToLower(s)
	isPM := strings.Contains(s, "下午") || strings.Contains(lower, "pm")
	isAM := strings.Contains(s, "上午") || strings.Contains(lower, "am")

	if m := clockRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		hour, minute = h, mi

		// "下午14:30" не должно превращаться в 26:30, поэтому сдвиг только
		// для часов до 12
		if isPM && hour < 12 {
			hour += 12
		}
		if isAM && hour == 12 {
			hour = 0
		}
		return hour, minute
	}

	// Только качественный маркер без конкретного времени
	switch {
	case isPM || strings.Contains(s, "午後") || strings.Contains(s, "午后"):
		hour = AfternoonClinicHour
	case strings.Contains(s, "晚"):
		hour = EveningClinicHour
	}

	return hour, minute
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
