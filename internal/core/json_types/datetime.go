package json_types

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	localDateTimeLayout = "2006-01-02T15:04:05"
	localDateLayout     = "2006-01-02"
	compactLayout       = "20060102T150405"
)

func parseLocal(str string) (time.Time, error) {
	// Сначала пробуем плавающее локальное время, потом RFC3339, потом голую дату
	parsed, err := time.ParseInLocation(localDateTimeLayout, str, time.Local)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, str)
		if err != nil {
			parsed, err = time.ParseInLocation(localDateLayout, str, time.Local)
			if err != nil {
				return time.Time{}, fmt.Errorf("failed to parse datetime: %v", err)
			}
		}
	}

	return parsed, nil
}

// LocalDateTime - плавающее локальное время без таймзоны на проводе.
// Календарные ссылки и ответы API используют именно его: пользователь
// воспринимает "14:00" как свои 14:00 независимо от зоны сервера.
type LocalDateTime struct {
	Time time.Time
}

func (t *LocalDateTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Убираем кавычки вокруг строки
	str := string(data[1 : len(data)-1])

	parsed, err := parseLocal(str)
	if err != nil {
		return err
	}

	*t = LocalDateTime{Time: parsed}
	return nil
}

func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(localDateTimeLayout))
}

// Compact возвращает формат YYYYMMDDTHHMMSS для параметра dates
// календарных deep-link'ов.
func (t LocalDateTime) Compact() string {
	return t.Time.Format(compactLayout)
}

// LocalDate - только дата, без времени.
type LocalDate struct {
	Time time.Time
}

func (t *LocalDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	str := string(data[1 : len(data)-1])

	parsed, err := parseLocal(str)
	if err != nil {
		return err
	}

	*t = LocalDate{Time: parsed}
	return nil
}

func (t LocalDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(localDateLayout))
}
