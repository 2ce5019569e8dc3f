package utils

import "time"

// StartOfDay возвращает ту же дату с временем 00:00, таймзона остается прежней.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtHour возвращает ту же дату с временем hour:00, таймзона остается прежней.
func AtHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
