package in

import (
	"context"
	"time"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
)

type AppointmentUseCase interface {
	// Распознавание фотографии талона в структурированную запись
	ExtractAppointment(ctx context.Context, image []byte, mimeType string) (domain.AppointmentDetails, error)

	// Сохранение: пустой id означает новую запись (id и createdAt назначаются),
	// непустой - редактирование с сохранением createdAt
	SaveAppointment(ctx context.Context, details domain.AppointmentDetails, id string) (domain.SavedAppointment, error)

	DeleteAppointment(ctx context.Context, id string) error
	ListAppointments(ctx context.Context) ([]domain.SavedAppointment, error)
	GetAppointment(ctx context.Context, id string) (*domain.SavedAppointment, error)

	// Производный план из трёх событий + ссылки на календарь.
	// (nil, nil) означает "дата не разбирается, план построить нельзя" - это
	// не ошибка, а деградация
	Schedule(details domain.AppointmentDetails) (*domain.AppointmentSchedule, []domain.CalendarLink)

	// Календарная лента по всем сохранённым приёмам
	CalendarFeed(ctx context.Context) ([]domain.CalendarEntry, error)

	// Ближайший приём сегодня или позже
	UpcomingAppointment(ctx context.Context, now time.Time) (*domain.SavedAppointment, error)

	// Сброс кэша при изменении таблицы извне (слушатель очереди)
	InvalidateAppointmentsCache(ctx context.Context, id string)
}
