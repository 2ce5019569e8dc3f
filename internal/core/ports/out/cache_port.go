package out

import (
	"context"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
)

type CachePort interface {
	// Кэширование списка приёмов (снимок read_all с TTL)
	GetAppointments(ctx context.Context) ([]domain.SavedAppointment, bool)
	StoreAppointments(ctx context.Context, appointments []domain.SavedAppointment)

	// Кэширование отдельных записей по id
	GetAppointment(ctx context.Context, id string) (domain.SavedAppointment, bool)
	StoreAppointment(ctx context.Context, appointment domain.SavedAppointment)
	InvalidateAppointment(ctx context.Context, id string)

	InvalidateAll(ctx context.Context)
}
