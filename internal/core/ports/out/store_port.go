package out

import (
	"context"

	"github.com/healthguardian/appointment-planner/internal/core/domain"
)

// StorePort - контракт к таблице-хранилищу (GAS endpoint поверх Google Sheets).
// Save работает как upsert-by-id: бэкенд удаляет старую строку с тем же id и
// добавляет новую, нативного update у таблицы нет.
type StorePort interface {
	SaveAppointment(ctx context.Context, appointment domain.SavedAppointment) error
	DeleteAppointment(ctx context.Context, id string) error
	ListAppointments(ctx context.Context) ([]domain.SavedAppointment, error)

	// Проверка, что endpoint отвечает валидным JSON (а не HTML-страницей логина)
	Ping(ctx context.Context) error
}
