package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/ports/out"
	"github.com/healthguardian/appointment-planner/internal/core/services/schedule_service"
)

type AppointmentService struct {
	extractionPort out.ExtractionPort
	storePort      out.StorePort
	cachePort      out.CachePort
	logger         out.LoggerPort
	cfg            *config.Config

	// Подменяется в тестах; в бою - время в таймзоне приложения
	now func() time.Time
}

func NewAppointmentService(
	extractionPort out.ExtractionPort,
	storePort out.StorePort,
	cachePort out.CachePort,
	cfg *config.Config,
	logger out.LoggerPort,
) *AppointmentService {
	loc := cfg.Location()

	return &AppointmentService{
		extractionPort: extractionPort,
		storePort:      storePort,
		cachePort:      cachePort,
		cfg:            cfg,
		logger:         logger.WithModule("AppointmentService"),
		now:            func() time.Time { return time.Now().In(loc) },
	}
}

func (s *AppointmentService) ExtractAppointment(ctx context.Context, image []byte, mimeType string) (domain.AppointmentDetails, error) {
	s.logger.Info("appointment.extract.started", out.LogFields{
		"mimeType":  mimeType,
		"imageSize": len(image),
	})

	details, err := s.extractionPort.ExtractAppointment(ctx, image, mimeType)
	if err != nil {
		s.logger.Error("appointment.extract.failed", out.LogFields{
			"error": err.Error(),
		})
		return domain.AppointmentDetails{}, err
	}

	s.logger.Debug("appointment.extract.success", out.LogFields{
		"title": details.Title,
		"date":  details.Date,
		"time":  details.Time,
	})

	return details, nil
}

// SaveAppointment сохраняет новую запись (id == "") или редактирует
// существующую. При редактировании createdAt первой записи сохраняется;
// на стороне таблицы save работает как delete-then-append по id, так что
// при гонке двух правок побеждает последняя - принятое ограничение
// однопользовательского инструмента.
func (s *AppointmentService) SaveAppointment(ctx context.Context, details domain.AppointmentDetails, id string) (domain.SavedAppointment, error) {
	appointment := domain.SavedAppointment{
		AppointmentDetails: details,
		ID:                 id,
		CreatedAt:          s.now().Format(time.RFC3339),
	}

	if id == "" {
		appointment.ID = uuid.NewString()
	} else if existing, err := s.GetAppointment(ctx, id); err != nil {
		return domain.SavedAppointment{}, err
	} else if existing != nil {
		appointment.CreatedAt = existing.CreatedAt
	}

	if err := s.storePort.SaveAppointment(ctx, appointment); err != nil {
		s.logger.Error("appointment.save.failed", out.LogFields{
			"id":    appointment.ID,
			"error": err.Error(),
		})
		return domain.SavedAppointment{}, err
	}

	if s.cacheEnabled() {
		// Снимок списка устарел целиком, свежую запись прогреваем обратно
		s.cachePort.InvalidateAll(ctx)
		s.cachePort.StoreAppointment(ctx, appointment)
	}

	s.logger.Info("appointment.save.success", out.LogFields{
		"id":    appointment.ID,
		"title": appointment.Title,
	})

	return appointment, nil
}

func (s *AppointmentService) DeleteAppointment(ctx context.Context, id string) error {
	if err := s.storePort.DeleteAppointment(ctx, id); err != nil {
		s.logger.Error("appointment.delete.failed", out.LogFields{
			"id":    id,
			"error": err.Error(),
		})
		return err
	}

	if s.cacheEnabled() {
		s.cachePort.InvalidateAppointment(ctx, id)
		s.cachePort.InvalidateAll(ctx)
	}

	s.logger.Info("appointment.delete.success", out.LogFields{
		"id": id,
	})

	return nil
}

func (s *AppointmentService) ListAppointments(ctx context.Context) ([]domain.SavedAppointment, error) {
	if s.cacheEnabled() {
		if appointments, exists := s.cachePort.GetAppointments(ctx); exists {
			s.logger.Debug("appointment.list.cache.hit", out.LogFields{
				"count": len(appointments),
			})
			return appointments, nil
		}
	}

	appointments, err := s.storePort.ListAppointments(ctx)
	if err != nil {
		s.logger.Error("appointment.list.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	if s.cacheEnabled() {
		s.cachePort.StoreAppointments(ctx, appointments)
	}

	return appointments, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id string) (*domain.SavedAppointment, error) {
	if id == "" {
		return nil, fmt.Errorf("empty appointment id")
	}

	if s.cacheEnabled() {
		if appointment, exists := s.cachePort.GetAppointment(ctx, id); exists {
			return &appointment, nil
		}
	}

	appointments, err := s.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	for i := range appointments {
		if appointments[i].ID == id {
			if s.cacheEnabled() {
				s.cachePort.StoreAppointment(ctx, appointments[i])
			}
			return &appointments[i], nil
		}
	}

	return nil, nil
}

// Schedule - чистое вычисление: разбор даты/времени и производный план.
// (nil, nil) означает, что дата не разбирается.
func (s *AppointmentService) Schedule(details domain.AppointmentDetails) (*domain.AppointmentSchedule, []domain.CalendarLink) {
	schedule, ok := schedule_service.ScheduleFor(details, s.now())
	if !ok {
		s.logger.Debug("appointment.schedule.unparseable", out.LogFields{
			"date": details.Date,
			"time": details.Time,
		})
		return nil, nil
	}

	return &schedule, schedule_service.CalendarLinks(details, schedule)
}

func (s *AppointmentService) CalendarFeed(ctx context.Context) ([]domain.CalendarEntry, error) {
	appointments, err := s.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	return schedule_service.ExpandCalendarEvents(appointments, s.now()), nil
}

func (s *AppointmentService) UpcomingAppointment(ctx context.Context, now time.Time) (*domain.SavedAppointment, error) {
	appointments, err := s.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	if now.IsZero() {
		now = s.now()
	}

	return schedule_service.UpcomingAppointment(appointments, now), nil
}

func (s *AppointmentService) InvalidateAppointmentsCache(ctx context.Context, id string) {
	if !s.cacheEnabled() {
		return
	}

	if id != "" {
		s.cachePort.InvalidateAppointment(ctx, id)
	}
	s.cachePort.InvalidateAll(ctx)

	s.logger.Debug("appointment.cache.invalidated", out.LogFields{
		"id": id,
	})
}

func (s *AppointmentService) cacheEnabled() bool {
	return s.cachePort != nil && s.cfg.Cache.Enabled
}
