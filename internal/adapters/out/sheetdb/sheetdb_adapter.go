package sheetdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/ports/out"
)

const recordType = "Appointments"

// SheetDBAdapter ходит в Google-Apps-Script endpoint, который хранит записи
// в Google Sheets. Один POST URL, действие в теле запроса.
type SheetDBAdapter struct {
	client *http.Client
	url    string
	logger out.LoggerPort
}

type envelope struct {
	Action string      `json:"action"`
	Type   string      `json:"type,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	ID     string      `json:"id,omitempty"`
}

type response struct {
	Status       string                    `json:"status"`
	Message      string                    `json:"message"`
	Appointments []domain.SavedAppointment `json:"appointments"`
}

func NewSheetDBAdapter(cfg *config.Config, logger out.LoggerPort) *SheetDBAdapter {
	return &SheetDBAdapter{
		client: &http.Client{Timeout: cfg.SheetDBTimeout()},
		url:    cfg.SheetDB.URL,
		logger: logger,
	}
}

// SaveAppointment выполняет upsert: GAS удаляет существующую строку с тем же
// id и дописывает новую (нативного update у таблицы нет).
func (a *SheetDBAdapter) SaveAppointment(ctx context.Context, appointment domain.SavedAppointment) error {
	_, err := a.call(ctx, envelope{
		Action: "save",
		Type:   recordType,
		Data:   appointment,
	})
	if err != nil {
		a.logger.Error("sheetdb.save.failed", out.LogFields{
			"id":    appointment.ID,
			"error": err.Error(),
		})
		return err
	}

	a.logger.Debug("sheetdb.save.success", out.LogFields{
		"id": appointment.ID,
	})

	return nil
}

func (a *SheetDBAdapter) DeleteAppointment(ctx context.Context, id string) error {
	_, err := a.call(ctx, envelope{
		Action: "delete",
		Type:   recordType,
		ID:     id,
	})
	if err != nil {
		a.logger.Error("sheetdb.delete.failed", out.LogFields{
			"id":    id,
			"error": err.Error(),
		})
		return err
	}

	a.logger.Debug("sheetdb.delete.success", out.LogFields{
		"id": id,
	})

	return nil
}

func (a *SheetDBAdapter) ListAppointments(ctx context.Context) ([]domain.SavedAppointment, error) {
	resp, err := a.call(ctx, envelope{Action: "read_all"})
	if err != nil {
		a.logger.Error("sheetdb.read_all.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	// Пустая таблица приходит как null - возвращаем пустой срез
	if resp.Appointments == nil {
		return []domain.SavedAppointment{}, nil
	}

	a.logger.Debug("sheetdb.read_all.success", out.LogFields{
		"count": len(resp.Appointments),
	})

	return resp.Appointments, nil
}

func (a *SheetDBAdapter) Ping(ctx context.Context) error {
	_, err := a.call(ctx, envelope{Action: "read_all"})
	return err
}

func (a *SheetDBAdapter) call(ctx context.Context, env envelope) (*response, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	// GAS: text/plain вместо application/json, чтобы не провоцировать
	// CORS preflight - сохранено для совместимости с тем же скриптом
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// GAS при проблемах с правами отдаёт HTML-страницу логина
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "application/json") {
		return nil, fmt.Errorf("invalid response format %q, likely permission error", contentType)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	if parsed.Status == "error" {
		return nil, fmt.Errorf("sheetdb error: %s", parsed.Message)
	}

	return &parsed, nil
}
