package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/ports/in"
	"github.com/healthguardian/appointment-planner/internal/core/ports/out"
)

// RecordListener слушает уведомления об изменениях таблицы извне (правка
// прямо в Google Sheets, другой клиент) и сбрасывает кэш, чтобы такие правки
// стали видны без рестарта.
type RecordListener struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	useCase in.AppointmentUseCase
	cfg     *config.Config
	logger  out.LoggerPort
}

type RecordChangeType string

const (
	RecordChangeTypeStore      RecordChangeType = "store"
	RecordChangeTypeInvalidate RecordChangeType = "invalidate"
)

const recordResourceAppointments = "appointments"

// RecordChangeRoutingKey - разобранный routing key сообщения.
// Пример: sheets.health-guardian.appointments.invalidate
type RecordChangeRoutingKey struct {
	Source     string
	Receiver   string
	Resource   string
	ChangeType RecordChangeType
}

type recordChangeMessage struct {
	ID string `json:"id"`
}

func NewRecordListener(useCase in.AppointmentUseCase, cfg *config.Config, logger out.LoggerPort) (*RecordListener, error) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("rabbitmq.disabled", out.LogFields{
			"message": "RabbitMQ is disabled, listener will not be started",
		})
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.AmqpURI)
	if err != nil {
		logger.Error("rabbitmq.connect.failed", out.LogFields{
			"error": err.Error(),
			"url":   cfg.RabbitMQ.AmqpURI,
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("rabbitmq.channel.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	return &RecordListener{
		conn:    conn,
		channel: channel,
		useCase: useCase,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func (l *RecordListener) Start(ctx context.Context) error {
	queueCfg := l.cfg.RabbitMQ.QueueConfig

	queue, err := l.channel.QueueDeclare(
		queueCfg.AppointmentsQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	err = l.channel.QueueBind(
		queue.Name,
		queueCfg.AppointmentsQueueBind,
		queueCfg.AppointmentsQueueExchange,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	msgs, err := l.channel.Consume(
		queue.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if err := l.processMessage(ctx, msg); err != nil {
					l.logger.Warn("rabbitmq.message.failed", out.LogFields{
						"routingKey": msg.RoutingKey,
						"error":      err.Error(),
					})
					msg.Nack(false, false)
					continue
				}
				msg.Ack(false)
			}
		}
	}()

	l.logger.Info("rabbitmq.queue.started", out.LogFields{
		"queue": queue.Name,
		"bind":  queueCfg.AppointmentsQueueBind,
	})

	return nil
}

func (l *RecordListener) processMessage(ctx context.Context, msg amqp.Delivery) error {
	key, err := parseRoutingKey(msg.RoutingKey)
	if err != nil {
		return err
	}

	if key.Resource != recordResourceAppointments && key.Resource != "_all_" {
		// Чужой ресурс - подтверждаем и игнорируем
		return nil
	}

	var change recordChangeMessage
	if len(msg.Body) > 0 {
		// Тело необязательно; без id сбрасывается весь кэш
		_ = json.Unmarshal(msg.Body, &change)
	}

	l.useCase.InvalidateAppointmentsCache(ctx, change.ID)

	l.logger.Debug("rabbitmq.cache.invalidated", out.LogFields{
		"routingKey": msg.RoutingKey,
		"id":         change.ID,
	})

	return nil
}

func (l *RecordListener) Stop() error {
	if l == nil || l.channel == nil {
		return nil
	}

	if err := l.channel.Close(); err != nil {
		return err
	}
	return l.conn.Close()
}

// Пример routingKey: sheets.health-guardian.appointments.invalidate
func parseRoutingKey(routingKey string) (RecordChangeRoutingKey, error) {
	parts := strings.Split(routingKey, ".")
	if len(parts) < 4 {
		return RecordChangeRoutingKey{}, fmt.Errorf("invalid routing key: %s", routingKey)
	}

	return RecordChangeRoutingKey{
		Source:     parts[0],
		Receiver:   parts[1],
		Resource:   parts[2],
		ChangeType: RecordChangeType(parts[3]),
	}, nil
}
