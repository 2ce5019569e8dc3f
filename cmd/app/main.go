package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	adapterhttp "github.com/healthguardian/appointment-planner/internal/adapters/in/http"
	"github.com/healthguardian/appointment-planner/internal/adapters/in/rabbitmq"
	"github.com/healthguardian/appointment-planner/internal/adapters/out/cache"
	"github.com/healthguardian/appointment-planner/internal/adapters/out/genai"
	"github.com/healthguardian/appointment-planner/internal/adapters/out/logger"
	"github.com/healthguardian/appointment-planner/internal/adapters/out/sheetdb"
	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/ports/out"
	"github.com/healthguardian/appointment-planner/internal/core/services"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера с таймзоной
	mainLogger, err := logger.NewConsoleLogger(cfg.App.Timezone)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := mainLogger.WithModule("Main")

	log.Info("app.starting", out.LogFields{
		"version":         cfg.App.Version,
		"env":             cfg.App.Env,
		"timezone":        cfg.App.Timezone,
		"rabbitmqEnabled": cfg.RabbitMQ.Enabled,
		"cacheEnabled":    cfg.Cache.Enabled,
	})

	if cfg.IsNotLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Инициализация адаптеров
	genaiAdapter := genai.NewGenAIAdapter(cfg, log.WithModule("GenAIAdapter"))
	sheetdbAdapter := sheetdb.NewSheetDBAdapter(cfg, log.WithModule("SheetDBAdapter"))

	var cacheAdapter out.CachePort
	if cfg.Cache.Enabled {
		adapter, err := cache.NewCacheAdapter(cfg, log.WithModule("CacheAdapter"))
		if err != nil {
			log.Error("app.cache.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}
		cacheAdapter = adapter
	}

	// Проверка связи с таблицей до старта: сервис без хранилища бесполезен
	if err := sheetdbAdapter.Ping(context.Background()); err != nil {
		log.Warn("app.sheetdb.ping_failed", out.LogFields{
			"error": err.Error(),
			"url":   cfg.SheetDB.URL,
		})
	}

	// Инициализация сервиса
	appointmentService := services.NewAppointmentService(
		genaiAdapter,
		sheetdbAdapter,
		cacheAdapter,
		cfg,
		log,
	)

	// Настройка HTTP сервера
	router := gin.Default()
	controller := adapterhttp.NewAppointmentController(appointmentService, cfg)
	controller.RegisterRoutes(router)

	// Слушатель изменений таблицы, только если он включен
	if cfg.RabbitMQ.Enabled {
		listener, err := rabbitmq.NewRecordListener(
			appointmentService,
			cfg,
			log.WithModule("RabbitMQListener"),
		)
		if err != nil {
			log.Error("app.rabbitmq.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := listener.Start(ctx); err != nil {
			log.Error("app.rabbitmq.start_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		defer func() {
			if err := listener.Stop(); err != nil {
				log.Error("app.rabbitmq.stop_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("app.http.starting", out.LogFields{
			"host": cfg.HTTP.Host,
			"port": cfg.HTTP.Port,
		})

		if err := router.Run(cfg.HTTP.Host + ":" + cfg.HTTP.Port); err != nil {
			log.Error("app.http.failed", out.LogFields{
				"error": err.Error(),
			})
			sigChan <- syscall.SIGTERM
		}
	}()

	sig := <-sigChan
	log.Info("app.shutdown.initiated", out.LogFields{
		"signal": sig.String(),
	})

	if cfg.IsLocal() {
		log.Debug("app.config.debug", out.LogFields{
			"config": map[string]interface{}{
				"http": map[string]string{
					"host": cfg.HTTP.Host,
					"port": cfg.HTTP.Port,
				},
				"genai": map[string]string{
					"baseUrl": cfg.GenAI.BaseURL,
					"model":   cfg.GenAI.Model,
				},
				"sheetdb": map[string]string{
					"url": cfg.SheetDB.URL,
				},
				"rabbitmq": map[string]interface{}{
					"enabled": cfg.RabbitMQ.Enabled,
					"queue":   cfg.RabbitMQ.QueueConfig.AppointmentsQueueName,
				},
				"cache": map[string]interface{}{
					"enabled": cfg.Cache.Enabled,
					"size":    cfg.Cache.Size,
				},
			},
		})
	}
}
