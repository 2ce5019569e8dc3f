package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/ports/out"
)

// listCache - снимок полного read_all с TTL: таблицу может править кто
// угодно прямо в Google Sheets, поэтому снимок живёт ограниченное время.
type listCache struct {
	appointments []domain.SavedAppointment
	timestamp    time.Time
	ttl          time.Duration
	valid        bool
}

type CacheAdapter struct {
	records   *lru.Cache[string, domain.SavedAppointment]
	listCache *listCache
	mu        sync.RWMutex
	logger    out.LoggerPort
}

func NewCacheAdapter(cfg *config.Config, logger out.LoggerPort) (*CacheAdapter, error) {
	if !cfg.Cache.Enabled {
		logger.Info("cache.disabled", out.LogFields{
			"message": "Cache is disabled",
		})
		return nil, nil
	}

	records, err := lru.New[string, domain.SavedAppointment](cfg.Cache.Size)
	if err != nil {
		logger.Error("cache.init.failed", out.LogFields{
			"error": err.Error(),
			"size":  cfg.Cache.Size,
		})
		return nil, err
	}

	return &CacheAdapter{
		records: records,
		listCache: &listCache{
			ttl: cfg.CacheListTTL(),
		},
		logger: logger.WithModule("CacheAdapter"),
	}, nil
}

func (c *CacheAdapter) GetAppointments(ctx context.Context) ([]domain.SavedAppointment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.listCache.valid || time.Since(c.listCache.timestamp) > c.listCache.ttl {
		c.logger.Debug("cache.list.miss", out.LogFields{})
		return nil, false
	}

	c.logger.Debug("cache.list.hit", out.LogFields{
		"count": len(c.listCache.appointments),
	})
	return c.listCache.appointments, true
}

func (c *CacheAdapter) StoreAppointments(ctx context.Context, appointments []domain.SavedAppointment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("cache.list.store", out.LogFields{
		"count": len(appointments),
	})

	c.listCache.appointments = appointments
	c.listCache.timestamp = time.Now()
	c.listCache.valid = true

	// Попутно прогреваем записи по id
	for _, appointment := range appointments {
		c.records.Add(appointment.ID, appointment)
	}
}

func (c *CacheAdapter) GetAppointment(ctx context.Context, id string) (domain.SavedAppointment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	appointment, exists := c.records.Get(id)
	if !exists {
		c.logger.Debug("cache.record.miss", out.LogFields{
			"id": id,
		})
		return domain.SavedAppointment{}, false
	}

	return appointment, true
}

func (c *CacheAdapter) StoreAppointment(ctx context.Context, appointment domain.SavedAppointment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records.Add(appointment.ID, appointment)
}

func (c *CacheAdapter) InvalidateAppointment(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records.Remove(id)
}

func (c *CacheAdapter) InvalidateAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listCache.appointments = nil
	c.listCache.timestamp = time.Time{}
	c.listCache.valid = false
	c.records.Purge()
}
