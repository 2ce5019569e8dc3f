package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/ports/out"
)

type nopLogger struct{}

func (nopLogger) Debug(string, out.LogFields) {}
func (nopLogger) Info(string, out.LogFields)  {}
func (nopLogger) Warn(string, out.LogFields)  {}
func (nopLogger) Error(string, out.LogFields) {}

func (l nopLogger) WithFields(out.LogFields) out.LoggerPort { return l }
func (l nopLogger) WithModule(string) out.LoggerPort        { return l }

type fakeExtraction struct {
	details domain.AppointmentDetails
	err     error
}

func (f *fakeExtraction) ExtractAppointment(ctx context.Context, image []byte, mimeType string) (domain.AppointmentDetails, error) {
	return f.details, f.err
}

type fakeStore struct {
	appointments []domain.SavedAppointment
	saved        []domain.SavedAppointment
	deleted      []string
	listCalls    int
	saveErr      error
	listErr      error
}

func (f *fakeStore) SaveAppointment(ctx context.Context, appointment domain.SavedAppointment) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, appointment)
	return nil
}

func (f *fakeStore) DeleteAppointment(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListAppointments(ctx context.Context) ([]domain.SavedAppointment, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.appointments, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

// fakeCache пишет последовательность операций - порядок инвалидации важен
type fakeCache struct {
	ops     []string
	list    []domain.SavedAppointment
	hasList bool
	records map[string]domain.SavedAppointment
}

func newFakeCache() *fakeCache {
	return &fakeCache{records: map[string]domain.SavedAppointment{}}
}

func (f *fakeCache) GetAppointments(ctx context.Context) ([]domain.SavedAppointment, bool) {
	f.ops = append(f.ops, "GetAppointments")
	return f.list, f.hasList
}

func (f *fakeCache) StoreAppointments(ctx context.Context, appointments []domain.SavedAppointment) {
	f.ops = append(f.ops, "StoreAppointments")
	f.list = appointments
	f.hasList = true
}

func (f *fakeCache) GetAppointment(ctx context.Context, id string) (domain.SavedAppointment, bool) {
	f.ops = append(f.ops, "GetAppointment:"+id)
	record, exists := f.records[id]
	return record, exists
}

func (f *fakeCache) StoreAppointment(ctx context.Context, appointment domain.SavedAppointment) {
	f.ops = append(f.ops, "StoreAppointment:"+appointment.ID)
	f.records[appointment.ID] = appointment
}

func (f *fakeCache) InvalidateAppointment(ctx context.Context, id string) {
	f.ops = append(f.ops, "InvalidateAppointment:"+id)
	delete(f.records, id)
}

func (f *fakeCache) InvalidateAll(ctx context.Context) {
	f.ops = append(f.ops, "InvalidateAll")
	f.list = nil
	f.hasList = false
	f.records = map[string]domain.SavedAppointment{}
}

var serviceNow = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore, cachePort *fakeCache) *AppointmentService {
	cfg := &config.Config{}
	cfg.App.Timezone = "UTC"
	cfg.Cache.Enabled = cachePort != nil

	var port out.CachePort
	if cachePort != nil {
		port = cachePort
	}

	service := NewAppointmentService(&fakeExtraction{}, store, port, cfg, nopLogger{})
	service.now = func() time.Time { return serviceNow }
	return service
}

func TestSaveAppointment_NewRecordGetsIDAndCreatedAt(t *testing.T) {
	store := &fakeStore{}
	service := newTestService(store, nil)

	saved, err := service.SaveAppointment(context.Background(), domain.AppointmentDetails{
		Title: "內科",
		Date:  "2024-12-25",
	}, "")
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, serviceNow.Format(time.RFC3339), saved.CreatedAt)

	require.Len(t, store.saved, 1)
	assert.Equal(t, saved, store.saved[0])
}

func TestSaveAppointment_EditPreservesCreatedAt(t *testing.T) {
	existing := domain.SavedAppointment{
		AppointmentDetails: domain.AppointmentDetails{Title: "內科", Date: "2024-11-01"},
		ID:                 "apt-1",
		CreatedAt:          "2024-01-15T08:00:00Z",
	}
	store := &fakeStore{appointments: []domain.SavedAppointment{existing}}
	service := newTestService(store, nil)

	saved, err := service.SaveAppointment(context.Background(), domain.AppointmentDetails{
		Title: "內科",
		Date:  "2024-12-25",
	}, "apt-1")
	require.NoError(t, err)

	assert.Equal(t, "apt-1", saved.ID)
	assert.Equal(t, "2024-01-15T08:00:00Z", saved.CreatedAt)
	assert.Equal(t, "2024-12-25", saved.Date)
}

func TestSaveAppointment_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{saveErr: fmt.Errorf("sheet unavailable")}
	service := newTestService(store, nil)

	_, err := service.SaveAppointment(context.Background(), domain.AppointmentDetails{Title: "內科"}, "")
	require.Error(t, err)
	assert.Empty(t, store.saved)
}

// Снимок списка сбрасывается до прогрева свежей записи - иначе запись
// тут же выпадет из кэша вместе со снимком
func TestSaveAppointment_CacheInvalidationOrder(t *testing.T) {
	store := &fakeStore{}
	cachePort := newFakeCache()
	service := newTestService(store, cachePort)

	saved, err := service.SaveAppointment(context.Background(), domain.AppointmentDetails{Title: "內科"}, "")
	require.NoError(t, err)

	require.Len(t, cachePort.ops, 2)
	assert.Equal(t, "InvalidateAll", cachePort.ops[0])
	assert.Equal(t, "StoreAppointment:"+saved.ID, cachePort.ops[1])

	record, exists := cachePort.records[saved.ID]
	require.True(t, exists)
	assert.Equal(t, saved, record)
}

func TestDeleteAppointment_InvalidatesCache(t *testing.T) {
	store := &fakeStore{}
	cachePort := newFakeCache()
	cachePort.records["apt-1"] = domain.SavedAppointment{ID: "apt-1"}
	service := newTestService(store, cachePort)

	require.NoError(t, service.DeleteAppointment(context.Background(), "apt-1"))

	assert.Equal(t, []string{"apt-1"}, store.deleted)
	assert.Contains(t, cachePort.ops, "InvalidateAppointment:apt-1")
	assert.Contains(t, cachePort.ops, "InvalidateAll")
	assert.Empty(t, cachePort.records)
}

func TestListAppointments_CacheHitSkipsStore(t *testing.T) {
	store := &fakeStore{}
	cachePort := newFakeCache()
	cachePort.list = []domain.SavedAppointment{{ID: "a1"}}
	cachePort.hasList = true
	service := newTestService(store, cachePort)

	appointments, err := service.ListAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, 0, store.listCalls)
}

func TestListAppointments_CacheMissFillsCache(t *testing.T) {
	store := &fakeStore{appointments: []domain.SavedAppointment{{ID: "a1"}}}
	cachePort := newFakeCache()
	service := newTestService(store, cachePort)

	appointments, err := service.ListAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, 1, store.listCalls)
	assert.True(t, cachePort.hasList)
}

func TestGetAppointment_FallsBackToListScan(t *testing.T) {
	store := &fakeStore{appointments: []domain.SavedAppointment{
		{ID: "a1"}, {ID: "a2"},
	}}
	service := newTestService(store, nil)

	appointment, err := service.GetAppointment(context.Background(), "a2")
	require.NoError(t, err)
	require.NotNil(t, appointment)
	assert.Equal(t, "a2", appointment.ID)

	missing, err := service.GetAppointment(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetAppointment_EmptyID(t *testing.T) {
	service := newTestService(&fakeStore{}, nil)

	_, err := service.GetAppointment(context.Background(), "")
	require.Error(t, err)
}

func TestSchedule_ValidDate(t *testing.T) {
	service := newTestService(&fakeStore{}, nil)

	schedule, links := service.Schedule(domain.AppointmentDetails{
		Title: "內科",
		Date:  "2024-12-25",
		Time:  "下午2:00",
	})

	require.NotNil(t, schedule)
	assert.Equal(t, time.Date(2024, 12, 25, 14, 0, 0, 0, time.UTC), schedule.Visit.Start.Time)
	assert.Len(t, links, 3)
}

func TestSchedule_UnparseableDate(t *testing.T) {
	service := newTestService(&fakeStore{}, nil)

	schedule, links := service.Schedule(domain.AppointmentDetails{Date: "改天"})
	assert.Nil(t, schedule)
	assert.Nil(t, links)
}

func TestUpcomingAppointment_ZeroNowUsesServiceClock(t *testing.T) {
	store := &fakeStore{appointments: []domain.SavedAppointment{
		{AppointmentDetails: domain.AppointmentDetails{Date: "2024-09-01"}, ID: "past"},
		{AppointmentDetails: domain.AppointmentDetails{Date: "2024-10-15"}, ID: "future"},
	}}
	service := newTestService(store, nil)

	got, err := service.UpcomingAppointment(context.Background(), time.Time{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "future", got.ID)
}

func TestInvalidateAppointmentsCache(t *testing.T) {
	cachePort := newFakeCache()
	cachePort.records["a1"] = domain.SavedAppointment{ID: "a1"}
	cachePort.hasList = true
	service := newTestService(&fakeStore{}, cachePort)

	service.InvalidateAppointmentsCache(context.Background(), "a1")

	assert.Equal(t, []string{"InvalidateAppointment:a1", "InvalidateAll"}, cachePort.ops)
	assert.False(t, cachePort.hasList)
}

func TestExtractAppointment_Passthrough(t *testing.T) {
	extraction := &fakeExtraction{details: domain.AppointmentDetails{Title: "內科", Date: "2024-12-25"}}
	cfg := &config.Config{}
	cfg.App.Timezone = "UTC"

	service := NewAppointmentService(extraction, &fakeStore{}, nil, cfg, nopLogger{})

	details, err := service.ExtractAppointment(context.Background(), []byte{0x01}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "內科", details.Title)

	extraction.err = fmt.Errorf("model unavailable")
	_, err = service.ExtractAppointment(context.Background(), []byte{0x01}, "image/png")
	require.Error(t, err)
}
