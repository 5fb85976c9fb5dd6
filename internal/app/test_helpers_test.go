package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/example/getracker/internal/core/analysis"
	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/secondary"
)

// clone deep-copies v through JSON so mocks behave like real storage:
// callers never share pointers with what is stored.
func clone[T any](v T) T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

// ============================================================================
// Mock Repositories
// ============================================================================

// Ensure mocks implement the interfaces
var (
	_ secondary.MetadataRepository        = (*mockMetadataRepository)(nil)
	_ secondary.PriceRepository           = (*mockPriceRepository)(nil)
	_ secondary.LegacyWatchlistRepository = (*mockLegacyRepository)(nil)
	_ secondary.SettingsRepository        = (*mockSettingsRepository)(nil)
	_ secondary.ActivityLogRepository     = (*mockActivityLogRepository)(nil)
)

// mockMetadataRepository implements secondary.MetadataRepository for testing.
type mockMetadataRepository struct {
	mu      sync.Mutex
	records map[string]*secondary.ItemMetadataRecord
	saves   int
	getErr  error
}

func newMockMetadataRepository() *mockMetadataRepository {
	return &mockMetadataRepository{records: make(map[string]*secondary.ItemMetadataRecord)}
}

func (m *mockMetadataRepository) GetAll(ctx context.Context) (map[string]*secondary.ItemMetadataRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return clone(m.records), nil
}

func (m *mockMetadataRepository) Save(ctx context.Context, record *secondary.ItemMetadataRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = clone(record)
	m.saves++
	return nil
}

func (m *mockMetadataRepository) SaveAll(ctx context.Context, records map[string]*secondary.ItemMetadataRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = clone(records)
	m.saves++
	return nil
}

func (m *mockMetadataRepository) Remove(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	m.saves++
	return nil
}

// get returns a copy of one stored record.
func (m *mockMetadataRepository) get(id string) *secondary.ItemMetadataRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return clone(r)
	}
	return nil
}

// put stores a record directly, bypassing the service.
func (m *mockMetadataRepository) put(r *secondary.ItemMetadataRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = clone(r)
}

func (m *mockMetadataRepository) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// mockPriceRepository implements secondary.PriceRepository for testing.
type mockPriceRepository struct {
	mu        sync.Mutex
	records   map[string]*secondary.PriceRecord
	histories map[string][]analysis.PricePoint
}

func newMockPriceRepository() *mockPriceRepository {
	return &mockPriceRepository{
		records:   make(map[string]*secondary.PriceRecord),
		histories: make(map[string][]analysis.PricePoint),
	}
}

func (m *mockPriceRepository) GetAll(ctx context.Context) (map[string]*secondary.PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.records), nil
}

func (m *mockPriceRepository) Save(ctx context.Context, id string, record *secondary.PriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = clone(record)
	return nil
}

func (m *mockPriceRepository) SaveAll(ctx context.Context, records map[string]*secondary.PriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = clone(records)
	return nil
}

func (m *mockPriceRepository) Remove(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *mockPriceRepository) StoreHistory(ctx context.Context, id string, series []analysis.PricePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[id] = clone(series)
	return nil
}

func (m *mockPriceRepository) GetHistory(ctx context.Context, id string) ([]analysis.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	series, ok := m.histories[id]
	if !ok {
		return nil, nil
	}
	return clone(series), nil
}

func (m *mockPriceRepository) RemoveHistory(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.histories, id)
	}
	return nil
}

func (m *mockPriceRepository) get(id string) *secondary.PriceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return clone(r)
	}
	return nil
}

func (m *mockPriceRepository) put(id string, r *secondary.PriceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = clone(r)
}

func (m *mockPriceRepository) hasHistory(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.histories[id]
	return ok
}

// mockLegacyRepository implements secondary.LegacyWatchlistRepository for testing.
type mockLegacyRepository struct {
	mu      sync.Mutex
	records map[string]*secondary.LegacyItemRecord
	deletes int
}

func newMockLegacyRepository() *mockLegacyRepository {
	return &mockLegacyRepository{}
}

func (m *mockLegacyRepository) Load(ctx context.Context) (map[string]*secondary.LegacyItemRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		return nil, nil
	}
	return clone(m.records), nil
}

func (m *mockLegacyRepository) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.deletes++
	return nil
}

// mockSettingsRepository implements secondary.SettingsRepository for testing.
type mockSettingsRepository struct {
	mu     sync.Mutex
	stored map[string]json.RawMessage
	saves  int
}

func newMockSettingsRepository() *mockSettingsRepository {
	return &mockSettingsRepository{}
}

func (m *mockSettingsRepository) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return nil, nil
	}
	return clone(m.stored), nil
}

func (m *mockSettingsRepository) Save(ctx context.Context, settings map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = clone(settings)
	m.saves++
	return nil
}

// mockActivityLogRepository implements secondary.ActivityLogRepository for testing.
type mockActivityLogRepository struct {
	entries   []*secondary.ActivityLogRecord
	pruneDays int
	pruned    int
}

func newMockActivityLogRepository() *mockActivityLogRepository {
	return &mockActivityLogRepository{}
}

func (m *mockActivityLogRepository) Create(ctx context.Context, entry *secondary.ActivityLogRecord) error {
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockActivityLogRepository) List(ctx context.Context, filters secondary.ActivityLogFilters) ([]*secondary.ActivityLogRecord, error) {
	var result []*secondary.ActivityLogRecord
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if filters.EntityType != "" && e.EntityType != filters.EntityType {
			continue
		}
		if filters.EntityID != "" && e.EntityID != filters.EntityID {
			continue
		}
		if filters.ActorID != "" && e.ActorID != filters.ActorID {
			continue
		}
		if filters.Action != "" && e.Action != filters.Action {
			continue
		}
		result = append(result, e)
	}
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockActivityLogRepository) PruneOlderThan(ctx context.Context, days int) (int, error) {
	m.pruneDays = days
	return m.pruned, nil
}

// ============================================================================
// Mock Collaborators
// ============================================================================

// Ensure mocks implement the interfaces
var (
	_ secondary.PriceSource = (*mockPriceSource)(nil)
	_ secondary.Notifier    = (*mockNotifier)(nil)
	_ secondary.LogWriter   = (*mockLogWriter)(nil)
)

// mockPriceSource implements secondary.PriceSource for testing.
type mockPriceSource struct {
	mu      sync.Mutex
	quotes  map[string]*watchlist.Quote
	fetched []string
	onFetch func(itemID string)
}

func newMockPriceSource() *mockPriceSource {
	return &mockPriceSource{quotes: make(map[string]*watchlist.Quote)}
}

func (m *mockPriceSource) Fetch(ctx context.Context, itemID string) *watchlist.Quote {
	m.mu.Lock()
	m.fetched = append(m.fetched, itemID)
	quote := m.quotes[itemID]
	hook := m.onFetch
	m.mu.Unlock()

	if hook != nil {
		hook(itemID)
	}
	if quote == nil {
		return nil
	}
	return clone(quote)
}

func (m *mockPriceSource) setPrice(itemID string, price int64, history ...analysis.PricePoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[itemID] = &watchlist.Quote{CurrentPrice: price, History: history}
}

func (m *mockPriceSource) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetched)
}

// mockNotifier implements secondary.Notifier for testing.
type mockNotifier struct {
	mu   sync.Mutex
	sent []secondary.Notification
	err  error
}

func (m *mockNotifier) Notify(ctx context.Context, n secondary.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) notifications() []secondary.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]secondary.Notification(nil), m.sent...)
}

// mockLogWriter implements secondary.LogWriter for testing.
type mockLogWriter struct {
	mu      sync.Mutex
	entries []string
}

func (m *mockLogWriter) LogCreate(ctx context.Context, entityType, entityID string) error {
	m.record("create " + entityType + " " + entityID)
	return nil
}

func (m *mockLogWriter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	m.record("update " + entityType + " " + entityID + " " + fieldName + " " + oldValue + "->" + newValue)
	return nil
}

func (m *mockLogWriter) LogDelete(ctx context.Context, entityType, entityID string) error {
	m.record("delete " + entityType + " " + entityID)
	return nil
}

func (m *mockLogWriter) record(entry string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *mockLogWriter) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries...)
}

// ============================================================================
// Fake Time
// ============================================================================

// fakeClock is a manually advanced clock. Its sleep advances time instead
// of blocking and can run a hook to simulate concurrent writers.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  []time.Duration
	onSleep func(d time.Duration)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	hook := c.onSleep
	c.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

// ============================================================================
// Test Environment
// ============================================================================

// testEnv wires the watchlist services over in-memory mocks.
type testEnv struct {
	metadata  *mockMetadataRepository
	prices    *mockPriceRepository
	legacy    *mockLegacyRepository
	settings  *SettingsServiceImpl
	source    *mockPriceSource
	notifier  *mockNotifier
	activity  *mockLogWriter
	clock     *fakeClock
	merger    *WatchlistMerger
	watchlist *WatchlistServiceImpl
	refresh   *RefreshServiceImpl
	logs      *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		metadata: newMockMetadataRepository(),
		prices:   newMockPriceRepository(),
		legacy:   newMockLegacyRepository(),
		source:   newMockPriceSource(),
		notifier: &mockNotifier{},
		activity: &mockLogWriter{},
		clock:    newFakeClock(),
		logs:     &bytes.Buffer{},
	}
	logger := log.New(env.logs, "", 0)

	env.settings = NewSettingsService(newMockSettingsRepository(), env.activity)
	migrator := NewLegacyMigrator(env.metadata, env.prices, env.legacy, logger, env.clock.Now)
	env.merger = NewWatchlistMerger(env.metadata, env.prices, env.legacy, migrator)
	env.watchlist = NewWatchlistService(env.metadata, env.prices, env.merger, env.settings, env.source, env.activity, logger, WatchlistOptions{
		Now:   env.clock.Now,
		Sleep: env.clock.Sleep,
	})
	env.refresh = NewRefreshService(
		env.watchlist,
		env.merger,
		env.settings,
		env.source,
		NewEffectExecutor(env.notifier, logger),
		logger,
		0,
		env.clock.Now,
		env.clock.Sleep,
	)
	return env
}

// updateSettings applies a settings patch or fails the test.
func (e *testEnv) updateSettings(t *testing.T, patch map[string]any) {
	t.Helper()
	if _, err := e.settings.Update(context.Background(), patch); err != nil {
		t.Fatalf("failed to update settings: %v", err)
	}
}

// seedItem stores an item directly in both collections.
func (e *testEnv) seedItem(id, name string, price *int64, low, high *int64) {
	addedAt := e.clock.Now().UnixMilli()
	e.metadata.put(&secondary.ItemMetadataRecord{
		ID:            id,
		Name:          name,
		URL:           watchlist.FetchURL(id),
		ImageURL:      watchlist.ImageURL(id),
		LowThreshold:  low,
		HighThreshold: high,
		AddedAt:       addedAt,
	})
	if price != nil {
		e.prices.put(id, &secondary.PriceRecord{CurrentPrice: price, LastChecked: addedAt})
	}
}

// risingHistory returns n daily points ending at last.
func risingHistory(n int, last int64) []analysis.PricePoint {
	points := make([]analysis.PricePoint, n)
	for i := 0; i < n; i++ {
		price := last - int64(n-1-i)*1000
		points[i] = analysis.PricePoint{
			Date:      time.UnixMilli(1_699_000_000_000).AddDate(0, 0, i).Format("2006-01-02"),
			Price:     price,
			Timestamp: time.UnixMilli(1_699_000_000_000).AddDate(0, 0, i).UnixMilli(),
		}
	}
	return points
}
