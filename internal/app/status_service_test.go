package app

import (
	"context"
	"errors"
	"testing"
)

// ============================================================================
// Mocks
// ============================================================================

type mockSizedStore struct {
	bytes int
	err   error
}

func (m *mockSizedStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	return map[string][]byte{}, nil
}

func (m *mockSizedStore) Set(ctx context.Context, entries map[string][]byte) error {
	return nil
}

func (m *mockSizedStore) Remove(ctx context.Context, keys ...string) error {
	return nil
}

func (m *mockSizedStore) BytesInUse(ctx context.Context, keys ...string) (int, error) {
	return m.bytes, m.err
}

type mockFallbackReporter struct {
	fallback bool
}

func (m *mockFallbackReporter) InFallback(ctx context.Context) (bool, error) {
	return m.fallback, nil
}

// ============================================================================
// Tests
// ============================================================================

func TestStatusService_Status(t *testing.T) {
	t.Run("reports usage and alerts", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedItem("4151", "Abyssal whip", int64Ptr(800), int64Ptr(900), int64Ptr(1100))
		env.seedItem("1215", "Dragon dagger", int64Ptr(17000), nil, nil)
		svc := NewStatusService(&mockSizedStore{bytes: 2048}, &mockSizedStore{bytes: 65536}, &mockFallbackReporter{fallback: true}, 102400, env.watchlist)

		status, err := svc.Status(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.SyncedBytes != 2048 || status.SyncedQuota != 102400 || status.LocalBytes != 65536 {
			t.Errorf("unexpected usage: %+v", status)
		}
		if !status.FallbackMode {
			t.Error("expected fallback mode")
		}
		if status.Items != 2 {
			t.Errorf("expected 2 items, got %d", status.Items)
		}
		if status.ActiveAlerts != 1 {
			t.Errorf("expected 1 active alert, got %d", status.ActiveAlerts)
		}
	})

	t.Run("storage errors propagate", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewStatusService(&mockSizedStore{err: errors.New("disk gone")}, &mockSizedStore{}, &mockFallbackReporter{}, 102400, env.watchlist)

		if _, err := svc.Status(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	})
}
