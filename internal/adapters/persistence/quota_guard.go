// Package persistence contains the storage-tier decorators and the JSON
// collection repositories built on secondary.KeyValueStore.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/example/getracker/internal/ports/secondary"
)

// FallbackKey is the local-namespace key recording that synced writes have
// been demoted.
const FallbackKey = "storageFallback"

// DefaultSafetyMargin is subtracted from the synced quota before comparing
// a write estimate against it.
const DefaultSafetyMargin = 5120

// QuotaGuard decorates the synced store. A write that would exceed
// quota minus margin, or that the synced store rejects as over quota, flips
// the guard into fallback mode: that write and everything after it go to
// the local store. Fallback mode is persisted and never cleared.
type QuotaGuard struct {
	synced secondary.KeyValueStore
	local  secondary.KeyValueStore
	quota  int
	margin int
	logger *log.Logger

	mu       sync.Mutex
	loaded   bool
	fallback bool
}

// NewQuotaGuard creates a QuotaGuard over the given stores.
func NewQuotaGuard(synced, local secondary.KeyValueStore, quota, margin int, logger *log.Logger) *QuotaGuard {
	if logger == nil {
		logger = log.Default()
	}
	return &QuotaGuard{
		synced: synced,
		local:  local,
		quota:  quota,
		margin: margin,
		logger: logger,
	}
}

// InFallback reports whether synced writes are being redirected.
func (g *QuotaGuard) InFallback(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.loadLocked(ctx); err != nil {
		return false, err
	}
	return g.fallback, nil
}

// Get reads from the synced store, or from the local store first when in
// fallback mode. Keys never written locally are still served from the
// synced copy. A failed synced read falls back to a local read.
func (g *QuotaGuard) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	fallback, err := g.InFallback(ctx)
	if err != nil {
		return nil, err
	}

	if !fallback {
		values, err := g.synced.Get(ctx, keys...)
		if err == nil {
			return values, nil
		}
		g.logger.Printf("synced read failed, reading local copy: %v", err)
		return g.local.Get(ctx, keys...)
	}

	values, err := g.local.Get(ctx, keys...)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, k := range keys {
		if _, ok := values[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return values, nil
	}
	stale, err := g.synced.Get(ctx, missing...)
	if err != nil {
		g.logger.Printf("synced read of %v failed in fallback mode: %v", missing, err)
		return values, nil
	}
	for k, v := range stale {
		values[k] = v
	}
	return values, nil
}

// Set writes to the synced store when the estimate fits the budget,
// otherwise it enters fallback mode and writes locally.
func (g *QuotaGuard) Set(ctx context.Context, entries map[string][]byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.loadLocked(ctx); err != nil {
		return err
	}
	if g.fallback {
		return g.local.Set(ctx, entries)
	}

	estimate, err := g.estimate(ctx, entries)
	if err != nil {
		return err
	}
	if limit := g.quota - g.margin; estimate > limit {
		if err := g.enterFallbackLocked(ctx, fmt.Sprintf("estimated %d bytes exceeds budget of %d", estimate, limit)); err != nil {
			return err
		}
		return g.local.Set(ctx, entries)
	}

	err = g.synced.Set(ctx, entries)
	var quotaErr *secondary.QuotaExceededError
	if errors.As(err, &quotaErr) {
		if err := g.enterFallbackLocked(ctx, quotaErr.Error()); err != nil {
			return err
		}
		return g.local.Set(ctx, entries)
	}
	return err
}

// Remove deletes from whichever store is active. In fallback mode the stale
// synced copy is removed too so it cannot resurface through Get.
func (g *QuotaGuard) Remove(ctx context.Context, keys ...string) error {
	fallback, err := g.InFallback(ctx)
	if err != nil {
		return err
	}
	if !fallback {
		return g.synced.Remove(ctx, keys...)
	}
	if err := g.local.Remove(ctx, keys...); err != nil {
		return err
	}
	if err := g.synced.Remove(ctx, keys...); err != nil {
		g.logger.Printf("failed to remove stale synced keys %v: %v", keys, err)
	}
	return nil
}

// BytesInUse reports usage of the active store.
func (g *QuotaGuard) BytesInUse(ctx context.Context, keys ...string) (int, error) {
	fallback, err := g.InFallback(ctx)
	if err != nil {
		return 0, err
	}
	if fallback {
		return g.local.BytesInUse(ctx, keys...)
	}
	return g.synced.BytesInUse(ctx, keys...)
}

// estimate returns the synced usage after the write: current usage minus
// the keys being overwritten plus the payload.
func (g *QuotaGuard) estimate(ctx context.Context, entries map[string][]byte) (int, error) {
	keys := make([]string, 0, len(entries))
	payload := 0
	for k, v := range entries {
		keys = append(keys, k)
		payload += len(k) + len(v)
	}
	sort.Strings(keys)

	inUse, err := g.synced.BytesInUse(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to measure synced usage: %w", err)
	}
	overwritten, err := g.synced.BytesInUse(ctx, keys...)
	if err != nil {
		return 0, fmt.Errorf("failed to measure synced usage: %w", err)
	}
	return inUse - overwritten + payload, nil
}

func (g *QuotaGuard) loadLocked(ctx context.Context) error {
	if g.loaded {
		return nil
	}
	values, err := g.local.Get(ctx, FallbackKey)
	if err != nil {
		return fmt.Errorf("failed to read fallback flag: %w", err)
	}
	g.fallback = string(values[FallbackKey]) == "true"
	g.loaded = true
	return nil
}

func (g *QuotaGuard) enterFallbackLocked(ctx context.Context, reason string) error {
	if err := g.local.Set(ctx, map[string][]byte{FallbackKey: []byte("true")}); err != nil {
		return fmt.Errorf("failed to persist fallback flag: %w", err)
	}
	g.fallback = true
	g.logger.Printf("synced storage quota reached (%s); switching to local storage", reason)
	return nil
}

// Ensure QuotaGuard implements the interface
var _ secondary.KeyValueStore = (*QuotaGuard)(nil)
