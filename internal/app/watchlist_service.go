package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/example/getracker/internal/core/analysis"
	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/ports/secondary"
)

const (
	maxThresholdAttempts = 3

	defaultVerifyDelay = 100 * time.Millisecond
	defaultRetryBase   = 200 * time.Millisecond
)

// WatchlistOptions tunes the threshold verification loop and injects time.
// Zero values take defaults.
type WatchlistOptions struct {
	VerifyDelay time.Duration
	RetryBase   time.Duration
	Now         Clock
	Sleep       Sleeper
}

// WatchlistServiceImpl implements the WatchlistService interface.
// Every mutation runs behind one weight-1 semaphore.
type WatchlistServiceImpl struct {
	metadataRepo    secondary.MetadataRepository
	priceRepo       secondary.PriceRepository
	merger          *WatchlistMerger
	settingsService primary.SettingsService
	priceSource     secondary.PriceSource
	logWriter       secondary.LogWriter
	logger          *log.Logger

	lock        *semaphore.Weighted
	verifyDelay time.Duration
	retryBase   time.Duration
	now         Clock
	sleep       Sleeper
}

// NewWatchlistService creates a new WatchlistService with injected dependencies.
func NewWatchlistService(
	metadataRepo secondary.MetadataRepository,
	priceRepo secondary.PriceRepository,
	merger *WatchlistMerger,
	settingsService primary.SettingsService,
	priceSource secondary.PriceSource,
	logWriter secondary.LogWriter,
	logger *log.Logger,
	opts WatchlistOptions,
) *WatchlistServiceImpl {
	if logger == nil {
		logger = log.Default()
	}
	if opts.VerifyDelay <= 0 {
		opts.VerifyDelay = defaultVerifyDelay
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if logWriter == nil {
		logWriter = noopLogWriter{}
	}
	return &WatchlistServiceImpl{
		metadataRepo:    metadataRepo,
		priceRepo:       priceRepo,
		merger:          merger,
		settingsService: settingsService,
		priceSource:     priceSource,
		logWriter:       logWriter,
		logger:          logger,
		lock:            semaphore.NewWeighted(1),
		verifyDelay:     opts.VerifyDelay,
		retryBase:       opts.RetryBase,
		now:             opts.Now,
		sleep:           opts.Sleep,
	}
}

// withLock runs fn holding the mutation lock. Release is deferred so a
// failing or panicking fn cannot leak it.
func (s *WatchlistServiceImpl) withLock(ctx context.Context, fn func() error) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire watchlist lock: %w", err)
	}
	defer s.lock.Release(1)
	return fn()
}

// AddItem adds an item to the watchlist.
func (s *WatchlistServiceImpl) AddItem(ctx context.Context, req primary.AddItemRequest) (*primary.WatchlistItem, error) {
	if err := watchlist.CanAddItem(req.ID).Error(); err != nil {
		return nil, err
	}

	settings, err := s.settingsService.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	created := false
	err = s.withLock(ctx, func() error {
		if err := s.merger.EnsureMigrated(ctx); err != nil {
			return err
		}
		metadata, err := s.metadataRepo.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load item metadata: %w", err)
		}
		if _, exists := metadata[req.ID]; exists {
			return nil
		}

		now := s.now().UnixMilli()
		low, high := watchlist.DefaultThresholds(req.CurrentPrice, settings.DefaultAlertType, settings.AlertThreshold)
		metadata[req.ID] = &secondary.ItemMetadataRecord{
			ID:            req.ID,
			Name:          watchlist.DeriveName(req.ID, req.Name, req.SourceURL),
			URL:           watchlist.FetchURL(req.ID),
			OriginalURL:   req.SourceURL,
			ImageURL:      watchlist.ImageURL(req.ID),
			LowThreshold:  low,
			HighThreshold: high,
			AddedAt:       now,
		}
		if err := s.metadataRepo.SaveAll(ctx, metadata); err != nil {
			return fmt.Errorf("failed to save item metadata: %w", err)
		}

		if req.CurrentPrice != nil {
			record := &secondary.PriceRecord{
				CurrentPrice:  req.CurrentPrice,
				LastChecked:   now,
				PriceAnalysis: analysis.Analyze(req.History),
			}
			if len(req.History) > 0 {
				record.LastHistoryUpdate = now
			}
			if err := s.priceRepo.Save(ctx, req.ID, record); err != nil {
				return fmt.Errorf("failed to save price record: %w", err)
			}
			if len(req.History) > 0 {
				if err := s.priceRepo.StoreHistory(ctx, req.ID, req.History); err != nil {
					return fmt.Errorf("failed to save price history: %w", err)
				}
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logActivity(s.logWriter.LogCreate(ctx, "item", req.ID))
		if req.CurrentPrice == nil {
			s.commitInitialFetch(ctx, req.ID, settings)
		}
	}

	return s.GetItem(ctx, req.ID)
}

// commitInitialFetch fetches a freshly added item outside the lock and
// commits the quote, plus default thresholds derived from it, through
// ApplyBulkUpdate. A threshold edit made meanwhile wins over the defaults.
func (s *WatchlistServiceImpl) commitInitialFetch(ctx context.Context, itemID string, settings *watchlist.Settings) {
	quote := s.priceSource.Fetch(ctx, itemID)
	if quote == nil {
		s.logger.Printf("initial price fetch for item %s failed; the next refresh will retry", itemID)
		return
	}

	now := s.now().UnixMilli()
	price := quote.CurrentPrice
	patch := watchlist.ItemPatch{
		CurrentPrice: &price,
		LastChecked:  &now,
		Analysis:     analysis.Analyze(quote.History),
	}
	if len(quote.History) > 0 {
		patch.History = quote.History
		patch.LastHistoryUpdate = &now
	}
	if low, high := watchlist.DefaultThresholds(&price, settings.DefaultAlertType, settings.AlertThreshold); low != nil || high != nil {
		patch.Thresholds = &watchlist.ThresholdPatch{Low: low, High: high, Baseline: 0}
	}

	if err := s.ApplyBulkUpdate(ctx, map[string]watchlist.ItemPatch{itemID: patch}, nil); err != nil {
		s.logger.Printf("failed to commit initial price for item %s: %v", itemID, err)
	}
}

// RemoveItem deletes an item, its price record and its history.
func (s *WatchlistServiceImpl) RemoveItem(ctx context.Context, itemID string) error {
	var removed []string
	err := s.withLock(ctx, func() error {
		var err error
		removed, err = s.applyLocked(ctx, nil, []string{itemID})
		return err
	})
	if err != nil {
		return err
	}
	for _, id := range removed {
		s.logActivity(s.logWriter.LogDelete(ctx, "item", id))
	}
	return nil
}

// UpdateThresholds writes both thresholds with a fresh conflict token, then
// verifies after a short delay that no concurrent writer clobbered them.
func (s *WatchlistServiceImpl) UpdateThresholds(ctx context.Context, itemID string, low, high *int64) (*primary.WatchlistItem, error) {
	if err := watchlist.CanSetThresholds(low, high).Error(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxThresholdAttempts; attempt++ {
		var token int64
		var previous secondary.ItemMetadataRecord

		err := s.withLock(ctx, func() error {
			if err := s.merger.EnsureMigrated(ctx); err != nil {
				return err
			}
			metadata, err := s.metadataRepo.GetAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to load item metadata: %w", err)
			}
			md, ok := metadata[itemID]
			if !ok || md == nil {
				return &watchlist.NotFoundError{ItemID: itemID}
			}
			previous = *md

			token = s.now().UnixMilli()
			if token <= md.LastThresholdUpdate {
				token = md.LastThresholdUpdate + 1
			}
			md.LowThreshold = low
			md.HighThreshold = high
			md.LastThresholdUpdate = token
			if err := s.metadataRepo.SaveAll(ctx, metadata); err != nil {
				return fmt.Errorf("failed to save thresholds: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		if err := s.sleep(ctx, s.verifyDelay); err != nil {
			return nil, err
		}

		verified, err := s.verifyThresholds(ctx, itemID, token, low, high)
		if err != nil {
			return nil, err
		}
		if verified {
			s.logActivity(s.logWriter.LogUpdate(ctx, "item", itemID, "lowThreshold", formatThreshold(previous.LowThreshold), formatThreshold(low)))
			s.logActivity(s.logWriter.LogUpdate(ctx, "item", itemID, "highThreshold", formatThreshold(previous.HighThreshold), formatThreshold(high)))
			return s.GetItem(ctx, itemID)
		}

		s.logger.Printf("threshold update for item %s was overwritten (attempt %d/%d)", itemID, attempt, maxThresholdAttempts)
		if attempt < maxThresholdAttempts {
			if err := s.sleep(ctx, s.retryBase*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, &watchlist.ConflictError{ItemID: itemID, Attempts: maxThresholdAttempts}
}

// verifyThresholds re-reads the item and reports whether our write survived.
func (s *WatchlistServiceImpl) verifyThresholds(ctx context.Context, itemID string, token int64, low, high *int64) (bool, error) {
	metadata, err := s.metadataRepo.GetAll(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to verify thresholds: %w", err)
	}
	md, ok := metadata[itemID]
	if !ok || md == nil {
		return false, &watchlist.NotFoundError{ItemID: itemID}
	}
	return md.LastThresholdUpdate == token && equalThreshold(md.LowThreshold, low) && equalThreshold(md.HighThreshold, high), nil
}

// ApplyBulkUpdate commits shallow patches and removals in one critical section.
func (s *WatchlistServiceImpl) ApplyBulkUpdate(ctx context.Context, updates map[string]watchlist.ItemPatch, removeIDs []string) error {
	var removed []string
	err := s.withLock(ctx, func() error {
		var err error
		removed, err = s.applyLocked(ctx, updates, removeIDs)
		return err
	})
	if err != nil {
		return err
	}
	for _, id := range removed {
		s.logActivity(s.logWriter.LogDelete(ctx, "item", id))
	}
	return nil
}

// applyLocked re-reads both collections, merges the patches, applies the
// removals and writes back. Must hold the lock. Returns the ids that were
// actually removed.
func (s *WatchlistServiceImpl) applyLocked(ctx context.Context, updates map[string]watchlist.ItemPatch, removeIDs []string) ([]string, error) {
	if err := s.merger.EnsureMigrated(ctx); err != nil {
		return nil, err
	}
	metadata, err := s.metadataRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load item metadata: %w", err)
	}
	prices, err := s.priceRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price data: %w", err)
	}

	removing := make(map[string]bool, len(removeIDs))
	for _, id := range removeIDs {
		removing[id] = true
	}

	metadataChanged, pricesChanged := false, false
	histories := make(map[string][]analysis.PricePoint)

	ids := make([]string, 0, len(updates))
	for id := range updates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		patch := updates[id]
		md, ok := metadata[id]
		if removing[id] || !ok || md == nil {
			continue
		}

		if applyMetadataPatch(md, patch) {
			metadataChanged = true
		}
		if patch.Thresholds != nil {
			if md.LastThresholdUpdate > patch.Thresholds.Baseline {
				s.logger.Printf("dropping stale threshold patch for item %s", id)
			} else {
				md.LowThreshold = patch.Thresholds.Low
				md.HighThreshold = patch.Thresholds.High
				metadataChanged = true
			}
		}

		if patch.TouchesPrice() {
			pr := prices[id]
			if pr == nil {
				pr = &secondary.PriceRecord{LastChecked: md.AddedAt}
				prices[id] = pr
			}
			applyPricePatch(pr, patch)
			pricesChanged = true
		}
		if len(patch.History) > 0 {
			histories[id] = patch.History
		}
	}

	var removed []string
	for _, id := range removeIDs {
		_, inMetadata := metadata[id]
		_, inPrices := prices[id]
		if inMetadata {
			delete(metadata, id)
			metadataChanged = true
			removed = append(removed, id)
		}
		if inPrices {
			delete(prices, id)
			pricesChanged = true
		}
	}

	if metadataChanged {
		if err := s.metadataRepo.SaveAll(ctx, metadata); err != nil {
			return nil, fmt.Errorf("failed to save item metadata: %w", err)
		}
	}
	if pricesChanged {
		if err := s.priceRepo.SaveAll(ctx, prices); err != nil {
			return nil, fmt.Errorf("failed to save price data: %w", err)
		}
	}
	for _, id := range sortedHistoryIDs(histories) {
		if err := s.priceRepo.StoreHistory(ctx, id, histories[id]); err != nil {
			return nil, fmt.Errorf("failed to save price history for %s: %w", id, err)
		}
	}
	if len(removeIDs) > 0 {
		if err := s.priceRepo.RemoveHistory(ctx, removeIDs...); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

// replaceAll swaps both collections for the given items. Items are
// normalized the same way migrated legacy items are, and histories of
// dropped ids are deleted. Returns the ids that were dropped.
func (s *WatchlistServiceImpl) replaceAll(ctx context.Context, items map[string]*primary.WatchlistItem) ([]string, error) {
	var dropped []string
	err := s.withLock(ctx, func() error {
		if err := s.merger.EnsureMigrated(ctx); err != nil {
			return err
		}
		current, err := s.metadataRepo.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load item metadata: %w", err)
		}

		now := s.now().UnixMilli()
		metadata := make(map[string]*secondary.ItemMetadataRecord, len(items))
		prices := make(map[string]*secondary.PriceRecord, len(items))
		for id, item := range items {
			if item == nil {
				continue
			}
			md, pr := splitLegacyItem(id, legacyFromItem(item), now)
			metadata[id] = md
			if pr != nil {
				prices[id] = pr
			}
		}
		for id := range current {
			if _, kept := metadata[id]; !kept {
				dropped = append(dropped, id)
			}
		}
		sort.Strings(dropped)

		if err := s.metadataRepo.SaveAll(ctx, metadata); err != nil {
			return fmt.Errorf("failed to save item metadata: %w", err)
		}
		if err := s.priceRepo.SaveAll(ctx, prices); err != nil {
			return fmt.Errorf("failed to save price data: %w", err)
		}
		if len(dropped) > 0 {
			if err := s.priceRepo.RemoveHistory(ctx, dropped...); err != nil {
				return err
			}
		}
		return nil
	})
	return dropped, err
}

// GetWatchlist returns the merged view keyed by item id.
func (s *WatchlistServiceImpl) GetWatchlist(ctx context.Context) (map[string]*primary.WatchlistItem, error) {
	return s.merger.GetWatchlist(ctx)
}

// ListItems returns the merged view ordered by the sortOrder setting.
func (s *WatchlistServiceImpl) ListItems(ctx context.Context) ([]*primary.WatchlistItem, error) {
	settings, err := s.settingsService.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	items, err := s.merger.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]*primary.WatchlistItem, 0, len(items))
	for _, item := range items {
		list = append(list, item)
	}
	sort.Slice(list, func(i, j int) bool {
		return watchlist.Less(settings.SortOrder, sortFields(list[i]), sortFields(list[j]))
	})
	return list, nil
}

// GetItem returns one merged item.
func (s *WatchlistServiceImpl) GetItem(ctx context.Context, itemID string) (*primary.WatchlistItem, error) {
	items, err := s.merger.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}
	item, ok := items[itemID]
	if !ok {
		return nil, &watchlist.NotFoundError{ItemID: itemID}
	}
	return item, nil
}

// GetHistory returns an item's stored price history.
func (s *WatchlistServiceImpl) GetHistory(ctx context.Context, itemID string) ([]analysis.PricePoint, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	history, err := s.priceRepo.GetHistory(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return history, nil
}

// ActiveAlertCount returns how many items sit at or beyond a threshold.
func (s *WatchlistServiceImpl) ActiveAlertCount(ctx context.Context) (int, error) {
	items, err := s.merger.GetWatchlist(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range items {
		if watchlist.IsAlerting(item.CurrentPrice, item.LowThreshold, item.HighThreshold) {
			count++
		}
	}
	return count, nil
}

// logActivity reports activity log failures without failing the operation.
func (s *WatchlistServiceImpl) logActivity(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Printf("failed to write activity log: %v", err)
	}
}

// Helper methods

func applyMetadataPatch(md *secondary.ItemMetadataRecord, patch watchlist.ItemPatch) bool {
	changed := false
	if patch.Name != nil {
		md.Name = *patch.Name
		changed = true
	}
	if patch.ImageURL != nil {
		md.ImageURL = *patch.ImageURL
		changed = true
	}
	return changed
}

func applyPricePatch(pr *secondary.PriceRecord, patch watchlist.ItemPatch) {
	if patch.CurrentPrice != nil {
		pr.CurrentPrice = patch.CurrentPrice
	}
	if patch.PreviousPrice != nil {
		pr.PreviousPrice = patch.PreviousPrice
	}
	if patch.LastChecked != nil {
		pr.LastChecked = *patch.LastChecked
	}
	if patch.Analysis != nil {
		pr.PriceAnalysis = patch.Analysis
	}
	if patch.LastHistoryUpdate != nil {
		pr.LastHistoryUpdate = *patch.LastHistoryUpdate
	}
	if patch.LastLowAlert != nil {
		pr.LastLowAlert = patch.LastLowAlert
	}
	if patch.LastHighAlert != nil {
		pr.LastHighAlert = patch.LastHighAlert
	}
}

func sortFields(item *primary.WatchlistItem) watchlist.SortFields {
	return watchlist.SortFields{
		ID:            item.ID,
		Name:          item.Name,
		AddedAt:       item.AddedAt,
		CurrentPrice:  item.CurrentPrice,
		LowThreshold:  item.LowThreshold,
		HighThreshold: item.HighThreshold,
	}
}

func sortedHistoryIDs(histories map[string][]analysis.PricePoint) []string {
	ids := make([]string, 0, len(histories))
	for id := range histories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func equalThreshold(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func formatThreshold(v *int64) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatInt(*v, 10)
}

// Ensure WatchlistServiceImpl implements the interface
var _ primary.WatchlistService = (*WatchlistServiceImpl)(nil)

func legacyFromItem(item *primary.WatchlistItem) *secondary.LegacyItemRecord {
	return &secondary.LegacyItemRecord{
		ItemMetadataRecord: secondary.ItemMetadataRecord{
			ID:                  item.ID,
			Name:                item.Name,
			OriginalURL:         item.OriginalURL,
			LowThreshold:        item.LowThreshold,
			HighThreshold:       item.HighThreshold,
			AddedAt:             item.AddedAt,
			LastThresholdUpdate: item.LastThresholdUpdate,
		},
		PriceRecord: secondary.PriceRecord{
			CurrentPrice:      item.CurrentPrice,
			PreviousPrice:     item.PreviousPrice,
			LastChecked:       item.LastChecked,
			PriceAnalysis:     item.PriceAnalysis,
			LastHistoryUpdate: item.LastHistoryUpdate,
			LastLowAlert:      item.LastLowAlert,
			LastHighAlert:     item.LastHighAlert,
		},
	}
}
