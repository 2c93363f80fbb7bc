package financeService

import (
	"GymFinance/internal/api/finance"
	financeStats "GymFinance/internal/api/finance/stats"
	"GymFinance/internal/entity"
	"GymFinance/pkg/cache"
	contextPkg "GymFinance/pkg/context"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrDisposed = errors.New("finance store has been disposed")

const (
	cacheTransactionsPrefix = "finance:tx:"
	cacheTransactionList    = cacheTransactionsPrefix + "list"
	cacheTransactionRange   = cacheTransactionsPrefix + "range"
	cacheCategoriesPrefix   = "finance:categories"
)

// Start loads every slice and arms the periodic stats/chart refresh. The
// timer is armed even when the initial load fails; the failure is kept in
// the slice state and returned.
func (s *financeStore) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true

	loopCtx, cancel := context.WithCancel(contextPkg.WithRequestID(context.Background(), "finance-periodic-refresh"))
	s.cancel = cancel
	s.stop = make(chan struct{})
	for _, slice := range AllSlices {
		s.dirty[slice] = true
	}
	s.mu.Unlock()

	err := s.flush(ctx)

	s.wg.Add(1)
	go s.loop(loopCtx, s.stop)

	s.log.WithFields(logrus.Fields{
		"request_id":       contextPkg.GetRequestID(ctx),
		"refresh_interval": s.refreshInterval.String(),
		"period":           s.period,
	}).Info("Finance store started")

	return err
}

// Dispose stops the periodic refresh and waits for it to exit. No refresh
// result is applied afterwards.
func (s *financeStore) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	stop, cancel := s.stop, s.cancel
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.closeSubscribers()

	s.log.Info("Finance store disposed")
}

func (s *financeStore) loop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}

			s.markDirty(SliceStats, SliceChart)
			if err := s.flush(ctx); err != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": contextPkg.GetRequestID(ctx),
					"error":      err.Error(),
				}).Warn("Periodic finance refresh failed")
			}
		}
	}
}

// Refresh reloads the given slices, or all of them when none are named,
// bypassing cached reads.
func (s *financeStore) Refresh(ctx context.Context, slices ...Slice) error {
	if len(slices) == 0 {
		slices = AllSlices
	}
	for _, slice := range slices {
		if !slice.IsValid() {
			return finance.ErrInvalidSlice
		}
	}

	s.invalidateCache(ctx, slices...)
	s.markDirty(slices...)
	return s.flush(ctx)
}

func (s *financeStore) SetFilters(ctx context.Context, filters entity.TransactionFilters) error {
	normalized, err := filters.Normalize()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Rejected transaction filters")
		return err
	}

	s.mu.Lock()
	s.filters = normalized
	s.mu.Unlock()

	s.markDirty(SliceTransactions)
	return s.flush(ctx)
}

func (s *financeStore) SetPeriod(ctx context.Context, period entity.Period) error {
	if !period.IsValid() {
		return finance.ErrInvalidPeriod
	}

	s.mu.Lock()
	s.period = period
	s.mu.Unlock()

	s.markDirty(SliceStats, SliceChart)
	return s.flush(ctx)
}

// DismissError clears the error message of slice. The stale value stays.
func (s *financeStore) DismissError(slice Slice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.slices[slice]
	if !ok || st.Status != StatusErrored {
		return
	}

	st.Error = ""
	if st.LoadedAt.IsZero() {
		st.Status = StatusIdle
	} else {
		st.Status = StatusReady
	}
}

func (s *financeStore) markDirty(slices ...Slice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slice := range slices {
		s.dirty[slice] = true
	}
}

// afterMutation applies the invalidation graph for a successful change to
// source and flushes the affected slices.
func (s *financeStore) afterMutation(ctx context.Context, source Slice) {
	affected := dependents[source]

	s.invalidateCache(ctx, affected...)
	s.markDirty(affected...)

	if err := s.flush(ctx); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"source":     source,
			"error":      err.Error(),
		}).Warn("Refresh after mutation failed")
	}
}

// flush refreshes every dirty slice concurrently and returns the first error.
func (s *financeStore) flush(ctx context.Context) error {
	s.mu.Lock()
	pending := make([]Slice, 0, len(s.dirty))
	for _, slice := range AllSlices {
		if s.dirty[slice] {
			pending = append(pending, slice)
			delete(s.dirty, slice)
		}
	}
	s.mu.Unlock()

	var g errgroup.Group
	for _, slice := range pending {
		slice := slice
		g.Go(func() error {
			return s.refresh(ctx, slice)
		})
	}
	return g.Wait()
}

// refresh reloads one slice. The result is applied only if no newer refresh
// of the same slice was issued in the meantime.
func (s *financeStore) refresh(ctx context.Context, slice Slice) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	st := s.slices[slice]
	st.seq++
	seq := st.seq
	st.Status = StatusLoading
	filters := s.filters
	period := s.period
	s.mu.Unlock()

	apply, err := s.load(ctx, slice, filters, period)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil
	}
	defer func() {
		if st.seq == seq {
			s.publish(SliceEvent{Slice: slice, Status: st.Status, Error: st.Error, At: s.now()})
		}
	}()

	if st.seq != seq {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"slice":      slice,
			"seq":        seq,
			"latest":     st.seq,
		}).Debug("Discarding stale refresh result")
		return nil
	}

	if err != nil {
		st.Status = StatusErrored
		st.Error = err.Error()
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"slice":      slice,
			"error":      err.Error(),
		}).Error("Failed to refresh finance slice")
		return err
	}

	apply()
	st.Status = StatusReady
	st.Error = ""
	st.LoadedAt = s.now()
	return nil
}

// load fetches the data of slice and returns a function that stores it. The
// returned function must be called with mu held.
func (s *financeStore) load(ctx context.Context, slice Slice, filters entity.TransactionFilters, period entity.Period) (func(), error) {
	switch slice {
	case SliceTransactions:
		list, err := s.loadTransactions(ctx, filters)
		if err != nil {
			return nil, err
		}
		return func() { s.transactions = list }, nil

	case SliceCategories:
		list, err := s.loadCategories(ctx)
		if err != nil {
			return nil, err
		}
		return func() { s.categories = list }, nil

	case SliceStats:
		window, err := s.loadWindow(ctx, period)
		if err != nil {
			return nil, err
		}
		stats := financeStats.ComputeStats(window)
		return func() { s.stats = stats }, nil

	case SliceChart:
		window, err := s.loadWindow(ctx, period)
		if err != nil {
			return nil, err
		}
		chart := financeStats.ComputeChartSeries(window, financeStats.ChartOptions{
			Period:      period,
			BucketWidth: s.bucketWidth,
			Now:         s.now(),
		})
		return func() { s.chart = chart }, nil
	}

	return nil, finance.ErrInvalidSlice
}

func (s *financeStore) loadTransactions(ctx context.Context, filters entity.TransactionFilters) ([]entity.Transaction, error) {
	key, err := cache.Key(cacheTransactionList, filters)
	if err != nil {
		return nil, err
	}

	return cachedRead(ctx, s, cacheTransactionsPrefix, key, func(ctx context.Context) ([]entity.Transaction, error) {
		repo, err := s.financeRepository.NewClient(false)
		if err != nil {
			return nil, err
		}
		return repo.Transactions.List(ctx, filters)
	})
}

func (s *financeStore) loadCategories(ctx context.Context) ([]entity.TransactionCategory, error) {
	return cachedRead(ctx, s, cacheCategoriesPrefix, cacheCategoriesPrefix, func(ctx context.Context) ([]entity.TransactionCategory, error) {
		repo, err := s.financeRepository.NewClient(false)
		if err != nil {
			return nil, err
		}
		return repo.Categories.List(ctx)
	})
}

// loadWindow reads every transaction dated inside the period ending today.
func (s *financeStore) loadWindow(ctx context.Context, period entity.Period) ([]entity.Transaction, error) {
	now := s.now()
	start := period.Start(now)

	key, err := cache.Key(cacheTransactionRange, map[string]string{
		"start": start.Format(time.DateOnly),
		"end":   now.Format(time.DateOnly),
	})
	if err != nil {
		return nil, err
	}

	return cachedRead(ctx, s, cacheTransactionsPrefix, key, func(ctx context.Context) ([]entity.Transaction, error) {
		repo, err := s.financeRepository.NewClient(false)
		if err != nil {
			return nil, err
		}
		return repo.Transactions.ListInRange(ctx, start, now)
	})
}

// cachedRead serves key from the cache or loads it. The loaded value is only
// written back if prefix was not invalidated while the load was running.
func cachedRead[T any](ctx context.Context, s *financeStore, prefix, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"key":        key,
			"error":      err.Error(),
		}).Warn("Cache read failed, loading from repository")
	} else if hit {
		return cached, nil
	}

	s.cacheMu.Lock()
	generation := s.generations[prefix]
	s.cacheMu.Unlock()

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.generations[prefix] != generation {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"key":        key,
		}).Debug("Skipping cache write, entry invalidated during load")
		return value, nil
	}

	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"key":        key,
			"error":      err.Error(),
		}).Warn("Cache write failed")
	}
	return value, nil
}

func (s *financeStore) invalidateCache(ctx context.Context, slices ...Slice) {
	prefixes := make(map[string]struct{})
	for _, slice := range slices {
		switch slice {
		case SliceCategories:
			prefixes[cacheCategoriesPrefix] = struct{}{}
		default:
			prefixes[cacheTransactionsPrefix] = struct{}{}
		}
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	for prefix := range prefixes {
		s.generations[prefix]++
		if err := s.cache.InvalidatePrefix(ctx, prefix); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"prefix":     prefix,
				"error":      err.Error(),
			}).Warn("Cache invalidation failed")
		}
	}
}
