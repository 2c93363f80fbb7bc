package financeService

import (
	"GymFinance/internal/api/finance"
	financeRepository "GymFinance/internal/api/finance/repository"
	"GymFinance/internal/entity"
	"GymFinance/pkg/cache"
	"GymFinance/pkg/log"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

type fakeTransactions struct {
	mu         sync.Mutex
	items      []entity.Transaction
	listCalls  int
	rangeCalls int
	listErr    error
	rangeErr   error
	createErr  error
	listHook   func(filters entity.TransactionFilters)
}

func (f *fakeTransactions) List(_ context.Context, filters entity.TransactionFilters) ([]entity.Transaction, error) {
	f.mu.Lock()
	f.listCalls++
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		hook(filters)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]entity.Transaction, 0)
	for _, t := range f.items {
		if filters.Category != "" && t.Category != filters.Category {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTransactions) ListInRange(_ context.Context, start, end time.Time) ([]entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rangeCalls++
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	out := make([]entity.Transaction, 0)
	for _, t := range f.items {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.items {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeTransactions) Create(_ context.Context, t entity.Transaction) (entity.Transaction, error) {
	if err := t.Validate(); err != nil {
		return entity.Transaction{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return entity.Transaction{}, f.createErr
	}
	t.ID = "tx-new"
	f.items = append(f.items, t)
	return t, nil
}

func (f *fakeTransactions) Update(_ context.Context, id string, patch entity.TransactionPatch) (entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.items {
		if t.ID == id {
			f.items[i] = patch.Apply(t)
			return f.items[i], nil
		}
	}
	return entity.Transaction{}, finance.ErrTransactionNotFound
}

func (f *fakeTransactions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.items {
		if t.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return finance.ErrTransactionNotFound
}

func (f *fakeTransactions) calls() (list, rng int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.rangeCalls
}

type fakeCategories struct {
	mu        sync.Mutex
	items     []entity.TransactionCategory
	listCalls int
}

func (f *fakeCategories) List(context.Context) ([]entity.TransactionCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	return append([]entity.TransactionCategory{}, f.items...), nil
}

func (f *fakeCategories) GetByID(_ context.Context, id string) (*entity.TransactionCategory, error) {
	return nil, nil
}

func (f *fakeCategories) Create(_ context.Context, c entity.TransactionCategory) (entity.TransactionCategory, error) {
	if err := c.Validate(); err != nil {
		return entity.TransactionCategory{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	c.ID = "cat-new"
	f.items = append(f.items, c)
	return c, nil
}

func (f *fakeCategories) Update(_ context.Context, id string, patch entity.CategoryPatch) (entity.TransactionCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, c := range f.items {
		if c.ID == id {
			f.items[i] = patch.Apply(c)
			return f.items[i], nil
		}
	}
	return entity.TransactionCategory{}, finance.ErrCategoryNotFound
}

func (f *fakeCategories) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, c := range f.items {
		if c.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return finance.ErrCategoryNotFound
}

func (f *fakeCategories) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeRepository struct {
	transactions *fakeTransactions
	categories   *fakeCategories
}

func (r *fakeRepository) NewClient(bool) (financeRepository.Client, error) {
	noop := func() error { return nil }
	return financeRepository.Client{
		Transactions: r.transactions,
		Categories:   r.categories,
		Commit:       noop,
		Rollback:     noop,
	}, nil
}

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func newFixture() *fakeRepository {
	return &fakeRepository{
		transactions: &fakeTransactions{
			items: []entity.Transaction{
				{ID: "tx-1", Description: "Membership", Amount: decimal.NewFromInt(120), Type: entity.TransactionTypeIncome, Status: entity.TransactionStatusCompleted, Category: "Membership", Date: day(3, 15)},
				{ID: "tx-2", Description: "Mats", Amount: decimal.NewFromInt(750), Type: entity.TransactionTypeExpense, Status: entity.TransactionStatusCompleted, Category: "Equipment", Date: day(3, 10)},
				{ID: "tx-3", Description: "Seminar", Amount: decimal.NewFromInt(350), Type: entity.TransactionTypeIncome, Status: entity.TransactionStatusPending, Category: "Events", Date: day(3, 12)},
				{ID: "tx-old", Description: "Last year", Amount: decimal.NewFromInt(999), Type: entity.TransactionTypeIncome, Status: entity.TransactionStatusCompleted, Category: "Membership", Date: day(1, 2).AddDate(-1, 0, 0)},
			},
		},
		categories: &fakeCategories{
			items: []entity.TransactionCategory{
				{ID: "cat-1", Name: "Equipment", Type: entity.CategoryTypeExpense},
			},
		},
	}
}

func newTestStore(t *testing.T, repo *fakeRepository, options ...Option) IFinanceStore {
	t.Helper()

	options = append([]Option{WithClock(func() time.Time { return testNow })}, options...)
	store := NewFinanceStore(log.NewDiscardLogger(), repo, options...)
	t.Cleanup(store.Dispose)
	return store
}

func TestFinanceStore_StartLoadsEverySlice(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)

	for _, slice := range AllSlices {
		assert.Equal(t, StatusIdle, store.Status(slice).Status)
	}

	require.NoError(t, store.Start(context.Background()))

	for _, slice := range AllSlices {
		assert.Equal(t, StatusReady, store.Status(slice).Status, slice)
	}

	assert.Len(t, store.Transactions(), 4)
	assert.Len(t, store.Categories(), 1)

	stats := store.Stats()
	assert.True(t, decimal.NewFromInt(120).Equal(stats.TotalIncome))
	assert.True(t, decimal.NewFromInt(750).Equal(stats.TotalExpenses))
	assert.True(t, decimal.NewFromInt(-630).Equal(stats.NetIncome))
	assert.True(t, decimal.NewFromInt(350).Equal(stats.PendingIncome))
	require.Len(t, stats.TopCategories, 1)
	assert.Equal(t, "Equipment", stats.TopCategories[0].Name)

	chart := store.Chart()
	assert.Len(t, chart.Labels, 29)
	assert.Equal(t, len(chart.Labels), len(chart.IncomeData))
	assert.Equal(t, len(chart.Labels), len(chart.ExpenseData))

	assert.NoError(t, store.Start(context.Background()), "second start is a no-op")
}

func TestFinanceStore_FirstLoadStartsEmpty(t *testing.T) {
	store := newTestStore(t, newFixture())

	assert.NotNil(t, store.Transactions())
	assert.Empty(t, store.Transactions())
	assert.NotNil(t, store.Categories())
	assert.True(t, store.Stats().TotalIncome.IsZero())
	assert.Empty(t, store.Chart().Labels)
}

func TestFinanceStore_LatestFilterWins(t *testing.T) {
	repo := newFixture()
	repo.transactions.items = append(repo.transactions.items, entity.Transaction{
		ID: "tx-stale", Description: "stale", Amount: decimal.NewFromInt(1), Type: entity.TransactionTypeIncome,
		Status: entity.TransactionStatusCompleted, Category: "slow", Date: day(3, 1),
	})

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	repo.transactions.listHook = func(filters entity.TransactionFilters) {
		if filters.Category == "slow" {
			started <- struct{}{}
			<-release
		}
	}

	store := newTestStore(t, repo)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- store.SetFilters(ctx, entity.TransactionFilters{Category: "slow"})
	}()
	<-started

	require.NoError(t, store.SetFilters(ctx, entity.TransactionFilters{Category: "Equipment"}))
	close(release)
	require.NoError(t, <-done)

	list := store.Transactions()
	require.Len(t, list, 1)
	assert.Equal(t, "tx-2", list[0].ID)
	assert.Equal(t, "Equipment", store.Filters().Category)
	assert.Equal(t, StatusReady, store.Status(SliceTransactions).Status)
}

func TestFinanceStore_SetFiltersRejectsMalformed(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)

	err := store.SetFilters(context.Background(), entity.TransactionFilters{SortBy: "notes"})
	assert.ErrorIs(t, err, finance.ErrInvalidSortColumn)

	listCalls, _ := repo.transactions.calls()
	assert.Zero(t, listCalls)
	assert.Equal(t, entity.SortByDate, store.Filters().SortBy)
}

func TestFinanceStore_FailedMutationDoesNotRefresh(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)
	ctx := context.Background()
	require.NoError(t, store.Start(ctx))

	before := store.Transactions()
	listBefore, rangeBefore := repo.transactions.calls()

	err := store.RemoveTransaction(ctx, "does-not-exist")
	assert.ErrorIs(t, err, finance.ErrTransactionNotFound)
	assert.True(t, finance.IsNotFoundError(err))

	_, err = store.AddTransaction(ctx, entity.Transaction{Description: "Broken", Amount: decimal.Zero})
	assert.True(t, finance.IsValidationError(err))

	listAfter, rangeAfter := repo.transactions.calls()
	assert.Equal(t, listBefore, listAfter)
	assert.Equal(t, rangeBefore, rangeAfter)
	assert.Equal(t, before, store.Transactions())
}

func TestFinanceStore_TransactionMutationRefreshesDependents(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)
	ctx := context.Background()
	require.NoError(t, store.Start(ctx))

	listBefore, rangeBefore := repo.transactions.calls()
	categoryCalls := repo.categories.calls()

	created, err := store.AddTransaction(ctx, entity.Transaction{
		Description: "Rash guards",
		Amount:      decimal.NewFromInt(250),
		Type:        entity.TransactionTypeExpense,
		Status:      entity.TransactionStatusCompleted,
		Category:    "Equipment",
		Date:        day(3, 18),
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-new", created.ID)

	listAfter, rangeAfter := repo.transactions.calls()
	assert.Equal(t, listBefore+1, listAfter)
	assert.Equal(t, rangeBefore+2, rangeAfter, "stats and chart both reload")
	assert.Equal(t, categoryCalls, repo.categories.calls())

	assert.Len(t, store.Transactions(), 5)
	assert.True(t, decimal.NewFromInt(1000).Equal(store.Stats().TotalExpenses))

	require.NoError(t, store.RemoveTransaction(ctx, "tx-new"))
	assert.Len(t, store.Transactions(), 4)
	assert.True(t, decimal.NewFromInt(750).Equal(store.Stats().TotalExpenses))

	status := entity.TransactionStatusCompleted
	_, err = store.EditTransaction(ctx, "tx-3", entity.TransactionPatch{Status: &status})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(470).Equal(store.Stats().TotalIncome))
	assert.True(t, store.Stats().PendingIncome.IsZero())
}

func TestFinanceStore_CategoryMutationRefreshesCategoriesOnly(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)
	ctx := context.Background()
	require.NoError(t, store.Start(ctx))

	listBefore, rangeBefore := repo.transactions.calls()

	_, err := store.AddCategory(ctx, entity.TransactionCategory{Name: "Membership", Type: entity.CategoryTypeIncome})
	require.NoError(t, err)
	assert.Len(t, store.Categories(), 2)

	name := "Gear"
	_, err = store.EditCategory(ctx, "cat-1", entity.CategoryPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Gear", store.Categories()[0].Name)

	require.NoError(t, store.RemoveCategory(ctx, "cat-new"))
	assert.Len(t, store.Categories(), 1)

	err = store.RemoveCategory(ctx, "cat-new")
	assert.ErrorIs(t, err, finance.ErrCategoryNotFound)

	listAfter, rangeAfter := repo.transactions.calls()
	assert.Equal(t, listBefore, listAfter)
	assert.Equal(t, rangeBefore, rangeAfter)
}

func TestFinanceStore_KeepsStaleValueOnFailure(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)
	ctx := context.Background()
	require.NoError(t, store.Start(ctx))

	loaded := store.Transactions()
	loadedStats := store.Stats()

	repo.transactions.mu.Lock()
	repo.transactions.listErr = finance.NewRepositoryError("list transactions", errors.New("connection reset by peer"))
	repo.transactions.rangeErr = finance.NewRepositoryError("list transactions in range", errors.New("connection reset by peer"))
	repo.transactions.mu.Unlock()

	err := store.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, finance.IsRepositoryError(err))

	state := store.Status(SliceTransactions)
	assert.Equal(t, StatusErrored, state.Status)
	assert.Contains(t, state.Error, "connection reset by peer")
	assert.Equal(t, StatusErrored, store.Status(SliceStats).Status)
	assert.Equal(t, StatusReady, store.Status(SliceCategories).Status)

	assert.Equal(t, loaded, store.Transactions())
	assert.True(t, loadedStats.TotalIncome.Equal(store.Stats().TotalIncome))

	store.DismissError(SliceTransactions)
	state = store.Status(SliceTransactions)
	assert.Equal(t, StatusReady, state.Status)
	assert.Empty(t, state.Error)
}

func TestFinanceStore_RefreshRejectsUnknownSlice(t *testing.T) {
	store := newTestStore(t, newFixture())

	err := store.Refresh(context.Background(), Slice("budgets"))
	assert.ErrorIs(t, err, finance.ErrInvalidSlice)
}

func TestFinanceStore_SetPeriod(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)
	ctx := context.Background()
	require.NoError(t, store.Start(ctx))

	assert.ErrorIs(t, store.SetPeriod(ctx, "decade"), finance.ErrInvalidPeriod)
	assert.Equal(t, entity.PeriodMonth, store.Period())

	require.NoError(t, store.SetPeriod(ctx, entity.PeriodYear))
	assert.Equal(t, entity.PeriodYear, store.Period())

	chart := store.Chart()
	assert.Len(t, chart.Labels, 13)
	assert.Equal(t, "Mar 2024", chart.Labels[0])
	assert.True(t, decimal.NewFromInt(120).Equal(store.Stats().TotalIncome), "last year's transaction is outside the window")
}

func TestFinanceStore_CachedReadsAreInvalidatedByMutations(t *testing.T) {
	repo := newFixture()
	memory := cache.NewMemory()
	t.Cleanup(memory.Close)

	store := newTestStore(t, repo, WithCache(memory, time.Minute))
	ctx := context.Background()
	require.NoError(t, store.Start(ctx))

	listCalls, _ := repo.transactions.calls()
	require.Equal(t, 1, listCalls)

	require.NoError(t, store.SetFilters(ctx, entity.TransactionFilters{}))
	listCalls, _ = repo.transactions.calls()
	assert.Equal(t, 1, listCalls, "same filters are served from cache")

	_, err := store.AddTransaction(ctx, entity.Transaction{
		Description: "Tape",
		Amount:      decimal.NewFromInt(15),
		Type:        entity.TransactionTypeExpense,
		Status:      entity.TransactionStatusCompleted,
		Category:    "Equipment",
		Date:        day(3, 19),
	})
	require.NoError(t, err)

	listCalls, _ = repo.transactions.calls()
	assert.Equal(t, 2, listCalls)
	assert.Len(t, store.Transactions(), 5)

	require.NoError(t, store.Refresh(ctx, SliceTransactions))
	listCalls, _ = repo.transactions.calls()
	assert.Equal(t, 3, listCalls, "explicit refresh bypasses the cache")
}

func TestFinanceStore_PeriodicRefreshStopsOnDispose(t *testing.T) {
	repo := newFixture()
	store := NewFinanceStore(log.NewDiscardLogger(), repo,
		WithClock(func() time.Time { return testNow }),
		WithRefreshInterval(10*time.Millisecond),
	)
	require.NoError(t, store.Start(context.Background()))

	listAtStart, rangeAtStart := repo.transactions.calls()

	assert.Eventually(t, func() bool {
		_, rng := repo.transactions.calls()
		return rng >= rangeAtStart+4
	}, time.Second, 5*time.Millisecond)

	listCalls, _ := repo.transactions.calls()
	assert.Equal(t, listAtStart, listCalls, "timer only refreshes stats and chart")

	store.Dispose()
	_, rangeAtDispose := repo.transactions.calls()

	time.Sleep(50 * time.Millisecond)
	_, rangeLater := repo.transactions.calls()
	assert.Equal(t, rangeAtDispose, rangeLater)

	assert.ErrorIs(t, store.Start(context.Background()), ErrDisposed)
	store.Dispose()
}

func TestFinanceStore_SnapshotIsACopy(t *testing.T) {
	store := newTestStore(t, newFixture())
	require.NoError(t, store.Start(context.Background()))

	snap := store.Snapshot()
	require.Len(t, snap.Transactions, 4)
	snap.Transactions[0].Description = "mutated"
	snap.Slices[SliceStats] = SliceState{Status: StatusErrored}

	assert.NotEqual(t, "mutated", store.Transactions()[0].Description)
	assert.Equal(t, StatusReady, store.Status(SliceStats).Status)
	assert.Equal(t, entity.PeriodMonth, snap.Period)
	assert.Len(t, snap.Slices, len(AllSlices))
}

func TestFinanceStore_CacheWriteSkippedAfterConcurrentInvalidation(t *testing.T) {
	memory := cache.NewMemory()
	t.Cleanup(memory.Close)

	store := newTestStore(t, newFixture(), WithCache(memory, time.Minute)).(*financeStore)
	ctx := context.Background()

	got, err := cachedRead(ctx, store, cacheTransactionsPrefix, cacheTransactionList, func(ctx context.Context) ([]entity.Transaction, error) {
		// a mutation commits while this read is in flight
		store.invalidateCache(ctx, SliceTransactions)
		return []entity.Transaction{{ID: "read-before-mutation"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 1, "the caller still gets its value")
	assert.Zero(t, memory.Len())

	_, err = cachedRead(ctx, store, cacheTransactionsPrefix, cacheTransactionList, func(ctx context.Context) ([]entity.Transaction, error) {
		return []entity.Transaction{{ID: "fresh"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, memory.Len())

	var cached []entity.Transaction
	hit, err := memory.Get(ctx, cacheTransactionList, &cached)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "fresh", cached[0].ID)
}

func TestFinanceStore_CategoryInvalidationLeavesTransactionReadsCached(t *testing.T) {
	memory := cache.NewMemory()
	t.Cleanup(memory.Close)

	store := newTestStore(t, newFixture(), WithCache(memory, time.Minute)).(*financeStore)
	ctx := context.Background()

	_, err := cachedRead(ctx, store, cacheTransactionsPrefix, cacheTransactionList, func(ctx context.Context) ([]entity.Transaction, error) {
		store.invalidateCache(ctx, SliceCategories)
		return []entity.Transaction{{ID: "tx"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, memory.Len())
}

func TestFinanceStore_QueryTransactionsLeavesDashboardAlone(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)
	ctx := context.Background()
	require.NoError(t, store.Start(ctx))

	got, err := store.QueryTransactions(ctx, entity.TransactionFilters{Category: "Equipment"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tx-2", got[0].ID)

	assert.Empty(t, store.Filters().Category)
	assert.Len(t, store.Transactions(), 4)

	_, err = store.QueryTransactions(ctx, entity.TransactionFilters{SortDirection: "sideways"})
	assert.ErrorIs(t, err, finance.ErrInvalidSortDirection)
}

func nextEvent(t *testing.T, events <-chan SliceEvent, match func(SliceEvent) bool) SliceEvent {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			require.True(t, ok, "events channel closed")
			if match(event) {
				return event
			}
		case <-timeout:
			require.FailNow(t, "no matching slice event")
			return SliceEvent{}
		}
	}
}

func TestFinanceStore_SubscribeReceivesRefreshes(t *testing.T) {
	repo := newFixture()
	store := newTestStore(t, repo)
	ctx := context.Background()
	require.NoError(t, store.Start(ctx))

	events, unsubscribe := store.Subscribe()
	defer unsubscribe()

	_, err := store.AddTransaction(ctx, entity.Transaction{
		Description: "Private lesson",
		Amount:      decimal.NewFromInt(80),
		Type:        entity.TransactionTypeIncome,
		Status:      entity.TransactionStatusCompleted,
		Category:    "Lessons",
		Date:        day(3, 19),
	})
	require.NoError(t, err)

	event := nextEvent(t, events, func(e SliceEvent) bool { return e.Slice == SliceStats })
	assert.Equal(t, StatusReady, event.Status)
	assert.Equal(t, testNow, event.At)

	repo.transactions.mu.Lock()
	repo.transactions.rangeErr = errors.New("connection reset")
	repo.transactions.mu.Unlock()

	assert.Error(t, store.Refresh(ctx, SliceChart))
	event = nextEvent(t, events, func(e SliceEvent) bool { return e.Slice == SliceChart })
	assert.Equal(t, StatusErrored, event.Status)
	assert.Contains(t, event.Error, "connection reset")
}

func TestFinanceStore_DisposeClosesSubscriptions(t *testing.T) {
	store := NewFinanceStore(log.NewDiscardLogger(), newFixture(), WithClock(func() time.Time { return testNow }))

	events, unsubscribe := store.Subscribe()
	store.Dispose()

	_, ok := <-events
	assert.False(t, ok)
	unsubscribe()

	late, _ := store.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing after dispose yields a closed channel")
}
