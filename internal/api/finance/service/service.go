package financeService

import (
	financeRepository "GymFinance/internal/api/finance/repository"
	financeStats "GymFinance/internal/api/finance/stats"
	"GymFinance/internal/entity"
	"GymFinance/pkg/cache"
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Slice string

const (
	SliceTransactions Slice = "transactions"
	SliceCategories   Slice = "categories"
	SliceStats        Slice = "stats"
	SliceChart        Slice = "chart"
)

var AllSlices = []Slice{SliceTransactions, SliceCategories, SliceStats, SliceChart}

func (s Slice) IsValid() bool {
	switch s {
	case SliceTransactions, SliceCategories, SliceStats, SliceChart:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusErrored Status = "errored"
)

// dependents is the invalidation graph: a change to the key entity makes
// every listed slice dirty.
var dependents = map[Slice][]Slice{
	SliceTransactions: {SliceTransactions, SliceStats, SliceChart},
	SliceCategories:   {SliceCategories},
}

const (
	DefaultRefreshInterval = 5 * time.Minute
	DefaultCacheTTL        = 30 * time.Second
)

type SliceState struct {
	Status   Status    `json:"status"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// SliceEvent reports a refresh of Slice that changed its state.
type SliceEvent struct {
	Slice  Slice     `json:"slice"`
	Status Status    `json:"status"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

type Snapshot struct {
	Filters      entity.TransactionFilters    `json:"filters"`
	Period       entity.Period                `json:"period"`
	Transactions []entity.Transaction         `json:"transactions"`
	Categories   []entity.TransactionCategory `json:"categories"`
	Stats        entity.FinancialStats        `json:"stats"`
	Chart        entity.ChartSeries           `json:"chart"`
	Slices       map[Slice]SliceState         `json:"slices"`
}

type IFinanceStore interface {
	Start(ctx context.Context) error
	Dispose()
	Refresh(ctx context.Context, slices ...Slice) error

	SetFilters(ctx context.Context, filters entity.TransactionFilters) error
	SetPeriod(ctx context.Context, period entity.Period) error
	DismissError(slice Slice)

	QueryTransactions(ctx context.Context, filters entity.TransactionFilters) ([]entity.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*entity.Transaction, error)
	AddTransaction(ctx context.Context, transaction entity.Transaction) (entity.Transaction, error)
	EditTransaction(ctx context.Context, id string, patch entity.TransactionPatch) (entity.Transaction, error)
	RemoveTransaction(ctx context.Context, id string) error

	AddCategory(ctx context.Context, category entity.TransactionCategory) (entity.TransactionCategory, error)
	EditCategory(ctx context.Context, id string, patch entity.CategoryPatch) (entity.TransactionCategory, error)
	RemoveCategory(ctx context.Context, id string) error

	Transactions() []entity.Transaction
	Categories() []entity.TransactionCategory
	Stats() entity.FinancialStats
	Chart() entity.ChartSeries
	Filters() entity.TransactionFilters
	Period() entity.Period
	Status(slice Slice) SliceState
	Snapshot() Snapshot

	// Subscribe returns a channel of slice events and a function that ends
	// the subscription. The channel is closed on unsubscribe or Dispose.
	Subscribe() (<-chan SliceEvent, func())
}

type Option func(*financeStore)

func WithRefreshInterval(d time.Duration) Option {
	return func(s *financeStore) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// WithCache routes repository reads through c, keeping entries for ttl.
func WithCache(c cache.ICache, ttl time.Duration) Option {
	return func(s *financeStore) {
		if c != nil {
			s.cache = c
		}
		s.cacheTTL = ttl
	}
}

func WithPeriod(p entity.Period) Option {
	return func(s *financeStore) {
		if p.IsValid() {
			s.period = p
		}
	}
}

func WithBucketWidth(w financeStats.BucketWidth) Option {
	return func(s *financeStore) {
		s.bucketWidth = w
	}
}

func WithFilters(f entity.TransactionFilters) Option {
	return func(s *financeStore) {
		s.filters = f
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *financeStore) {
		s.now = now
	}
}

type sliceState struct {
	SliceState
	seq uint64
}

type financeStore struct {
	log               *logrus.Logger
	financeRepository financeRepository.Repository
	cache             cache.ICache
	cacheTTL          time.Duration
	refreshInterval   time.Duration
	bucketWidth       financeStats.BucketWidth
	now               func() time.Time

	mu           sync.RWMutex
	filters      entity.TransactionFilters
	period       entity.Period
	transactions []entity.Transaction
	categories   []entity.TransactionCategory
	stats        entity.FinancialStats
	chart        entity.ChartSeries
	slices       map[Slice]*sliceState
	dirty        map[Slice]bool
	started      bool
	disposed     bool
	stop         chan struct{}
	cancel       context.CancelFunc
	wg           sync.WaitGroup

	cacheMu     sync.Mutex
	generations map[string]uint64

	subMu       sync.Mutex
	subscribers map[uint64]chan SliceEvent
	nextSub     uint64
}

func NewFinanceStore(log *logrus.Logger, fr financeRepository.Repository, options ...Option) IFinanceStore {
	s := &financeStore{
		log:               log,
		financeRepository: fr,
		cache:             cache.Nop{},
		cacheTTL:          DefaultCacheTTL,
		refreshInterval:   DefaultRefreshInterval,
		now:               time.Now,
		period:            entity.PeriodMonth,
		transactions:      make([]entity.Transaction, 0),
		categories:        make([]entity.TransactionCategory, 0),
		stats:             financeStats.ComputeStats(nil),
		chart: entity.ChartSeries{
			Labels:      []string{},
			IncomeData:  []decimal.Decimal{},
			ExpenseData: []decimal.Decimal{},
		},
		slices:      make(map[Slice]*sliceState, len(AllSlices)),
		dirty:       make(map[Slice]bool),
		generations: make(map[string]uint64),
		subscribers: make(map[uint64]chan SliceEvent),
	}
	for _, slice := range AllSlices {
		s.slices[slice] = &sliceState{SliceState: SliceState{Status: StatusIdle}}
	}
	for _, option := range options {
		option(s)
	}

	filters, err := s.filters.Normalize()
	if err != nil {
		log.WithField("error", err.Error()).Warn("Ignoring invalid initial filters")
		filters, _ = entity.TransactionFilters{}.Normalize()
	}
	s.filters = filters

	return s
}
