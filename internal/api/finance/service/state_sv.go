package financeService

import (
	"GymFinance/internal/entity"
	"slices"
)

func (s *financeStore) Transactions() []entity.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

func (s *financeStore) Categories() []entity.TransactionCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

func (s *financeStore) Stats() entity.FinancialStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStats(s.stats)
}

func (s *financeStore) Chart() entity.ChartSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneChart(s.chart)
}

func (s *financeStore) Filters() entity.TransactionFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *financeStore) Period() entity.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period
}

func (s *financeStore) Status(slice Slice) SliceState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.slices[slice]
	if !ok {
		return SliceState{}
	}
	return st.SliceState
}

// Snapshot returns a copy of the whole state taken under a single lock.
func (s *financeStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make(map[Slice]SliceState, len(s.slices))
	for slice, st := range s.slices {
		states[slice] = st.SliceState
	}

	return Snapshot{
		Filters:      s.filters,
		Period:       s.period,
		Transactions: slices.Clone(s.transactions),
		Categories:   slices.Clone(s.categories),
		Stats:        cloneStats(s.stats),
		Chart:        cloneChart(s.chart),
		Slices:       states,
	}
}

func cloneStats(stats entity.FinancialStats) entity.FinancialStats {
	stats.RecentTransactions = slices.Clone(stats.RecentTransactions)
	stats.TopCategories = slices.Clone(stats.TopCategories)
	return stats
}

func cloneChart(chart entity.ChartSeries) entity.ChartSeries {
	chart.Labels = slices.Clone(chart.Labels)
	chart.IncomeData = slices.Clone(chart.IncomeData)
	chart.ExpenseData = slices.Clone(chart.ExpenseData)
	return chart
}
