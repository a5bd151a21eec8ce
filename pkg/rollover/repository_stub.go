package rollover

import (
	"context"
	"slices"
	"sync"

	"github.com/boardledger/boardledger/pkg/ledger"
)

type RepositoryStub struct {
	mu        sync.Mutex
	summaries map[string]MonthlySummary
	writes    int
	err       error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{summaries: make(map[string]MonthlySummary)}
}

func (s *RepositoryStub) GetSummary(ctx context.Context, boardId string, month ledger.Month) (MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return MonthlySummary{}, s.err
	}
	summary, ok := s.summaries[key(boardId, month)]
	if !ok {
		return MonthlySummary{}, ErrSummaryNotFound
	}
	return summary, nil
}

func (s *RepositoryStub) UpsertSummary(ctx context.Context, summary MonthlySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	s.summaries[key(summary.BoardId, summary.Month)] = summary
	return nil
}

func (s *RepositoryStub) ListSummaries(ctx context.Context, boardId string) ([]MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var result []MonthlySummary
	for _, summary := range s.summaries {
		if summary.BoardId == boardId {
			result = append(result, summary)
		}
	}
	slices.SortFunc(result, func(a, b MonthlySummary) int {
		switch {
		case a.Month.Before(b.Month):
			return -1
		case b.Month.Before(a.Month):
			return 1
		}
		return 0
	})
	return result, nil
}

func (s *RepositoryStub) Put(summary MonthlySummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[key(summary.BoardId, summary.Month)] = summary
}

// Writes counts successful UpsertSummary calls.
func (s *RepositoryStub) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *RepositoryStub) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *RepositoryStub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = make(map[string]MonthlySummary)
	s.writes = 0
	s.err = nil
}
