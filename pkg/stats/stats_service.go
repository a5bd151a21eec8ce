package stats

import (
	"context"

	"github.com/boardledger/boardledger/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

type StatsService interface {
	GetStats(ctx context.Context, boardId string, month ledger.Month) (StatsSummary, error)
}

// TransactionLister reads a month of transactions after checking the caller may read the board.
type TransactionLister interface {
	ListTransactions(ctx context.Context, boardId string, month ledger.Month) ([]ledger.Transaction, error)
}

type StatsServiceImpl struct {
	transactions TransactionLister
}

func NewStatsServiceImpl(transactions TransactionLister) *StatsServiceImpl {
	return &StatsServiceImpl{transactions: transactions}
}

func (s *StatsServiceImpl) GetStats(ctx context.Context, boardId string, month ledger.Month) (StatsSummary, error) {
	transactions, err := s.transactions.ListTransactions(ctx, boardId, month)
	if err != nil {
		return StatsSummary{}, err
	}
	log.Tracef("Computing stats for board %s, month %s from %d transactions", boardId, month, len(transactions))
	return Summarize(boardId, month, transactions), nil
}
