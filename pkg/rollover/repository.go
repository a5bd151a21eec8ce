package rollover

import (
	"context"
	"errors"
	"fmt"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrSummaryNotFound = fmt.Errorf("monthly summary %w", apperr.ErrNotFound)

type Repository interface {
	GetSummary(ctx context.Context, boardId string, month ledger.Month) (MonthlySummary, error)
	// UpsertSummary sets the net balance and timestamp of the month, creating the row if needed.
	UpsertSummary(ctx context.Context, summary MonthlySummary) error
	ListSummaries(ctx context.Context, boardId string) ([]MonthlySummary, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) GetSummary(ctx context.Context, boardId string, month ledger.Month) (MonthlySummary, error) {
	query := `SELECT net_balance_at_month_end, last_updated
			  FROM monthly_summaries
			  WHERE board_id = $1 AND month = $2`

	summary := MonthlySummary{BoardId: boardId, Month: month}
	err := r.db.QueryRow(ctx, query, boardId, month.String()).Scan(&summary.NetBalanceAtMonthEnd, &summary.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MonthlySummary{}, ErrSummaryNotFound
		}
		log.Errorf("failed to read summary %s of board %s: %v", month, boardId, err)
		return MonthlySummary{}, apperr.FromStore(err)
	}
	return summary, nil
}

func (r *RepositoryImpl) UpsertSummary(ctx context.Context, summary MonthlySummary) error {
	query := `INSERT INTO monthly_summaries (board_id, month, net_balance_at_month_end, last_updated)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (board_id, month) DO UPDATE SET
				net_balance_at_month_end = EXCLUDED.net_balance_at_month_end,
				last_updated = EXCLUDED.last_updated`

	_, err := r.db.Exec(ctx, query, summary.BoardId, summary.Month.String(), summary.NetBalanceAtMonthEnd, summary.LastUpdated)
	if err != nil {
		log.Errorf("could not store summary %s of board %s: %v", summary.Month, summary.BoardId, err)
		return apperr.FromStore(err)
	}
	return nil
}

func (r *RepositoryImpl) ListSummaries(ctx context.Context, boardId string) ([]MonthlySummary, error) {
	query := `SELECT month, net_balance_at_month_end, last_updated
			  FROM monthly_summaries
			  WHERE board_id = $1
			  ORDER BY month`

	rows, err := r.db.Query(ctx, query, boardId)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	defer rows.Close()

	var summaries []MonthlySummary
	for rows.Next() {
		var month string
		summary := MonthlySummary{BoardId: boardId}
		if err := rows.Scan(&month, &summary.NetBalanceAtMonthEnd, &summary.LastUpdated); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		summary.Month, err = ledger.ParseMonth(month)
		if err != nil {
			return nil, fmt.Errorf("stored summary has invalid month %q: %w", month, err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromStore(err)
	}
	return summaries, nil
}
