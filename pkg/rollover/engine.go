package rollover

import (
	"context"
	"errors"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/config"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/metrics"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/boardledger/boardledger/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Aggregator sums realized transactions of a board, as ledger.Service does.
type Aggregator interface {
	Aggregate(ctx context.Context, boardId string, from time.Time, to time.Time) (ledger.Totals, error)
}

type Service interface {
	// MonthOverview computes the month's figures including the rollover from the
	// previous month. For owners and editors it also schedules a debounced write
	// of the month's summary.
	MonthOverview(ctx context.Context, boardId string, month ledger.Month) (Overview, error)
	// PersistNow stores the month's actual net immediately.
	PersistNow(ctx context.Context, boardId string, month ledger.Month) (MonthlySummary, error)
	ListSummaries(ctx context.Context, boardId string) ([]MonthlySummary, error)
}

type Engine struct {
	repo         Repository
	aggregator   Aggregator
	boards       board.Reader
	clock        utils.Clock
	debouncer    *Debouncer
	writeTimeout time.Duration
	unsubscribe  func()
}

func NewEngine(repo Repository, aggregator Aggregator, boards board.Reader, eventBus *event_bus.EventBus, clock utils.Clock, cfg config.Rollover) *Engine {
	e := &Engine{
		repo:         repo,
		aggregator:   aggregator,
		boards:       boards,
		clock:        clock,
		debouncer:    NewDebouncer(cfg.Debounce),
		writeTimeout: cfg.WriteTimeout,
	}
	e.unsubscribe = event_bus.SubscribeTyped(eventBus, event_bus.TransactionChangedType, e.onTransactionChanged)
	return e
}

func (e *Engine) MonthOverview(ctx context.Context, boardId string, month ledger.Month) (Overview, error) {
	access, err := board.ResolveAccess(ctx, e.boards, boardId)
	if err != nil {
		return Overview{}, err
	}
	totals, err := e.aggregator.Aggregate(ctx, boardId, month.Start(), month.End())
	if err != nil {
		return Overview{}, err
	}
	rollover, err := e.rolloverInto(ctx, boardId, month)
	if err != nil {
		return Overview{}, err
	}
	if access.CanMutate() {
		e.schedule(boardId, month, access.User)
	}
	return newOverview(month, totals, rollover), nil
}

// rolloverInto returns the stored net of the month before month. A missing summary counts as zero.
func (e *Engine) rolloverInto(ctx context.Context, boardId string, month ledger.Month) (decimal.Decimal, error) {
	previous, err := e.repo.GetSummary(ctx, boardId, month.Previous())
	if errors.Is(err, ErrSummaryNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return previous.NetBalanceAtMonthEnd, nil
}

func (e *Engine) PersistNow(ctx context.Context, boardId string, month ledger.Month) (summary MonthlySummary, err error) {
	defer func() { metrics.RolloverWrites.WithLabelValues(metrics.Result(err, isDenied)).Inc() }()

	if _, err := board.RequireMutate(ctx, e.boards, boardId); err != nil {
		return MonthlySummary{}, err
	}
	// Cancel before reading so that changes committed after the read schedule a fresh write.
	e.debouncer.Cancel(key(boardId, month))

	totals, err := e.aggregator.Aggregate(ctx, boardId, month.Start(), month.End())
	if err != nil {
		return MonthlySummary{}, err
	}
	summary = MonthlySummary{
		BoardId:              boardId,
		Month:                month,
		NetBalanceAtMonthEnd: totals.Net(),
		LastUpdated:          e.clock.Now().UTC(),
	}
	if err := e.repo.UpsertSummary(ctx, summary); err != nil {
		return MonthlySummary{}, err
	}
	log.Debugf("stored net %s for %s on board %s", summary.NetBalanceAtMonthEnd, month, boardId)
	return summary, nil
}

func (e *Engine) ListSummaries(ctx context.Context, boardId string) ([]MonthlySummary, error) {
	if _, err := board.ResolveAccess(ctx, e.boards, boardId); err != nil {
		return nil, err
	}
	return e.repo.ListSummaries(ctx, boardId)
}

// Pending returns the number of scheduled writes not yet run.
func (e *Engine) Pending() int {
	return e.debouncer.Pending()
}

// Flush stores every scheduled summary now instead of waiting for the quiet period.
func (e *Engine) Flush() int {
	return e.debouncer.Flush()
}

// Close unsubscribes from the event bus and drops scheduled writes.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	if dropped := e.debouncer.Stop(); dropped > 0 {
		log.Infof("dropped %d pending monthly summary writes on shutdown", dropped)
	}
}

func (e *Engine) onTransactionChanged(ev event_bus.EventT[event_bus.TransactionChanged]) error {
	ctx := ev.Context()
	access, err := board.RequireMutate(ctx, e.boards, ev.Data.BoardId)
	if err != nil {
		log.Debugf("not scheduling summary write for board %s: %v", ev.Data.BoardId, err)
		return nil
	}
	seen := make(map[ledger.Month]bool)
	for _, day := range ev.Data.Days {
		month := ledger.MonthOf(day)
		if seen[month] {
			continue
		}
		seen[month] = true
		e.schedule(ev.Data.BoardId, month, access.User)
	}
	return nil
}

func (e *Engine) schedule(boardId string, month ledger.Month, u user.User) {
	e.debouncer.Schedule(key(boardId, month), func() {
		ctx, cancel := context.WithTimeout(user.WithUser(context.Background(), u), e.writeTimeout)
		defer cancel()
		if _, err := e.PersistNow(ctx, boardId, month); err != nil {
			log.Errorf("failed to store summary %s of board %s: %v", month, boardId, err)
		}
	})
}

func isDenied(err error) bool {
	return errors.Is(err, apperr.ErrPermissionDenied)
}
