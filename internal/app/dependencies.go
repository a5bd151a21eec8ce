package app

import (
	"github.com/boardledger/boardledger/internal/config"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/live"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/bill"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/boardledger/boardledger/pkg/rollover"
	"github.com/boardledger/boardledger/pkg/savings"
	"github.com/boardledger/boardledger/pkg/stats"
	"github.com/boardledger/boardledger/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	UserHandler *user.Handler

	BoardRepo    *board.RepositoryImpl
	BoardService *board.ServiceImpl
	BoardHandler *board.Handler

	LedgerService *ledger.ServiceImpl
	LedgerHandler *ledger.Handler

	BillService *bill.ServiceImpl
	BillHandler *bill.Handler

	RolloverEngine  *rollover.Engine
	RolloverHandler *rollover.Handler

	SavingsService *savings.ServiceImpl
	SavingsHandler *savings.Handler

	StatsHandler *stats.StatsHandler

	// LiveHub is nil when live push is disabled.
	LiveHub *live.Hub
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.UserHandler = user.NewHandler()

	deps.BoardRepo = board.NewRepository(db)
	deps.BoardService = board.NewService(deps.BoardRepo, deps.EventBus, deps.Clock)
	deps.BoardHandler = board.NewHandler(deps.BoardService)

	deps.LedgerService = ledger.NewService(ledger.NewRepository(db), deps.BoardRepo, deps.EventBus, deps.Clock)
	deps.BillService = bill.NewService(bill.NewRepository(db), deps.BoardRepo, deps.EventBus, deps.Clock, cfg.Payments)
	// Transaction deletes go through the bill linker so a linked bill is reset in the same commit.
	deps.LedgerHandler = ledger.NewHandler(deps.LedgerService, deps.BillService, deps.Clock)
	deps.BillHandler = bill.NewHandler(deps.BillService)

	deps.RolloverEngine = rollover.NewEngine(rollover.NewRepository(db), deps.LedgerService, deps.BoardRepo, deps.EventBus, deps.Clock, cfg.Rollover)
	deps.RolloverHandler = rollover.NewHandler(deps.RolloverEngine, deps.Clock)

	deps.SavingsService = savings.NewService(savings.NewRepository(db), deps.BoardRepo, deps.EventBus, deps.Clock)
	deps.SavingsHandler = savings.NewHandler(deps.SavingsService)

	deps.StatsHandler = stats.NewStatsHandler(stats.NewStatsServiceImpl(deps.LedgerService), stats.NewCsvStatsRenderer(), deps.Clock)

	if cfg.Live.Enabled {
		deps.LiveHub = live.NewHub(deps.BoardRepo, deps.EventBus)
	}

	return deps
}

// Close stops background work: pending rollover writes and live connections.
func (d *Dependencies) Close() {
	d.RolloverEngine.Close()
	if d.LiveHub != nil {
		if err := d.LiveHub.Close(); err != nil {
			log.Warnf("failed to close live hub: %v", err)
		}
	}
}
