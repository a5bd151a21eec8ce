package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/google/subcommands"
)

type rolloverCmd struct {
	boardId string
	userId  string
	month   string
}

func (*rolloverCmd) Name() string     { return "rollover" }
func (*rolloverCmd) Synopsis() string { return "recompute and store a month's closing balance" }
func (*rolloverCmd) Usage() string {
	return `boardctl rollover -board <id> -user <id> -month <YYYY-MM>

  Recomputes the month's net balance from its transactions and stores it
  as the rollover carried into the following month.
`
}

func (c *rolloverCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.boardId, "board", "", "board to recompute")
	f.StringVar(&c.userId, "user", "", "user to act as, must be able to edit the board")
	f.StringVar(&c.month, "month", "", "month in YYYY-MM form")
}

func (c *rolloverCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.boardId == "" || c.userId == "" || c.month == "" {
		fmt.Fprintln(os.Stderr, "-board, -user and -month are required")
		return subcommands.ExitUsageError
	}
	month, err := ledger.ParseMonth(c.month)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	db, deps, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()
	defer deps.Close()

	summary, err := deps.RolloverEngine.PersistNow(actingAs(ctx, c.userId), c.boardId, month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rollover failed: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s %s net balance %s\n", summary.BoardId, summary.Month, summary.NetBalanceAtMonthEnd.StringFixed(2))
	return subcommands.ExitSuccess
}
