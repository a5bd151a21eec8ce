package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/boardledger/boardledger/pkg/bill"
	"github.com/google/subcommands"
)

type verifyCmd struct {
	boardId string
	userId  string
	heal    bool
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check that paid bills and their transactions agree" }
func (*verifyCmd) Usage() string {
	return `boardctl verify -board <id> -user <id> [-heal]

  Lists every bill whose paid state disagrees with its linked transactions.
  With -heal the bill state is taken as truth and transactions are created
  or removed to match. Orphaned transactions are never healed.
  Exits with status 1 when violations remain.
`
}

func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.boardId, "board", "", "board to check")
	f.StringVar(&c.userId, "user", "", "user to act as, must be a member of the board")
	f.BoolVar(&c.heal, "heal", false, "repair the violations found")
}

func (c *verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.boardId == "" || c.userId == "" {
		fmt.Fprintln(os.Stderr, "both -board and -user are required")
		return subcommands.ExitUsageError
	}
	db, deps, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()
	defer deps.Close()

	ctx = actingAs(ctx, c.userId)
	violations, err := deps.BillService.Verify(ctx, c.boardId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify failed: %v\n", err)
		return subcommands.ExitFailure
	}
	printViolations(os.Stdout, violations)
	if len(violations) == 0 || !c.heal {
		if len(violations) > 0 {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	repaired, err := deps.BillService.Heal(ctx, c.boardId)
	// Healing edits transactions; store the affected month summaries before exiting.
	deps.RolloverEngine.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "heal failed after %d repair(s): %v\n", len(repaired), err)
		return subcommands.ExitFailure
	}
	fmt.Printf("\nrepaired %d violation(s)\n", len(repaired))

	remaining, err := deps.BillService.Verify(ctx, c.boardId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify failed: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(remaining) > 0 {
		fmt.Println("\nremaining:")
		printViolations(os.Stdout, remaining)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printViolations(out io.Writer, violations []bill.Violation) {
	if len(violations) == 0 {
		fmt.Fprintln(out, "no violations")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BILL\tKIND\tTRANSACTIONS")
	for _, v := range violations {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.BillId, v.Kind, strings.Join(v.TransactionIds, ","))
	}
	_ = w.Flush()
}
