package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/boardledger/boardledger/internal/database"
	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `boardctl migrate

  Applies every pending schema migration and exits.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := database.Migrate(cfg.Database); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("database is up to date")
	return subcommands.ExitSuccess
}
