// Command boardctl runs maintenance tasks against the boardledger database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/boardledger/boardledger/internal/app"
	"github.com/boardledger/boardledger/internal/config"
	"github.com/boardledger/boardledger/internal/database"
	"github.com/boardledger/boardledger/pkg/user"
	"github.com/google/subcommands"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var configPath = flag.String("config", app.ConfigPath, "path to the application config file")

func main() {
	_ = godotenv.Load()
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&migrateCmd{}, "")
	commander.Register(&verifyCmd{}, "")
	commander.Register(&rolloverCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func loadConfig() (config.Application, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Application{}, err
	}
	app.ConfigureLogging(cfg.Log)
	return cfg, nil
}

// connect opens the pool and wires the services. The caller closes both.
func connect() (*pgxpool.Pool, *app.Dependencies, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	// Maintenance runs never serve websockets.
	cfg.Live.Enabled = false
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, app.BuildDependencies(db, cfg), nil
}

// actingAs returns a context carrying the operator identity. Every command goes through the same role checks as the API.
func actingAs(ctx context.Context, userId string) context.Context {
	return user.WithUser(ctx, user.User{Id: userId, DisplayName: userId})
}
