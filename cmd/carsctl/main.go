// Command carsctl queries and edits the car catalog from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/carbot/internal/catalog"
	"github.com/JonMunkholm/carbot/internal/config"
	"github.com/JonMunkholm/carbot/internal/core"
	_ "github.com/JonMunkholm/carbot/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/carbot/internal/database"
	"github.com/JonMunkholm/carbot/internal/logging"
)

var (
	// Version information (set by build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	_ = godotenv.Load()

	a := &app{open: openCatalog}
	if err := execute(context.Background(), a, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs carsctl with args. The connection is released however the
// command ends; cobra skips post-run hooks when RunE fails.
func execute(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) error {
	defer a.disconnect(nil, nil)

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// openCatalog loads configuration and connects to the database.
func openCatalog(ctx context.Context, configFile string) (Catalog, Database, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	// Keep the terminal for command output; logs go to stderr at warn and up
	// unless LOG_LEVEL asks for more.
	level := cfg.Logging.Level
	if logging.ParseLevel(level) < slog.LevelWarn && os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	slog.SetDefault(logging.New(os.Stderr, level, cfg.Logging.Format))

	pool, err := database.Open(ctx, cfg.Database, database.RegisterJSONCodecs)
	if err != nil {
		return nil, nil, nil, err
	}

	service := catalog.NewService(core.NewExecutor(pool), catalog.Options{
		Distinct:    cfg.Query.Distinct,
		Timeout:     cfg.Query.Timeout,
		OffersLimit: cfg.Query.OffersLimit,
	})
	return service, pool, pool.Close, nil
}
