package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/carbot/internal/core"
	"github.com/JonMunkholm/carbot/internal/schema"
	"github.com/JonMunkholm/carbot/internal/web"
)

// Catalog is what the commands use. *catalog.Service satisfies it.
type Catalog interface {
	web.Catalog
	Distinct(ctx context.Context, col core.Column) ([]string, error)
	ValuesWhere(ctx context.Context, col, filter core.Column, value string) ([]string, error)
	Query(ctx context.Context, sql string, args ...any) ([]core.Row, error)
}

// Database is the pool view used by the stats command.
// *database.Pool satisfies it.
type Database = web.Health

type openFunc func(ctx context.Context, configFile string) (Catalog, Database, func(), error)

// app holds the connection shared by one command invocation.
type app struct {
	open       openFunc
	configFile string

	catalog Catalog
	db      Database
	close   func()
}

func (a *app) connect(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	cat, db, closeFn, err := a.open(cmd.Context(), a.configFile)
	if err != nil {
		return err
	}
	a.catalog, a.db, a.close = cat, db, closeFn
	return nil
}

func (a *app) disconnect(*cobra.Command, []string) {
	if a.close != nil {
		a.close()
		a.close = nil
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "carsctl",
		Short:             "Query and edit the car catalog",
		Version:           fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.connect,
		PersistentPostRun: a.disconnect,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "TOML config file (default: $CONFIG_FILE or conf.toml)")

	root.AddCommand(
		newBrandsCommand(a),
		newCitiesCommand(a),
		newValuesCommand(a),
		newOffersCommand(a),
		newOfferCommand(a),
		newAddCommand(a),
		newUpdateCommand(a),
		newQueryCommand(a),
		newStatsCommand(a),
	)
	return root
}

func newBrandsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "brands [brand]",
		Short: "List brands, or the matches and models for one brand",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				brands, err := a.catalog.Brands(ctx)
				if err != nil {
					return err
				}
				printList(out, "Brands", brands)
				return nil
			}

			matches, err := a.catalog.BrandsByBrand(ctx, args[0])
			if err != nil {
				return err
			}
			models, err := a.catalog.ModelsByBrand(ctx, args[0])
			if err != nil {
				return err
			}
			printList(out, "Brand", matches)
			printList(out, "Models", models)
			return nil
		},
	}
}

func newCitiesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List cities with offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cities, err := a.catalog.Cities(cmd.Context())
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), "Cities", cities)
			return nil
		},
	}
}

func newValuesCommand(a *app) *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "values COLUMN",
		Short: "List the values of a cars column, optionally where another column matches",
		Example: `  carsctl values model --where brand=Toyota
  carsctl values city`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col := core.Column(args[0])

			var (
				values []string
				err    error
			)
			if where == "" {
				values, err = a.catalog.Distinct(cmd.Context(), col)
			} else {
				filter, value, ok := strings.Cut(where, "=")
				if !ok || filter == "" {
					return fmt.Errorf("--where must be column=value, got %q", where)
				}
				values, err = a.catalog.ValuesWhere(cmd.Context(), col, core.Column(filter), value)
			}
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), args[0], values)
			return nil
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "filter as column=value")
	return cmd
}

func newOffersCommand(a *app) *cobra.Command {
	var brand, city string
	var limit int

	cmd := &cobra.Command{
		Use:   "offers",
		Short: "Show offers, optionally by brand and city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cars, err := a.catalog.Offers(cmd.Context(), brand, city, limit)
			if err != nil {
				return err
			}
			printCars(cmd.OutOrStdout(), cars)
			return nil
		},
	}
	cmd.Flags().StringVarP(&brand, "brand", "b", "", "brand to match")
	cmd.Flags().StringVar(&city, "city", "", "city to match")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum offers (default: configured limit)")
	return cmd
}

func newOfferCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "offer URL",
		Short: "Show one offer by its listing URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			car, err := a.catalog.Offer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printCar(cmd.OutOrStdout(), car)
			return nil
		},
	}
}

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add COLUMN=VALUE...",
		Short:   "Add an offer",
		Example: `  carsctl add url=https://kolesa.kz/a/1 brand=Toyota model=Camry year=2018 price="12 500 000"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := parseAssignments(args)
			if err != nil {
				return err
			}
			car, err := schema.ParseCar(input)
			if err != nil {
				return err
			}
			stored, err := a.catalog.AddCar(cmd.Context(), car)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "added offer %d", stored.ID)
			return nil
		},
	}
}

func newUpdateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "update URL COLUMN=VALUE...",
		Short:   "Change fields of an offer",
		Example: `  carsctl update https://kolesa.kz/a/1 price=11900000 city=Астана`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			changes, err := schema.ParseChanges(input)
			if err != nil {
				return err
			}
			if err := a.catalog.UpdateCar(cmd.Context(), args[0], changes); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "updated %s", args[0])
			return nil
		},
	}
}

func newQueryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "query SQL [ARG...]",
		Short:   "Run a read query and print the rows",
		Example: `  carsctl query 'SELECT brand, count(*) FROM cars GROUP BY brand'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := make([]any, len(args)-1)
			for i, v := range args[1:] {
				params[i] = v
			}
			rows, err := a.catalog.Query(cmd.Context(), args[0], params...)
			if err != nil {
				return err
			}
			printRows(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Check the database and show pool statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := a.db.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}
			printSuccess(out, "database reachable")
			printStatus(out, a.db.Status())
			return nil
		},
	}
}

// parseAssignments turns COLUMN=VALUE arguments into input for the schema parsers.
func parseAssignments(args []string) (map[string]string, error) {
	input := make(map[string]string, len(args))
	var errs []error
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Errorf("%q is not COLUMN=VALUE", arg))
			continue
		}
		input[strings.TrimSpace(k)] = v
	}
	return input, errors.Join(errs...)
}
