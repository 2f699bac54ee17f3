package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"ninebox/adapters/excel"
	"ninebox/adapters/postgres"
	"ninebox/domain/employee"
	intel "ninebox/domain/intelligence"
	"ninebox/internal/config"
	"ninebox/internal/intelligence"
	"ninebox/internal/logging"
	"ninebox/internal/testkit"
	"ninebox/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand
type options struct {
	rosterFile  string
	sheet       string
	databaseURL string
	axis        string
	format      string
	logLevel    string

	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ninebox",
		Short:         "Rating anomaly detection and org hierarchy queries over a 9-box roster",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.logLevel == "" {
				opts.logLevel = cfg.Logging.Level
			}
			logging.Init(logging.Options{Level: opts.logLevel, File: cfg.Logging.File})

			if opts.rosterFile == "" {
				opts.rosterFile = cfg.Data.RosterFile
			}
			if opts.sheet == "" {
				opts.sheet = cfg.Data.RosterSheet
			}
			if opts.databaseURL == "" {
				opts.databaseURL = cfg.Database.URL
			}
			if opts.axis != "" {
				axis, err := intel.ParseAxis(opts.axis)
				if err != nil {
					return err
				}
				cfg.Analysis.Axis = axis
			}
			opts.cfg = cfg
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.rosterFile, "roster", "", "Roster file (.xlsx or .csv); defaults to ROSTER_FILE")
	flags.StringVar(&opts.sheet, "sheet", "", "Worksheet name for .xlsx rosters (default: first sheet)")
	flags.StringVar(&opts.databaseURL, "database-url", "", "Postgres URL of the employees table; defaults to DATABASE_URL")
	flags.StringVar(&opts.axis, "axis", "", "Rating axis: performance|potential|grid")
	flags.StringVar(&opts.format, "format", "markdown", "Output format: markdown|json|html")
	flags.StringVar(&opts.logLevel, "log-level", "", "ERROR|WARN|INFO|DEBUG|TRACE")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newOrgCmd(opts),
		newDemoCmd(opts),
	)
	return rootCmd
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run the rating intelligence report over the roster",
		Long: `Run every dimension analyzer and the manager bias analyzer over the roster
and print the aggregated report.

Example: ninebox analyze --roster people.xlsx --axis potential --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pop, err := opts.loadPopulation(cmd.Context())
			if err != nil {
				return err
			}
			report := intelligence.NewService(opts.cfg.Analysis, nil).Analyze(pop)
			return writeReport(cmd.OutOrStdout(), report, opts.format)
		},
	}
}

func newDemoCmd(opts *options) *cobra.Command {
	genConfig := testkit.DefaultEmployeeConfig()
	var locationBias map[string]string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Analyze a deterministic synthetic roster",
		Long: `Generate a synthetic roster and run the full report on it.

Example: ninebox demo --count 800 --location-bias USA=0.55`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(locationBias) > 0 {
				genConfig.LocationHighRate = make(map[string]float64, len(locationBias))
				for loc, raw := range locationBias {
					rate, err := strconv.ParseFloat(raw, 64)
					if err != nil || rate < 0 || rate > 1 {
						return fmt.Errorf("invalid high rate %q for %s (want 0-1)", raw, loc)
					}
					genConfig.LocationHighRate[loc] = rate
				}
			}
			pop := testkit.NewEmployeeGenerator(genConfig).GeneratePopulation()
			report := intelligence.NewService(opts.cfg.Analysis, nil).Analyze(pop)
			return writeReport(cmd.OutOrStdout(), report, opts.format)
		},
	}

	cmd.Flags().IntVar(&genConfig.Count, "count", genConfig.Count, "Number of employees to generate")
	cmd.Flags().IntVar(&genConfig.Span, "span", genConfig.Span, "Direct reports per manager")
	cmd.Flags().Int64Var(&genConfig.Seed, "seed", genConfig.Seed, "Random seed for deterministic generation")
	cmd.Flags().Float64Var(&genConfig.HighRate, "high-rate", genConfig.HighRate, "Baseline share of High ratings")
	cmd.Flags().StringToStringVar(&locationBias, "location-bias", nil, "Per-location High rate, e.g. USA=0.55")

	return cmd
}

// loadPopulation reads the roster from the file when one is given, otherwise
// from the database
func (o *options) loadPopulation(ctx context.Context) (employee.Population, error) {
	var source ports.EmployeeSource
	switch {
	case o.rosterFile != "":
		source = excel.NewDataReader(excel.RosterConfig{FilePath: o.rosterFile, Sheet: o.sheet})
	case o.databaseURL != "":
		db, err := sqlx.Connect("postgres", o.databaseURL)
		if err != nil {
			return employee.Population{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		source = postgres.NewEmployeeRepository(db)
	default:
		return employee.Population{}, fmt.Errorf("no roster: pass --roster or --database-url, or run demo")
	}

	records, err := source.LoadEmployees(ctx)
	if err != nil {
		return employee.Population{}, err
	}
	return employee.NewPopulation(records), nil
}

func writeReport(w io.Writer, report *intel.Report, format string) error {
	switch format {
	case "json":
		return writeJSON(w, report)
	case "html":
		_, err := w.Write(intelligence.RenderHTML(report))
		return err
	case "markdown", "":
		_, err := io.WriteString(w, intelligence.RenderMarkdown(report))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
