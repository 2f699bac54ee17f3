package main

import (
	"context"
	"flag"
	"os"
	"time"

	"ninebox/adapters/excel"
	"ninebox/adapters/postgres"
	"ninebox/domain/employee"
	"ninebox/internal/logging"
	"ninebox/internal/migration"
	"ninebox/internal/testkit"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	logging.InitFromEnv()

	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	rosterFile := flag.String("roster", "", "Load this roster file (.xlsx or .csv) into the employees table")
	sheet := flag.String("sheet", "", "Worksheet name for .xlsx rosters")
	demo := flag.Int("demo", 0, "Load this many synthetic employees instead of a roster file")
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal().Msg("usage: migrate -database-url <url> [-roster file | -demo n]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", *databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Str("version", runner.Version()).Msg("schema up to date")

	var records []employee.Record
	switch {
	case *rosterFile != "":
		records, err = excel.NewDataReader(excel.RosterConfig{FilePath: *rosterFile, Sheet: *sheet}).LoadEmployees(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read roster")
		}
	case *demo > 0:
		cfg := testkit.DefaultEmployeeConfig()
		cfg.Count = *demo
		records = testkit.NewEmployeeGenerator(cfg).Generate()
	default:
		return
	}

	if err := postgres.ReplaceEmployees(ctx, db, records); err != nil {
		log.Fatal().Err(err).Msg("failed to load employees")
	}
	log.Info().Int("employees", len(records)).Msg("employees loaded")
}
