package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"billing/internal/infra"
	"billing/migrations"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", ".", "migrations directory inside the embedded filesystem")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] up|down|status|version|redo|reset\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	logger := infra.NewLogger(os.Getenv("APP_ENV"))
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal().Err(err).Msg("set goose dialect")
	}

	if err := goose.Run(command, db, *dir, flag.Args()[min(1, flag.NArg()):]...); err != nil {
		logger.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
	logger.Info().Str("command", command).Msg("migrations done")
}
