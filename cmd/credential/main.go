package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"billing/internal/infra"
	"billing/internal/infra/credentials"
)

func main() {
	var (
		passwordFlag string
		usernameFlag string
		listFlag     bool
	)
	flag.StringVar(&passwordFlag, "password", "", "SMTP password (fallbacks to SMTP_PASSWORD)")
	flag.StringVar(&usernameFlag, "username", "", "SMTP username stored alongside the password (fallbacks to SMTP_USERNAME)")
	flag.BoolVar(&listFlag, "list", false, "list stored credentials and exit")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "credential").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if listFlag {
		providers, err := store.Providers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list credentials: %v\n", err)
			os.Exit(1)
		}
		for _, p := range providers {
			fmt.Printf("%s\t%s\n", p.Name, p.UpdatedAt.Format(time.RFC3339))
		}
		return
	}

	password := strings.TrimSpace(passwordFlag)
	if password == "" {
		password = strings.TrimSpace(os.Getenv("SMTP_PASSWORD"))
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "SMTP password is required via -password or SMTP_PASSWORD")
		os.Exit(1)
	}
	username := strings.TrimSpace(usernameFlag)
	if username == "" {
		username = strings.TrimSpace(os.Getenv("SMTP_USERNAME"))
	}

	if err := store.SetSMTPPassword(ctx, username, password); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist smtp password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("SMTP password stored successfully")
}
