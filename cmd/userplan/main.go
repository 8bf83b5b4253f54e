package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"billing/internal/bootstrap"
	"billing/internal/domain"
	"billing/internal/infra"
)

func main() {
	var (
		idFlag     string
		actionFlag string
		planFlag   int64
		daysFlag   int
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update")
	flag.StringVar(&actionFlag, "action", "extend", "operation to run (extend, expire, remind, show)")
	flag.Int64Var(&planFlag, "plan", 0, "plan ID to extend (defaults to the current plan)")
	flag.IntVar(&daysFlag, "days", 30, "number of days to add when extending")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	action := strings.TrimSpace(strings.ToLower(actionFlag))
	if userID == "" {
		exitWithError(errors.New("-id must be provided"))
	}
	switch action {
	case "extend":
		if daysFlag <= 0 {
			exitWithError(errors.New("-days must be positive"))
		}
	case "expire", "remind", "show":
	default:
		exitWithError(fmt.Errorf("unsupported action %q", action))
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	comps, err := bootstrap.Build(ctx, cfg, infra.NewSQLRunner(pool, logger), logger)
	if err != nil {
		exitWithError(err)
	}
	svc := comps.Service

	current, err := svc.EnsureUserPlan(ctx, userID)
	if err != nil {
		exitWithError(fmt.Errorf("failed to load user plan: %w", err))
	}

	var up *domain.UserPlan
	switch action {
	case "extend":
		planID := planFlag
		if planID <= 0 {
			planID = current.PlanID
		}
		up, err = svc.ExtendAccount(ctx, userID, planID, daysFlag)
	case "expire":
		up, err = svc.ExpireAccount(ctx, userID)
	case "remind":
		up, err = svc.RemindExpireSoon(ctx, userID)
	default:
		up = current
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to %s account: %w", action, err))
	}

	expire := "never"
	if up.Expire != nil {
		expire = up.Expire.Format("2006-01-02")
	}
	fmt.Printf("User %s plan=%d active=%t expire=%s\n", up.UserID, up.PlanID, up.Active, expire)
	fmt.Printf("days_left=%d\n", up.DaysLeft(time.Now()))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
