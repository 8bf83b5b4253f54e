package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type accountService interface {
	ExpireOverdue(ctx context.Context, today time.Time) (int, error)
	RemindExpiring(ctx context.Context, today time.Time, days []int) (int, error)
}

// accountJobs runs the daily subscription maintenance.
type accountJobs struct {
	service    accountService
	remindDays []int
	logger     zerolog.Logger
}

// Run expires overdue accounts, then sends reminders. A failing step does not
// stop the other one.
func (j *accountJobs) Run(ctx context.Context, day time.Time) error {
	start := time.Now()
	log := j.logger.With().Str("day", day.Format("2006-01-02")).Logger()

	var errs []error
	expired, err := j.service.ExpireOverdue(ctx, day)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire overdue: %w", err))
	}
	reminded := 0
	if len(j.remindDays) > 0 {
		reminded, err = j.service.RemindExpiring(ctx, day, j.remindDays)
		if err != nil {
			errs = append(errs, fmt.Errorf("remind expiring: %w", err))
		}
	}
	log.Info().
		Int("expired", expired).
		Int("reminded", reminded).
		Dur("duration", time.Since(start)).
		Msg("worker: account jobs finished")
	return errors.Join(errs...)
}
