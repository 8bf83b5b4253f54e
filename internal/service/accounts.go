package service

import (
	"context"
	"fmt"
	"time"

	"billing/internal/domain"
	"billing/internal/notify"
)

// ExtendAccount grants days of planID to a user without an order.
func (s *Service) ExtendAccount(ctx context.Context, userID string, planID int64, days int) (*domain.UserPlan, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative", domain.ErrInvalidInput)
	}
	if _, err := s.repos.Plans.Get(ctx, planID); err != nil {
		return nil, fmt.Errorf("load plan %d: %w", planID, err)
	}
	up, err := s.EnsureUserPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	up.Extend(planID, days, s.today())
	up.UpdatedAt = s.now()
	if err := s.repos.UserPlans.Save(ctx, up); err != nil {
		return nil, fmt.Errorf("save user plan: %w", err)
	}
	s.metrics.AccountEvent("extended")
	s.notify(ctx, notify.KindAccountExtended, *up)
	return up, nil
}

// ExpireAccount deactivates a user's plan and tells them about it.
func (s *Service) ExpireAccount(ctx context.Context, userID string) (*domain.UserPlan, error) {
	up, err := s.repos.UserPlans.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user plan: %w", err)
	}
	up.ExpireAccount()
	up.UpdatedAt = s.now()
	if err := s.repos.UserPlans.Save(ctx, up); err != nil {
		return nil, fmt.Errorf("save user plan: %w", err)
	}
	s.metrics.AccountEvent("expired")
	s.notify(ctx, notify.KindAccountExpired, *up)
	return up, nil
}

// RemindExpireSoon sends the expiry reminder to a single user.
func (s *Service) RemindExpireSoon(ctx context.Context, userID string) (*domain.UserPlan, error) {
	up, err := s.repos.UserPlans.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user plan: %w", err)
	}
	if up.Expire == nil || !up.Active {
		return nil, fmt.Errorf("%w: user %s has no running plan", domain.ErrInvalidInput, userID)
	}
	s.metrics.AccountEvent("reminded")
	s.notify(ctx, notify.KindExpiresSoon, *up)
	return up, nil
}

// ExpireOverdue deactivates every active plan whose expiry lies before today
// and returns how many were expired. Each plan is switched off with a
// conditional update, so a plan extended after it was listed stays active.
func (s *Service) ExpireOverdue(ctx context.Context, today time.Time) (int, error) {
	today = domain.Day(today)
	plans, err := s.repos.UserPlans.ListExpired(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list expired plans: %w", err)
	}
	n := 0
	for _, listed := range plans {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		changed, err := s.repos.UserPlans.DeactivateExpired(ctx, listed.UserID, today)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", listed.UserID).Msg("expire account")
			continue
		}
		if !changed {
			s.logger.Info().Str("user_id", listed.UserID).Msg("plan renewed before expiry, skipped")
			continue
		}
		up, err := s.repos.UserPlans.Get(ctx, listed.UserID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", listed.UserID).Msg("reload expired plan")
			up = &listed
			up.ExpireAccount()
		}
		n++
		s.metrics.AccountEvent("expired")
		s.notify(ctx, notify.KindAccountExpired, *up)
	}
	return n, nil
}

// RemindExpiring notifies users whose plan expires in exactly one of the
// given numbers of days.
func (s *Service) RemindExpiring(ctx context.Context, today time.Time, days []int) (int, error) {
	today = domain.Day(today)
	n := 0
	for _, d := range days {
		if d <= 0 {
			continue
		}
		plans, err := s.repos.UserPlans.ListExpiringOn(ctx, today.AddDate(0, 0, d))
		if err != nil {
			return n, fmt.Errorf("list plans expiring in %d days: %w", d, err)
		}
		for _, up := range plans {
			if !up.Active {
				continue
			}
			s.metrics.AccountEvent("reminded")
			s.notify(ctx, notify.KindExpiresSoon, up)
			n++
		}
	}
	return n, nil
}
