package domain

import "time"

// UserPlan is the subscription state of a single user. Active is kept in sync
// with Expire by the explicit Extend and ExpireAccount operations only.
type UserPlan struct {
	UserID    string     `json:"user_id"`
	PlanID    int64      `json:"plan_id"`
	Expire    *time.Time `json:"expire,omitempty"`
	Active    bool       `json:"active"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Extend applies a purchase of periodDays on planID. Buying more of the same
// plan stacks on the current expiry; switching plans or renewing after expiry
// starts from today. A zero period only switches the plan.
func (u *UserPlan) Extend(planID int64, periodDays int, today time.Time) {
	today = Day(today)
	if periodDays > 0 {
		if u.PlanID == planID && u.Expire != nil && !u.Expire.Before(today) {
			next := u.Expire.AddDate(0, 0, periodDays)
			u.Expire = &next
		} else {
			next := today.AddDate(0, 0, periodDays)
			u.Expire = &next
		}
	}
	u.PlanID = planID
	u.Active = true
}

// ExpireAccount deactivates the plan.
func (u *UserPlan) ExpireAccount() {
	u.Active = false
}

// DaysLeft returns the number of paid days remaining after today.
func (u UserPlan) DaysLeft(today time.Time) int {
	if u.Expire == nil {
		return 0
	}
	days := int(Day(*u.Expire).Sub(Day(today)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// IsExpired reports whether the expiry date lies before today.
func (u UserPlan) IsExpired(today time.Time) bool {
	return u.Expire != nil && Day(*u.Expire).Before(Day(today))
}
