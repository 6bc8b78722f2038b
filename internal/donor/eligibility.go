// Package donor holds the donation rules of the directory: when a donor may
// give blood again and how listings are narrowed by location and blood group.
package donor

import (
	"strings"
	"time"

	"lifeshare/pkg/types"
)

// EligibilityWindowDays is the minimum gap between two donations.
const EligibilityWindowDays = 90

const secondsPerDay = 24 * 60 * 60

// latestZone is the civil time zone furthest ahead of UTC. A calendar date is
// in the future only while it has not started there.
var latestZone = time.FixedZone("UTC+14", 14*60*60)

// Eligibility reports whether a donor whose last donation was lastDonateDate
// may donate at now, and otherwise how many days remain. A last donation in
// the future is not rejected; it yields more than EligibilityWindowDays
// remaining.
func Eligibility(lastDonateDate, now time.Time) (types.EligibilityResult, error) {
	if lastDonateDate.IsZero() {
		return types.EligibilityResult{}, types.ErrInvalidDate
	}

	elapsedDays := elapsedDays(lastDonateDate, now)
	if elapsedDays >= EligibilityWindowDays {
		return types.EligibilityResult{Eligible: true, RemainingDays: 0}, nil
	}

	return types.EligibilityResult{
		Eligible:      false,
		RemainingDays: EligibilityWindowDays - elapsedDays,
	}, nil
}

// elapsedDays is floor((now - last) / 24h). It works on Unix seconds because
// time.Duration saturates past roughly 292 years.
func elapsedDays(last, now time.Time) int {
	sec := now.Unix() - last.Unix()
	if now.Nanosecond() < last.Nanosecond() {
		sec--
	}

	days := sec / secondsPerDay
	if sec%secondsPerDay < 0 {
		days--
	}
	return int(days)
}

// InFuture reports whether a parsed donation date lies after now. Values at
// UTC midnight are calendar dates and count as future only once no time zone
// has reached them, so donors east of UTC can record today's donation.
func InFuture(last, now time.Time) bool {
	if !isCalendarDate(last) {
		return last.After(now)
	}

	local := now.In(latestZone)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return last.After(today)
}

func isCalendarDate(t time.Time) bool {
	if t.Location() != time.UTC {
		return false
	}
	h, m, sec := t.Clock()
	return h == 0 && m == 0 && sec == 0 && t.Nanosecond() == 0
}

// ProfileEligibility is Eligibility for a stored profile. Profiles without a
// last donation date return ErrInvalidDate.
func ProfileEligibility(p *types.DonorProfile, now time.Time) (types.EligibilityResult, error) {
	if p == nil || p.LastDonateDate == nil {
		return types.EligibilityResult{}, types.ErrInvalidDate
	}
	return Eligibility(*p.LastDonateDate, now)
}

// ParseDonationDate accepts a date input value (2006-01-02, taken as UTC
// midnight) or an RFC 3339 timestamp.
func ParseDonationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, types.ErrInvalidDate
	}

	if t, err := time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return time.Time{}, types.ErrInvalidDate
}
