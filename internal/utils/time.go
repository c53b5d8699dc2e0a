package utils

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// upgradeHourUTC is the hour of day at which upgrades are scheduled.
const upgradeHourUTC = 16

var englishPrinter = message.NewPrinter(language.English)

// PlannedUpgradeTime proposes an upgrade time for a proposal submitted at now.
// The upgrade happens at 16:00 UTC after the voting period ends, one day later
// when submitting after 14:00 UTC or when voting ends at or after 16:00, and
// never on a weekend.
func PlannedUpgradeTime(votingPeriod time.Duration, now time.Time) time.Time {
	now = now.UTC()
	endOfVoting := now.Add(votingPeriod)

	if now.Hour() > 14 || endOfVoting.Hour() >= upgradeHourUTC {
		endOfVoting = endOfVoting.AddDate(0, 0, 1)
	}

	switch endOfVoting.Weekday() {
	case time.Saturday:
		endOfVoting = endOfVoting.AddDate(0, 0, 2)
	case time.Sunday:
		endOfVoting = endOfVoting.AddDate(0, 0, 1)
	}

	return time.Date(endOfVoting.Year(), endOfVoting.Month(), endOfVoting.Day(), upgradeHourUTC, 0, 0, 0, time.UTC)
}

// IsValidUpgradeTime reports whether t falls on a weekday.
func IsValidUpgradeTime(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// TimeString renders t like "4PM UTC on Mon., October 23., 2023".
func TimeString(t time.Time) string {
	t = t.UTC()
	hour, suffix := t.Hour()%12, "AM"
	if hour == 0 {
		hour = 12
	}
	if t.Hour() >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d%s UTC on %s., %s %d., %d",
		hour, suffix, t.Weekday().String()[:3], t.Month(), t.Day(), t.Year())
}

// FormatNumber renders n with English thousands separators.
func FormatNumber(n int64) string {
	return englishPrinter.Sprintf("%d", n)
}
