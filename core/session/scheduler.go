package session

import (
	"math"
	"time"
)

var nowFunc = time.Now // mockable

// weeklyTestInterval is the number of whole calendar days after which the
// next weekly assessment falls due.
const weeklyTestInterval = 7

// IsWeeklyTestDue reports whether sess owes a weekly assessment at `now`.
//
// Absent LastWeeklyTest means the first test has never been taken: due.
// Otherwise both sides are floored to their calendar date and the test is
// due once at least 7 whole days separate them. Partial days never count;
// 6 days 23:59:59 is not due, 7 days 00:00:00 is.
func IsWeeklyTestDue(sess *Session, now time.Time) bool {
	if sess == nil || sess.LastWeeklyTest.IsZero() {
		return true
	}
	last := sess.LastWeeklyTest
	today := DateOf(now.In(last.Location()))
	// both are midnights; rounding absorbs DST offsets in the interval
	days := int(math.Round(today.Sub(last.Time).Hours() / 24))
	return days >= weeklyTestInterval
}
