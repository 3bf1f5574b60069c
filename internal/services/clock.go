package services

import (
	"time"

	"github.com/arnold/wellness-api/internal/models"
)

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func (c Clock) today() string {
	return models.DateKey(c.now())
}

// daysAgo returns the date key n calendar days before today.
func (c Clock) daysAgo(n int) string {
	return models.DateKey(c.now().AddDate(0, 0, -n))
}
