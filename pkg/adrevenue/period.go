package adrevenue

import (
	"fmt"
	"time"

	"github.com/chris/audio-market-settlement/pkg/storage"
)

// Period is a half-open distribution window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Key identifies the window in distribution records.
func (p Period) Key() string {
	return PeriodKey(p.Start, p.End)
}

// PeriodKey formats a window as "2006-01-02_2006-01-02".
func PeriodKey(start, end time.Time) string {
	return fmt.Sprintf("%s_%s", start.UTC().Format(storage.DayFormat), end.UTC().Format(storage.DayFormat))
}

// CurrentPeriod returns the twice-monthly window containing now: the 1st to
// the 15th, or the 16th to the end of the month.
func CurrentPeriod(now time.Time) Period {
	now = now.UTC()
	y, m, d := now.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(y, m, 16, 0, 0, 0, 0, time.UTC)
	if d < 16 {
		return Period{Start: first, End: mid}
	}
	return Period{Start: mid, End: first.AddDate(0, 1, 0)}
}

// PreviousPeriod returns the most recently closed window before now.
func PreviousPeriod(now time.Time) Period {
	cur := CurrentPeriod(now)
	return CurrentPeriod(cur.Start.Add(-time.Nanosecond))
}
