package season

import "time"

const monthKeyLayout = "2006-01"

// Month is one fixed tournament month: a key like "2026-06" and the instant
// the month ends. Whether the end instant is timezone-aware is a deployment
// decision; the default season uses UTC.
type Month struct {
	Key string    `json:"key"`
	End time.Time `json:"end"`
}

// Season is the tournament's scoring window configuration. Matches dated in
// or after LateMonthStart are worth double match-win points.
type Season struct {
	Months         []Month   `json:"months"`
	LateMonthStart time.Time `json:"lateMonthStart"`
}

// Default describes a June through August season with August as the late
// scoring month.
func Default() Season {
	return Season{
		Months: []Month{
			{Key: "2026-06", End: time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)},
			{Key: "2026-07", End: time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)},
			{Key: "2026-08", End: time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)},
		},
		LateMonthStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func Key(t time.Time) string {
	return t.UTC().Format(monthKeyLayout)
}

func (s Season) MonthOf(t time.Time) (Month, bool) {
	key := Key(t)
	for _, m := range s.Months {
		if m.Key == key {
			return m, true
		}
	}
	return Month{}, false
}

func (s Season) InLateMonth(t time.Time) bool {
	return !t.Before(s.LateMonthStart)
}
