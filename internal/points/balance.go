package points

import (
	"time"

	"github.com/hollyoak/housepoints/internal/model"
)

const dateLayout = "2006-01-02"

// Balance sums the signed amounts of the supplied entries. The result does
// not depend on entry order.
func Balance(entries []model.LedgerEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Amount
	}
	return total
}

// DailyStats buckets entries by the calendar date of their own timestamp
// (in now's location) over the trailing windowDays days ending today,
// oldest first. Days without entries produce a zero bucket. Entries outside
// the window are ignored.
func DailyStats(entries []model.LedgerEntry, windowDays int, now time.Time) []model.DailyStat {
	if windowDays <= 0 {
		return []model.DailyStat{}
	}

	loc := now.Location()
	stats := make([]model.DailyStat, windowDays)
	index := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		day := now.AddDate(0, 0, i-(windowDays-1))
		key := day.In(loc).Format(dateLayout)
		stats[i] = model.DailyStat{Date: key}
		index[key] = i
	}

	for _, e := range entries {
		key := e.CreatedAt.In(loc).Format(dateLayout)
		i, ok := index[key]
		if !ok {
			continue
		}
		stats[i].Net += e.Amount
		if e.Amount > 0 {
			stats[i].Gain += e.Amount
		}
	}

	return stats
}

// Summary holds the trailing-week header figures.
type Summary struct {
	WeekGain  int `json:"week_gain"`
	WeekSpend int `json:"week_spend"`
	TodayNet  int `json:"today_net"`
}

// Summarize computes the trailing-7-day gain, spend (as a positive number),
// and today's net change from the supplied entries.
func Summarize(entries []model.LedgerEntry, now time.Time) Summary {
	stats := DailyStats(entries, 7, now)

	var s Summary
	for _, d := range stats {
		s.WeekGain += d.Gain
		s.WeekSpend += d.Gain - d.Net
	}
	s.TodayNet = stats[len(stats)-1].Net
	return s
}
