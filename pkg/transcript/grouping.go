package transcript

import (
	"time"

	"github.com/janahq/jana-core/pkg/core/types"
)

// Display group labels, ordered from newest to oldest.
const (
	GroupToday     = "Today"
	GroupYesterday = "Yesterday"
	GroupPrevWeek  = "Previous 7 Days"
	GroupOlder     = "Older"
	GroupNoDate    = "No Date"
)

// GroupOrder is the display order of the buckets.
var GroupOrder = []string{GroupToday, GroupYesterday, GroupPrevWeek, GroupOlder, GroupNoDate}

// GroupLabel buckets a transcript by calendar-day distance from now. The
// server timestamp is preferred; the local one is the fallback.
func GroupLabel(t *types.Transcript, now time.Time) string {
	ts := t.BestTimestamp()
	if ts.IsZero() {
		return GroupNoDate
	}

	days := calendarDaysBetween(ts, now)
	switch {
	case days <= 0:
		return GroupToday
	case days == 1:
		return GroupYesterday
	case days <= 7:
		return GroupPrevWeek
	default:
		return GroupOlder
	}
}

// Group buckets transcripts for display, preserving their input order
// within each bucket. Buckets with no transcripts are omitted.
func Group(ts []types.Transcript, now time.Time) map[string][]types.Transcript {
	out := make(map[string][]types.Transcript)
	for _, t := range ts {
		label := GroupLabel(&t, now)
		out[label] = append(out[label], t)
	}
	return out
}

// calendarDaysBetween counts midnights between two instants in the local
// zone of now.
func calendarDaysBetween(then, now time.Time) int {
	loc := now.Location()
	thenDay := time.Date(then.In(loc).Year(), then.In(loc).Month(), then.In(loc).Day(), 0, 0, 0, 0, loc)
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return int(nowDay.Sub(thenDay) / (24 * time.Hour))
}
