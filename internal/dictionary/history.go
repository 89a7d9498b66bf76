// Package dictionary builds the per-date working word set: it starts from
// a curated base dictionary, removes a permanent exclusion list, and
// removes every word placed during the trailing rolling-history window.
package dictionary

import "time"

const dateLayout = "2006-01-02"

// RollingHistory tracks which answers were placed on which dates, as the
// plain "ordered map from date to word-set" the design calls for. The
// union needed to exclude recent repeats is computed over whichever dates
// currently fall inside the window relative to the date being queried,
// rather than maintained as a single always-current running set — this
// sidesteps an off-by-one in the reference implementation, which drops a
// date from its running union exactly 100 days after recording it
// regardless of which date is actually being generated next, occasionally
// leaving a word excluded (or included) one day longer than the "[D-100,
// D-1]" window spec.md defines.
type RollingHistory struct {
	windowDays int
	byDate     map[string]map[string]struct{}
}

// NewRollingHistory returns an empty history with the given window size in
// days (100, per spec.md).
func NewRollingHistory(windowDays int) *RollingHistory {
	return &RollingHistory{
		windowDays: windowDays,
		byDate:     make(map[string]map[string]struct{}),
	}
}

// Record stores the answers placed on date, replacing any prior record for
// that same date.
func (h *RollingHistory) Record(date time.Time, words []string) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	h.byDate[date.Format(dateLayout)] = set
}

// Drop discards any recorded answers for date.
func (h *RollingHistory) Drop(date time.Time) {
	delete(h.byDate, date.Format(dateLayout))
}

// Advance drops target minus windowDays, the oldest date in target's own
// window and the first date that falls outside the window of the day after
// target. The caller is expected to call
// this once per generated date regardless of whether that date's solve
// succeeded, matching spec.md section 4.5's always-roll-the-window rule.
func (h *RollingHistory) Advance(target time.Time) {
	h.Drop(target.AddDate(0, 0, -h.windowDays))
}

// PreviouslyUsed returns the union of every word recorded on a date in
// [target-windowDays, target-1].
func (h *RollingHistory) PreviouslyUsed(target time.Time) map[string]struct{} {
	union := make(map[string]struct{})
	for dateStr, words := range h.byDate {
		d, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}
		daysBefore := int(target.Sub(d).Hours() / 24)
		if daysBefore >= 1 && daysBefore <= h.windowDays {
			for w := range words {
				union[w] = struct{}{}
			}
		}
	}
	return union
}
