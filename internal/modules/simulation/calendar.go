package simulation

import (
	"sort"
	"time"
)

// Calendar maps fixed quarterly anchor dates onto the actual trading-day
// sequence that drives rebalancing.
type Calendar struct {
	anchors []time.Time
}

// NewCalendar creates a rebalance calendar from ascending anchor dates.
func NewCalendar(anchors []time.Time) *Calendar {
	sorted := make([]time.Time, len(anchors))
	copy(sorted, anchors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return &Calendar{anchors: sorted}
}

// Anchors returns the configured anchor dates.
func (c *Calendar) Anchors() []time.Time {
	return c.anchors
}

// Resolve maps each anchor to an index into days: the exact trading day if
// present, else the first trading day strictly after the anchor. Anchors
// beyond the last trading day are unmapped, ending the rebalance schedule.
// Distinct anchors that land on the same trading day resolve to one entry.
func (c *Calendar) Resolve(days []time.Time) []int {
	resolved := make([]int, 0, len(c.anchors))
	for _, anchor := range c.anchors {
		i := sort.Search(len(days), func(j int) bool { return !days[j].Before(anchor) })
		if i == len(days) {
			break
		}
		if len(resolved) > 0 && resolved[len(resolved)-1] == i {
			continue
		}
		resolved = append(resolved, i)
	}
	return resolved
}
