package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalendarResolve(t *testing.T) {
	days := []time.Time{
		date("2020-01-02"),
		date("2020-01-03"),
		date("2020-04-02"),
		date("2020-07-01"),
	}

	t.Run("exact and next-after mapping", func(t *testing.T) {
		cal := NewCalendar([]time.Time{
			date("2020-01-01"), // before the first trading day
			date("2020-04-01"), // no trading that day, next is 04-02
			date("2020-07-01"), // exact trading day
		})
		got := cal.Resolve(days)
		assert.Equal(t, []int{0, 2, 3}, got)
	})

	t.Run("anchors beyond the data end the schedule", func(t *testing.T) {
		cal := NewCalendar([]time.Time{
			date("2020-07-01"),
			date("2020-10-01"),
			date("2021-01-01"),
		})
		got := cal.Resolve(days)
		assert.Equal(t, []int{3}, got)
	})

	t.Run("anchors landing on the same trading day collapse", func(t *testing.T) {
		cal := NewCalendar([]time.Time{
			date("2020-01-01"),
			date("2020-01-02"),
		})
		got := cal.Resolve(days)
		assert.Equal(t, []int{0}, got)
	})

	t.Run("anchors are sorted at construction", func(t *testing.T) {
		cal := NewCalendar([]time.Time{
			date("2020-07-01"),
			date("2020-01-01"),
		})
		require.Len(t, cal.Anchors(), 2)
		assert.True(t, cal.Anchors()[0].Before(cal.Anchors()[1]))
	})
}
