package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Partition(t *testing.T) {
	now := at(10, 0)
	cases := []struct {
		name       string
		start, end int
		want       Status
	}{
		{"starts later", 11, 12, StatusUpcoming},
		{"starts now", 10, 11, StatusOngoing},
		{"ends now", 9, 10, StatusOngoing},
		{"spans now", 9, 11, StatusOngoing},
		{"ended", 8, 9, StatusEnded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := at(tc.start, 0), at(tc.end, 0)
			got := Classify(start, end, now)
			assert.Equal(t, tc.want, got)

			matched := 0
			for _, s := range []Status{StatusUpcoming, StatusOngoing, StatusEnded} {
				if s.Matches(start, end, now) {
					matched++
				}
			}
			assert.Equal(t, 1, matched, "each booking belongs to exactly one status")
			assert.True(t, StatusAll.Matches(start, end, now))
		})
	}
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusUpcoming, ParseStatus(" Upcoming "))
	assert.Equal(t, StatusOngoing, ParseStatus("ongoing"))
	assert.Equal(t, StatusEnded, ParseStatus("ended"))
	assert.Equal(t, StatusAll, ParseStatus("all"))
	assert.Equal(t, StatusAll, ParseStatus("cancelled"))
	assert.Equal(t, StatusAll, ParseStatus(""))
}

func TestCounts(t *testing.T) {
	now := at(10, 0)
	var c Counts
	c.Add(at(11, 0), at(12, 0), now)
	c.Add(at(9, 0), at(11, 0), now)
	c.Add(at(7, 0), at(8, 0), now)
	c.Add(at(6, 0), at(7, 0), now)

	assert.Equal(t, Counts{Total: 4, Upcoming: 1, Ongoing: 1, Ended: 2}, c)
}
