//go:build unit

package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntilNextRun(t *testing.T) {
	zone := time.FixedZone("local", 2*60*60)

	cases := []struct {
		name string
		now  time.Time
		hour int
		want time.Duration
	}{
		{
			name: "hour still ahead today",
			now:  time.Date(2025, 3, 1, 1, 30, 0, 0, zone),
			hour: 3,
			want: 90 * time.Minute,
		},
		{
			name: "exactly on the hour rolls to tomorrow",
			now:  time.Date(2025, 3, 1, 3, 0, 0, 0, zone),
			hour: 3,
			want: 24 * time.Hour,
		},
		{
			name: "one second past rolls to tomorrow",
			now:  time.Date(2025, 3, 1, 3, 0, 1, 0, zone),
			hour: 3,
			want: 24*time.Hour - time.Second,
		},
		{
			name: "late evening waits across midnight",
			now:  time.Date(2025, 3, 1, 23, 0, 0, 0, zone),
			hour: 3,
			want: 4 * time.Hour,
		},
		{
			name: "midnight run hour",
			now:  time.Date(2025, 3, 1, 0, 30, 0, 0, zone),
			hour: 0,
			want: 23*time.Hour + 30*time.Minute,
		},
		{
			name: "month rollover",
			now:  time.Date(2025, 3, 31, 12, 0, 0, 0, zone),
			hour: 3,
			want: 15 * time.Hour,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, untilNextRun(tc.now, tc.hour))
		})
	}
}
