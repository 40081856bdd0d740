//go:build unit

package timeutil_test

import (
	"testing"
	"time"

	"guestgate/internal/pkg/timeutil"

	"github.com/stretchr/testify/assert"
)

func TestFloorToMinute(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 15, 42, 123456789, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC), timeutil.FloorToMinute(base))

	onBoundary := time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, onBoundary, timeutil.FloorToMinute(onBoundary))
}

func TestCeilToMinute(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "seconds round up",
			in:   time.Date(2025, 3, 1, 10, 15, 1, 0, time.UTC),
			want: time.Date(2025, 3, 1, 10, 16, 0, 0, time.UTC),
		},
		{
			name: "nanoseconds round up",
			in:   time.Date(2025, 3, 1, 10, 15, 0, 1, time.UTC),
			want: time.Date(2025, 3, 1, 10, 16, 0, 0, time.UTC),
		},
		{
			name: "boundary unchanged",
			in:   time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC),
			want: time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, timeutil.CeilToMinute(tc.in))
		})
	}
}

func TestRoundingIsIdempotent(t *testing.T) {
	in := time.Date(2025, 3, 1, 10, 15, 42, 999, time.UTC)
	assert.Equal(t, timeutil.FloorToMinute(in), timeutil.FloorToMinute(timeutil.FloorToMinute(in)))
	assert.Equal(t, timeutil.CeilToMinute(in), timeutil.CeilToMinute(timeutil.CeilToMinute(in)))
}
