package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAssistant/internal/domain"
)

func TestParseDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want []time.Weekday
	}{
		{expr: "*", want: []time.Weekday{0, 1, 2, 3, 4, 5, 6}},
		{expr: "1-5", want: []time.Weekday{1, 2, 3, 4, 5}},
		{expr: "0,6", want: []time.Weekday{0, 6}},
		{expr: "5-1", want: []time.Weekday{0, 1, 5, 6}},
		{expr: "1-5,0", want: []time.Weekday{0, 1, 2, 3, 4, 5}},
		{expr: " 3 ", want: []time.Weekday{3}},
		{expr: "4-4", want: []time.Weekday{4}},
		{expr: "6-0", want: []time.Weekday{0, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			set, err := ParseDays(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.Days())
		})
	}
}

func TestParseDaysRejects(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"7", "0-7", "9-1", "-1", "mon", "", "1,,2", "1-"} {
		_, err := ParseDays(expr)
		require.Error(t, err, expr)
		assert.True(t, errors.Is(err, domain.ErrValidation), expr)
	}
}

func TestDaySetRoundTrip(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"*", "1-5", "5-1", "0,6", "2", "0-6"} {
		set, err := ParseDays(expr)
		require.NoError(t, err)
		again, err := ParseDays(set.String())
		require.NoError(t, err)
		assert.Equal(t, set, again, expr)
	}

	set, err := ParseDays("0-6")
	require.NoError(t, err)
	assert.Equal(t, "*", set.String())
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "every day", FormatDays("*"))
	assert.Equal(t, "every day", FormatDays("0-6"))
	assert.Equal(t, "weekdays", FormatDays("1-5"))
	assert.Equal(t, "weekends", FormatDays("6,0"))
	assert.Equal(t, "Mon, Wed, Fri", FormatDays("1,3,5"))
	assert.Equal(t, "Sun, Mon, Fri, Sat", FormatDays("5-1"))
}
