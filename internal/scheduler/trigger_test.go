package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyAt_Invalid(t *testing.T) {
	for _, at := range []string{"", "7", "25:00", "07:60", "7am"} {
		_, err := DailyAt(at, time.UTC)
		assert.Error(t, err, at)
	}
}

func TestTrigger_DueOnlyAtConfiguredMinute(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	trig, err := DailyAt("07:00", berlin)
	require.NoError(t, err)

	assert.True(t, trig.Due(time.Date(2026, 3, 2, 7, 0, 0, 0, berlin)))
	assert.True(t, trig.Due(time.Date(2026, 3, 2, 7, 0, 59, 0, berlin)))
	assert.False(t, trig.Due(time.Date(2026, 3, 2, 7, 1, 0, 0, berlin)))
	assert.False(t, trig.Due(time.Date(2026, 3, 2, 6, 59, 0, 0, berlin)))
	// same instant expressed in UTC
	assert.True(t, trig.Due(time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)))
	assert.False(t, trig.Due(time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)))
}

func TestTrigger_Next(t *testing.T) {
	trig, err := DailyAt("07:30", time.UTC)
	require.NoError(t, err)

	assert.Equal(t,
		time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC),
		trig.Next(time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2026, 3, 3, 7, 30, 0, 0, time.UTC),
		trig.Next(time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)))
	assert.Equal(t, "daily at 07:30 UTC", trig.String())
}
