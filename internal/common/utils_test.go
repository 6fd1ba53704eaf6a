package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAny(t *testing.T) {
	assert.True(t, HasAny("light rain", "snow", "rain"))
	assert.True(t, HasAny("Thunderstorm", "thunderstorm"))
	assert.False(t, HasAny("clear", "rain"))
	assert.False(t, HasAny("clear", ""))
	assert.False(t, HasAny("anything"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"rain", "drizzle"}, SplitList(" rain, ,drizzle ,"))
	assert.Nil(t, SplitList(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "u@test.com", NormalizeEmail("  U@Test.com "))
}
