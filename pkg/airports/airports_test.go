package airports

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Run("Known code", func(t *testing.T) {
		a, ok := Lookup("SFO")
		require.True(t, ok)
		assert.Equal(t, "SFO", a.Code)
		assert.Equal(t, 37.6213, a.Latitude)
		assert.Equal(t, -122.3790, a.Longitude)
	})

	t.Run("Case insensitive", func(t *testing.T) {
		upper, ok := Lookup("JFK")
		require.True(t, ok)
		lower, ok := Lookup("jfk")
		require.True(t, ok)
		mixed, ok := Lookup(" jFk ")
		require.True(t, ok)
		assert.Equal(t, upper, lower)
		assert.Equal(t, upper, mixed)
	})

	t.Run("Unknown code", func(t *testing.T) {
		_, ok := Lookup("XXX")
		assert.False(t, ok)
	})

	t.Run("Empty code", func(t *testing.T) {
		_, ok := Lookup("")
		assert.False(t, ok)
	})

	t.Run("Southern hemisphere", func(t *testing.T) {
		a, ok := Lookup("SYD")
		require.True(t, ok)
		assert.Less(t, a.Latitude, 0.0)
	})
}

func TestCodes(t *testing.T) {
	codes := Codes()
	assert.Len(t, codes, 28)
	assert.True(t, sort.StringsAreSorted(codes))

	for _, code := range codes {
		a, ok := Lookup(code)
		require.True(t, ok, code)
		assert.Equal(t, code, a.Code)
		assert.Len(t, code, 3)
	}
}
