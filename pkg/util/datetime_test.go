package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISO8601RoundTrip(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	in := time.Date(2024, 3, 9, 17, 4, 5, 0, loc)

	s := TimeToISO8601Str(in)
	assert.Equal(t, "2024-03-09T10:04:05Z", s)

	out, err := ParseISO8601(s)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
}
