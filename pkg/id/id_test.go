package id

import (
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ids = append(ids, New())
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestNewAtEmbedsTime(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	s := NewAt(ts)
	assert.Len(t, s, 26)

	u, err := ulid.ParseStrict(s)
	require.NoError(t, err)
	assert.True(t, ulid.Time(u.Time()).Equal(ts))
}

func TestNewAtOrdersByTime(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	later := NewAt(ts.Add(time.Millisecond))
	earlier := NewAt(ts)
	assert.Less(t, earlier, later)
}
