package booking

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
    t.Run("bare start", func(t *testing.T) {
        s := ParseSlot("14:00")
        assert.Equal(t, "14:00", s.Start)
        assert.Empty(t, s.ExplicitEnd)
    })

    t.Run("compound range keeps explicit end", func(t *testing.T) {
        s := ParseSlot("14:00-15:30")
        assert.Equal(t, "14:00", s.Start)
        assert.Equal(t, "15:30", s.ExplicitEnd)
    })
}

func TestValidStart(t *testing.T) {
    valid := []string{"00:00", "09:05", "14:00", "23:59"}
    for _, s := range valid {
        assert.True(t, ValidStart(s), s)
    }
    invalid := []string{"24:00", "7:30", "14:60", "1400", "ab:cd", ""}
    for _, s := range invalid {
        assert.False(t, ValidStart(s), s)
    }
}

func TestComposeDateTime(t *testing.T) {
    ts, err := ComposeDateTime("2025-01-20", "14:00")
    require.NoError(t, err)
    assert.Equal(t, time.Date(2025, 1, 20, 14, 0, 0, 0, time.UTC), ts)

    _, err = ComposeDateTime("2025-13-40", "14:00")
    assert.Error(t, err)
}

func TestInPast(t *testing.T) {
    now := time.Date(2025, 1, 20, 14, 0, 0, 0, time.UTC)

    t.Run("future start accepted", func(t *testing.T) {
        assert.False(t, InPast(now.Add(time.Hour), now))
    })

    t.Run("within grace window accepted", func(t *testing.T) {
        assert.False(t, InPast(now.Add(-30*time.Second), now))
        assert.False(t, InPast(now.Add(-PastGrace), now))
    })

    t.Run("beyond grace window rejected", func(t *testing.T) {
        assert.True(t, InPast(now.Add(-PastGrace-time.Second), now))
        assert.True(t, InPast(now.Add(-time.Hour), now))
    })
}

func TestTimeRange(t *testing.T) {
    end := time.Date(2025, 1, 20, 15, 5, 0, 0, time.UTC)

    t.Run("explicit end wins", func(t *testing.T) {
        assert.Equal(t, "14:00-15:30", TimeRange("14:00", "15:30", end))
    })

    t.Run("computed end is zero padded", func(t *testing.T) {
        assert.Equal(t, "14:00-15:05", TimeRange("14:00", "", end))
    })
}
