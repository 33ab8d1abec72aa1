package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 10, 19, 5, 30, 0, 123456789, time.FixedZone("WIB", 7*60*60))
	id := uuid.New()

	token := EncodeCursor(&Cursor{CreatedAt: at, ID: id})
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")

	parsed, err := ParseCursor(token)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, parsed.CreatedAt.Equal(at))
	assert.Equal(t, time.UTC, parsed.CreatedAt.Location())
	assert.Equal(t, id, parsed.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	blank, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, blank)
	assert.Empty(t, EncodeCursor(nil))

	for _, token := range []string{"***", "bm8tc2VwYXJhdG9y", "bm90LWEtdGltZXxhYmM"} {
		_, err := ParseCursor(token)
		assert.Error(t, err, token)
	}
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	type row struct {
		at time.Time
		id uuid.UUID
	}
	rows := []row{{base.Add(3 * time.Minute), uuid.New()}, {base.Add(2 * time.Minute), uuid.New()}, {base.Add(time.Minute), uuid.New()}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	kept, next := Trim(rows, 2, cursorOf)
	require.Len(t, kept, 2)
	require.NotNil(t, next)
	assert.Equal(t, rows[1].id, next.ID)

	kept, next = Trim(rows, 3, cursorOf)
	assert.Len(t, kept, 3)
	assert.Nil(t, next)
}
