package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/docstore"
	"catalog_back_end/internal/normalize"
)

func TestToStorageEncodesTimestamps(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.UTC)
	doc := docstore.Document{"id": "p1", "created_at": created, "updated_at": created}

	stored := normalize.ToStorage(doc)

	assert.Equal(t, "2026-03-01T10:30:00.123456789Z", stored["created_at"])
	assert.Equal(t, "2026-03-01T10:30:00.123456789Z", stored["updated_at"])
	assert.Equal(t, "p1", stored["id"])
	assert.IsType(t, time.Time{}, doc["created_at"], "input must not be mutated")
}

func TestToStorageConvertsToUTC(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	doc := docstore.Document{"created_at": time.Date(2026, 3, 1, 11, 0, 0, 0, paris)}

	stored := normalize.ToStorage(doc)

	assert.Equal(t, "2026-03-01T10:00:00Z", stored["created_at"])
}

func TestRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	doc := docstore.Document{
		"id":         "p1",
		"name":       "Shirt",
		"price":      19.99,
		"created_at": now,
		"updated_at": now.Add(time.Second),
	}

	back := normalize.FromStorage(normalize.ToStorage(doc))

	require.Len(t, back, len(doc))
	for k, v := range doc {
		if ts, ok := v.(time.Time); ok {
			assert.True(t, ts.Equal(back[k].(time.Time)), "field %s", k)
			continue
		}
		assert.Equal(t, v, back[k], "field %s", k)
	}
}

func TestIdempotent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	doc := docstore.Document{"created_at": now}

	once := normalize.ToStorage(doc)
	assert.Equal(t, once, normalize.ToStorage(once))

	parsed := normalize.FromStorage(once)
	assert.Equal(t, parsed, normalize.FromStorage(parsed))
}

func TestPassThrough(t *testing.T) {
	t.Run("absent fields", func(t *testing.T) {
		doc := docstore.Document{"name": "Hat"}
		assert.Equal(t, doc, normalize.ToStorage(doc))
		assert.Equal(t, doc, normalize.FromStorage(doc))
	})

	t.Run("unparseable text is left as is", func(t *testing.T) {
		doc := docstore.Document{"created_at": "hier"}
		assert.Equal(t, "hier", normalize.FromStorage(doc)["created_at"])
	})

	t.Run("nil document", func(t *testing.T) {
		assert.Nil(t, normalize.ToStorage(nil))
		assert.Nil(t, normalize.FromStorage(nil))
	})
}
