package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)

	key := ObjectKey("Jalan Rusak.JPG", now)
	assert.True(t, strings.HasPrefix(key, "laporan_desa/2026/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.NotContains(t, key, "Jalan")

	assert.NotEqual(t, ObjectKey("a.png", now), ObjectKey("a.png", now))

	key = ObjectKey("noext", now)
	assert.False(t, strings.Contains(strings.TrimPrefix(key, "laporan_desa/2026/03/"), "."))
}
