package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "wellness:analytics:group:abc:30", Key("group", "abc", "30"))
	assert.Equal(t, "wellness:analytics:", Key())
}

func TestNilCacheMisses(t *testing.T) {
	var c *AnalyticsCache
	ctx := context.Background()

	var dst map[string]int
	hit, err := c.Get(ctx, Key("group", "abc"), &dst)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.NoError(t, c.Set(ctx, Key("group", "abc"), map[string]int{"a": 1}))
	assert.NoError(t, c.Invalidate(ctx, "abc"))
	assert.NoError(t, c.Close())
}
