package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
)

func newMemoryCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// TestGenerateKey tests key derivation and URL normalization
func TestGenerateKey(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{
			name: "identical URLs",
			a:    "https://example.com/img/chart.png",
			b:    "https://example.com/img/chart.png",
			same: true,
		},
		{
			name: "host case is ignored",
			a:    "https://Example.COM/img/chart.png",
			b:    "https://example.com/img/chart.png",
			same: true,
		},
		{
			name: "default port is stripped",
			a:    "https://example.com:443/img/chart.png",
			b:    "https://example.com/img/chart.png",
			same: true,
		},
		{
			name: "trailing slash is ignored",
			a:    "https://example.com/img/",
			b:    "https://example.com/img",
			same: true,
		},
		{
			name: "fragment is ignored",
			a:    "https://example.com/img/chart.png#zoom",
			b:    "https://example.com/img/chart.png",
			same: true,
		},
		{
			name: "different paths differ",
			a:    "https://example.com/img/chart.png",
			b:    "https://example.com/img/other.png",
			same: false,
		},
		{
			name: "query strings differ",
			a:    "https://example.com/img/chart.png?v=1",
			b:    "https://example.com/img/chart.png?v=2",
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyA := GenerateKey(tt.a)
			keyB := GenerateKey(tt.b)
			assert.Len(t, keyA, 64)
			if tt.same {
				assert.Equal(t, keyA, keyB)
			} else {
				assert.NotEqual(t, keyA, keyB)
			}
		})
	}
}

func TestResourceKey(t *testing.T) {
	key := ResourceKey("https://example.com/img/chart.png")

	assert.True(t, strings.HasPrefix(key, "res:"))
	assert.Equal(t, "res:"+GenerateKey("https://example.com/img/chart.png"), key)
}

func TestBadgerCache_SetGet(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()
	key := ResourceKey("https://example.com/img/chart.png")

	require.NoError(t, c.Set(ctx, key, []byte("png bytes"), 0))

	value, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), value)
}

func TestBadgerCache_GetMiss(t *testing.T) {
	c := newMemoryCache(t)

	_, err := c.Get(context.Background(), "res:unknown")

	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestBadgerCache_Has(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	assert.False(t, c.Has(ctx, "res:missing"))

	require.NoError(t, c.Set(ctx, "res:present", []byte("x"), 0))
	assert.True(t, c.Has(ctx, "res:present"))
}

func TestBadgerCache_Delete(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "res:gone", []byte("x"), 0))
	require.NoError(t, c.Delete(ctx, "res:gone"))

	_, err := c.Get(ctx, "res:gone")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestBadgerCache_TTLExpiry(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "res:short", []byte("x"), 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)

	_, err := c.Get(ctx, "res:short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestBadgerCache_Size(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	assert.Equal(t, int64(0), c.Size())

	require.NoError(t, c.Set(ctx, "res:a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "res:b", []byte("2"), 0))

	assert.Equal(t, int64(2), c.Size())
}

func TestBadgerCache_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := NewBadgerCache(Options{Directory: dir})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "res:kept", []byte("still here"), 0))
	require.NoError(t, c.Close())

	reopened, err := NewBadgerCache(Options{Directory: dir})
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "res:kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("still here"), value)
}
