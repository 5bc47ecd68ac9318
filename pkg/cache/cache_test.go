package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()
	require.Equal(t, Key("How long  can I borrow?"), Key("  how long can i BORROW? "))
	require.NotEqual(t, Key("opening hours"), Key("late fines"))
	require.True(t, strings.HasPrefix(Key("x"), keyPrefix))
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()
	c, err := New(context.Background(), Config{})
	require.NoError(t, err)

	require.NoError(t, c.Set(context.Background(), "q", "a"))
	_, ok, err := c.Get(context.Background(), "q")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Close())
}
