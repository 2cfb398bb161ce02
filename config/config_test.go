package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithDefaultsFillsSeparator(t *testing.T) {
	c := Config{CacheDir: "/tmp/cache"}.WithDefaults()
	require.Equal(t, "/", c.Separator)
	require.Equal(t, "/tmp/cache", c.CacheDir)
}

func TestWithDefaultsKeepsExplicitSeparator(t *testing.T) {
	c := Config{Separator: "."}.WithDefaults()
	require.Equal(t, ".", c.Separator)
}
