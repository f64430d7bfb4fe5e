package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/atlas"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPackConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "atlaspack.toml", `
[atlas]
size = 256
padding = 2
format = "bgra8unorm-srgb"

[output]
image = "out.png"

[simulate]
seed = 99
`)

	c, err := loadPackConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 256, c.Atlas.Size)
	assert.Equal(t, 2, c.Atlas.Padding)
	assert.Equal(t, "out.png", c.Output.Image)
	assert.Equal(t, uint64(99), c.Simulate.Seed)

	// Keys missing from the file keep their defaults.
	def := defaultPackConfig()
	assert.Equal(t, def.Atlas.MinRegionSize, c.Atlas.MinRegionSize)
	assert.Equal(t, def.Output.Manifest, c.Output.Manifest)
	assert.Equal(t, def.Simulate.Steps, c.Simulate.Steps)

	ac, err := c.atlasConfig()
	require.NoError(t, err)
	assert.Equal(t, gputypes.TextureFormatBGRA8UnormSrgb, ac.Format)
}

func TestLoadPackConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[atlas\nsize = 1"},
		{"unknown key", "[atlas]\nsizes = 256"},
		{"bad format", "[atlas]\nformat = \"r8unorm\""},
		{"bad size", "[atlas]\nsize = 300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadPackConfig(writeFile(t, dir, tt.name+".toml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := loadPackConfig(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPackConfig_InvalidAtlas(t *testing.T) {
	c := defaultPackConfig()
	c.Atlas.Padding = 4

	_, err := c.atlasConfig()
	var cfgErr *atlas.ConfigError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "Padding", cfgErr.Field)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]gputypes.TextureFormat{
		"":                gputypes.TextureFormatRGBA8Unorm,
		"RGBA8Unorm":      gputypes.TextureFormatRGBA8Unorm,
		"rgba8unorm-srgb": gputypes.TextureFormatRGBA8UnormSrgb,
		"bgra8unorm":      gputypes.TextureFormatBGRA8Unorm,
		"bgra8unorm-srgb": gputypes.TextureFormatBGRA8UnormSrgb,
	} {
		got, err := parseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseFormat("rgb565")
	assert.Error(t, err)
}
