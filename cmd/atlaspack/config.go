package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/atlas"
)

// packConfig is the on-disk configuration of atlaspack.
type packConfig struct {
	Atlas    atlasConfig    `toml:"atlas"`
	Output   outputConfig   `toml:"output"`
	Simulate simulateConfig `toml:"simulate"`
}

type atlasConfig struct {
	Size          int    `toml:"size"`
	MinRegionSize int    `toml:"min_region_size"`
	Padding       int    `toml:"padding"`
	Format        string `toml:"format"` // rgba8unorm, rgba8unorm-srgb, bgra8unorm, bgra8unorm-srgb
}

type outputConfig struct {
	Image    string `toml:"image"`
	Manifest string `toml:"manifest"`
}

type simulateConfig struct {
	Steps     int     `toml:"steps"`
	Seed      uint64  `toml:"seed"`
	FreeRatio float64 `toml:"free_ratio"` // probability that a step frees instead of allocating
	MaxSize   int     `toml:"max_size"`
}

func defaultPackConfig() packConfig {
	def := atlas.DefaultConfig()
	return packConfig{
		Atlas: atlasConfig{
			Size:          def.Size,
			MinRegionSize: def.MinRegionSize,
			Padding:       def.Padding,
			Format:        "rgba8unorm",
		},
		Output: outputConfig{
			Image:    "atlas.png",
			Manifest: "atlas.json",
		},
		Simulate: simulateConfig{
			Steps:     10000,
			Seed:      1,
			FreeRatio: 0.4,
			MaxSize:   64,
		},
	}
}

// loadPackConfig reads path over the defaults. Keys missing from the file
// keep their default values.
func loadPackConfig(path string) (packConfig, error) {
	c := defaultPackConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return c, fmt.Errorf("parse config: unknown keys %v", undecoded)
	}
	if _, err := c.atlasConfig(); err != nil {
		return c, err
	}
	return c, nil
}

// atlasConfig converts the file section into a validated atlas.Config.
func (c packConfig) atlasConfig() (atlas.Config, error) {
	format, err := parseFormat(c.Atlas.Format)
	if err != nil {
		return atlas.Config{}, err
	}
	ac := atlas.Config{
		Size:          c.Atlas.Size,
		MinRegionSize: c.Atlas.MinRegionSize,
		Padding:       c.Atlas.Padding,
		Format:        format,
	}
	if err := ac.Validate(); err != nil {
		return atlas.Config{}, err
	}
	return ac, nil
}

func parseFormat(s string) (gputypes.TextureFormat, error) {
	switch strings.ToLower(s) {
	case "", "rgba8unorm":
		return gputypes.TextureFormatRGBA8Unorm, nil
	case "rgba8unorm-srgb":
		return gputypes.TextureFormatRGBA8UnormSrgb, nil
	case "bgra8unorm":
		return gputypes.TextureFormatBGRA8Unorm, nil
	case "bgra8unorm-srgb":
		return gputypes.TextureFormatBGRA8UnormSrgb, nil
	}
	return 0, fmt.Errorf("unknown texture format %q", s)
}
