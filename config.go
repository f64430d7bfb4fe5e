package atlas

import "github.com/gogpu/gputypes"

// Size limits for Config.
const (
	// MaxAtlasSize is the largest supported atlas side.
	MaxAtlasSize = 16384

	// DefaultAtlasSize is the default atlas side (1024x1024).
	DefaultAtlasSize = 1024
)

// Config holds Atlas configuration.
type Config struct {
	// Size is the atlas texture size (width = height).
	// Must be a power of 2. Default: 1024
	Size int

	// MinRegionSize is the smallest lease handed out. Smaller requests are
	// rounded up to it. Must be a power of 2. Default: 8
	MinRegionSize int

	// Padding is kept clear on every side of the content of a region to
	// prevent sampling bleed. Default: 1
	Padding int

	// Format is the byte layout produced for GPU uploads.
	// Default: gputypes.TextureFormatRGBA8Unorm
	Format gputypes.TextureFormat
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Size:          DefaultAtlasSize,
		MinRegionSize: 8,
		Padding:       1,
		Format:        gputypes.TextureFormatRGBA8Unorm,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Size < 1 {
		return &ConfigError{Field: "Size", Reason: "must be positive"}
	}
	if c.Size > MaxAtlasSize {
		return &ConfigError{Field: "Size", Reason: "must be at most 16384"}
	}
	if !isPowerOfTwo(c.Size) {
		return &ConfigError{Field: "Size", Reason: "must be power of 2"}
	}
	if c.MinRegionSize < 1 {
		return &ConfigError{Field: "MinRegionSize", Reason: "must be positive"}
	}
	if !isPowerOfTwo(c.MinRegionSize) {
		return &ConfigError{Field: "MinRegionSize", Reason: "must be power of 2"}
	}
	if c.MinRegionSize > c.Size {
		return &ConfigError{Field: "MinRegionSize", Reason: "must be at most Size"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if 2*c.Padding >= c.MinRegionSize {
		return &ConfigError{Field: "Padding", Reason: "must be less than half MinRegionSize"}
	}
	if !supportedFormat(c.Format) {
		return &ConfigError{Field: "Format", Reason: "unsupported format " + c.Format.String()}
	}
	return nil
}

func supportedFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return true
	}
	return false
}

func isBGRA(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatBGRA8Unorm || f == gputypes.TextureFormatBGRA8UnormSrgb
}
