package atlas

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if config.Size != DefaultAtlasSize {
		t.Errorf("Size = %d, want %d", config.Size, DefaultAtlasSize)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"bgra", func(c *Config) { c.Format = gputypes.TextureFormatBGRA8UnormSrgb }, ""},
		{"no padding", func(c *Config) { c.Padding = 0; c.MinRegionSize = 1 }, ""},
		{"max size", func(c *Config) { c.Size = MaxAtlasSize }, ""},
		{"zero size", func(c *Config) { c.Size = 0 }, "Size"},
		{"too large", func(c *Config) { c.Size = 2 * MaxAtlasSize }, "Size"},
		{"size not power of 2", func(c *Config) { c.Size = 1000 }, "Size"},
		{"zero min region", func(c *Config) { c.MinRegionSize = 0 }, "MinRegionSize"},
		{"min region not power of 2", func(c *Config) { c.MinRegionSize = 12 }, "MinRegionSize"},
		{"min region above size", func(c *Config) { c.MinRegionSize = 2048 }, "MinRegionSize"},
		{"negative padding", func(c *Config) { c.Padding = -1 }, "Padding"},
		{"padding fills region", func(c *Config) { c.Padding = 4 }, "Padding"},
		{"unsupported format", func(c *Config) { c.Format = gputypes.TextureFormatR8Unorm }, "Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)

			err := config.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
			if !errors.Is(err, ErrInvalidArgument) {
				t.Error("ConfigError should match ErrInvalidArgument")
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "Size", Reason: "must be positive"}
	want := "atlas: invalid config.Size: must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
