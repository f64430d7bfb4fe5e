package atlas

import "errors"

// Sentinel errors for the atlas package.
var (
	// ErrInvalidArgument is returned for sizes that are not powers of two,
	// configurations that leave no levels, and other unusable input.
	ErrInvalidArgument = errors.New("atlas: invalid argument")

	// ErrOutOfRange is returned when a size, level, coordinate or node index
	// falls outside the allocator. Values are never clamped.
	ErrOutOfRange = errors.New("atlas: out of range")

	// ErrClosed is returned when operating on a closed allocator or atlas.
	ErrClosed = errors.New("atlas: closed")

	// ErrAtlasFull is returned by Atlas when no free region of the
	// requested size exists.
	ErrAtlasFull = errors.New("atlas: no free region of the requested size")

	// ErrNilImage is returned when Put is given a nil image.
	ErrNilImage = errors.New("atlas: image is nil")

	// ErrTextureSizeMismatch is returned by Bind when the GPU texture does
	// not match the atlas dimensions.
	ErrTextureSizeMismatch = errors.New("atlas: texture size does not match atlas")
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// Unwrap lets errors.Is(err, ErrInvalidArgument) match configuration errors.
func (e *ConfigError) Unwrap() error { return ErrInvalidArgument }
