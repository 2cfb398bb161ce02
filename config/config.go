// Package config bundles the small set of knobs a trajectory needs at open
// time, and wires up the process-wide structured logger every other
// package logs through. Grounded on the teacher's deps.Deps, which bundled
// a *gorm.DB and a document store the same way: one struct passed down
// into the layer that needs shared, long-lived handles.
package config

import (
	"github.com/eluv-io/log-go"
)

// Config controls how a trajectory is opened and how its features are
// coded and cached.
type Config struct {
	// CacheDir is where decoded-cache files are written, named by a hash
	// of the trajectory's path. Empty disables the cache entirely.
	CacheDir string

	// Lossy selects av1 over ffv1 for image-like features (feature.SelectCodec).
	Lossy bool

	// Separator joins nested feature-name path segments ("camera/left")
	// into cache group hierarchies. Defaults to "/" when empty.
	Separator string
}

// WithDefaults returns a copy of c with zero-value fields filled in.
func (c Config) WithDefaults() Config {
	if c.Separator == "" {
		c.Separator = "/"
	}
	return c
}

// InitLogging configures the package-wide structured logger used by the
// trajectory, cache and framecodec packages. level is one of log-go's
// level names ("debug", "info", "warn", "error"); handler is "text" or
// "json". Call once, typically from a CLI's root command.
func InitLogging(level, handler string) {
	log.SetDefault(&log.Config{
		Level:   level,
		Handler: handler,
	})
}
