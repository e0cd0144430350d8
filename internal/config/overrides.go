package config

import "fmt"

// Overrides are command-line values that take precedence over the file.
// nil fields leave the loaded value untouched.
type Overrides struct {
	Host       *string
	Port       *int
	FilesDir   *string
	DebugFiles *string
}

// Apply writes the set overrides into c and re-validates it.
func (c *Config) Apply(o Overrides) error {
	if o.Host != nil {
		c.HTTP.Host = *o.Host
	}
	if o.Port != nil {
		c.HTTP.Port = *o.Port
	}
	if o.FilesDir != nil {
		c.Storage.FilesDir = *o.FilesDir
	}
	if o.DebugFiles != nil {
		v, err := ParseFlag(*o.DebugFiles)
		if err != nil {
			return fmt.Errorf("--debug-files: %w", err)
		}
		c.Storage.DebugFiles = v
	}
	c.ApplyDefaults()
	return c.Validate()
}
