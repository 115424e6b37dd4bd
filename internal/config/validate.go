package config

import (
	"fmt"

	"subforge/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if !language.Known(c.Languages.Subtitle) {
		return fmt.Errorf("languages.subtitle: unknown language %q", c.Languages.Subtitle)
	}
	if !language.Known(c.Languages.Audio) {
		return fmt.Errorf("languages.audio: unknown language %q", c.Languages.Audio)
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.TimeoutSeconds < 0 {
		return fmt.Errorf("tools.timeout_seconds must not be negative, got %d", c.Tools.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
