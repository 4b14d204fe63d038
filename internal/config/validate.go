package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Credential checks happen in
// ValidateForMode because the API key is only required when api-assisted
// conversion is actually requested.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateForMode performs the startup checks that depend on the conversion
// mode selected for this run. This is the only fatal configuration gate:
// it runs before any task is submitted.
func (c *Config) ValidateForMode(mode string) error {
	switch mode {
	case ModeDirect:
		return nil
	case ModeAPIAssisted:
		if c.Gemini.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/docsmith/config.toml"
			}
			return fmt.Errorf("gemini.api_key is required for api-assisted mode. Set GEMINI_API_KEY or edit %s (create with 'docsmith config init')", defaultPath)
		}
		return nil
	default:
		return fmt.Errorf("conversion.mode must be %q or %q, got %q", ModeDirect, ModeAPIAssisted, mode)
	}
}

func (c *Config) validateConversion() error {
	if c.Conversion.Workers > 64 {
		return errors.New("conversion.workers must be at most 64")
	}
	if c.Conversion.Mode != ModeDirect && c.Conversion.Mode != ModeAPIAssisted {
		return fmt.Errorf("conversion.mode must be %q or %q, got %q", ModeDirect, ModeAPIAssisted, c.Conversion.Mode)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}
