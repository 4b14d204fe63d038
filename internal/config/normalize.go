package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConversion()
	c.normalizeGemini()
	c.normalizeTools()
	if err := c.normalizeRunLog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConversion() {
	if c.Conversion.Workers <= 0 {
		c.Conversion.Workers = defaultWorkers
	}
	if c.Conversion.TaskTimeoutSeconds <= 0 {
		c.Conversion.TaskTimeoutSeconds = defaultTaskTimeoutSeconds
	}
	if c.Conversion.MaxFileSizeMB <= 0 {
		c.Conversion.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	c.Conversion.Mode = strings.ToLower(strings.TrimSpace(c.Conversion.Mode))
	if c.Conversion.Mode == "" {
		c.Conversion.Mode = defaultMode
	}
}

func (c *Config) normalizeGemini() {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" && strings.TrimSpace(c.Gemini.APIKey) == "" {
		c.Gemini.APIKey = key
	}
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if strings.TrimSpace(c.Gemini.Model) == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.MaxRetries <= 0 {
		c.Gemini.MaxRetries = defaultGeminiMaxRetries
	}
	if c.Gemini.RetryBaseSeconds <= 0 {
		c.Gemini.RetryBaseSeconds = defaultGeminiRetryBase
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.OCR.Command) == "" {
		c.OCR.Command = defaultOCRCommand
	}
	if strings.TrimSpace(c.OCR.Model) == "" {
		c.OCR.Model = defaultOCRModel
	}
	if c.OCR.MaxEdge <= 0 {
		c.OCR.MaxEdge = defaultOCRMaxEdge
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeoutSeconds
	}
	if strings.TrimSpace(c.Converter.Command) == "" {
		c.Converter.Command = defaultConverterCommand
	}
	if c.Converter.TimeoutSeconds <= 0 {
		c.Converter.TimeoutSeconds = defaultConverterTimeout
	}
}

func (c *Config) normalizeRunLog() error {
	if strings.TrimSpace(c.RunLog.Path) == "" {
		c.RunLog.Path = filepath.Join(c.Paths.CacheDir, "runs.db")
		return nil
	}
	expanded, err := expandPath(c.RunLog.Path)
	if err != nil {
		return fmt.Errorf("run_log.path: %w", err)
	}
	c.RunLog.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
