package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeLanguages()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = defaultJournalPath
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.MKVMerge = strings.TrimSpace(c.Tools.MKVMerge)
	if c.Tools.MKVMerge == "" {
		c.Tools.MKVMerge = "mkvmerge"
	}
	c.Tools.MKVPropedit = strings.TrimSpace(c.Tools.MKVPropedit)
	if c.Tools.MKVPropedit == "" {
		c.Tools.MKVPropedit = "mkvpropedit"
	}
	c.Tools.FFSubsync = strings.TrimSpace(c.Tools.FFSubsync)
	if c.Tools.FFSubsync == "" {
		c.Tools.FFSubsync = "ffsubsync"
	}
	if c.Tools.TimeoutSeconds == 0 {
		c.Tools.TimeoutSeconds = defaultToolTimeoutSeconds
	}
}

func (c *Config) normalizeLanguages() {
	c.Languages.Subtitle = strings.TrimSpace(c.Languages.Subtitle)
	if c.Languages.Subtitle == "" {
		c.Languages.Subtitle = defaultSubtitleLanguage
	}
	c.Languages.Audio = strings.TrimSpace(c.Languages.Audio)
	if c.Languages.Audio == "" {
		c.Languages.Audio = c.Languages.Subtitle
	}
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
