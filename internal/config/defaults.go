package config

const (
	defaultLibraryDir  = "~/media/library"
	defaultLogDir      = "~/.local/share/subforge/logs"
	defaultJournalPath = "~/.local/share/subforge/journal.db"

	defaultSubtitleLanguage = "Persian"

	defaultToolTimeoutSeconds = 600

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns the built-in configuration values.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:  defaultLibraryDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Tools: Tools{
			MKVMerge:       "mkvmerge",
			MKVPropedit:    "mkvpropedit",
			FFSubsync:      "ffsubsync",
			TimeoutSeconds: defaultToolTimeoutSeconds,
		},
		// Audio is left empty so normalize can tell "not configured" from an
		// explicit choice; it falls back to the subtitle language.
		Languages: Languages{
			Subtitle: defaultSubtitleLanguage,
		},
		Pipeline: Pipeline{
			Convert: true,
			Clean:   true,
			Sync:    true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
