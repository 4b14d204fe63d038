package config

const (
	defaultCacheDir           = "~/.cache/docsmith"
	defaultLogDir             = "~/.local/share/docsmith/logs"
	defaultWorkers            = 4
	defaultTaskTimeoutSeconds = 60
	defaultMaxFileSizeMB      = 20
	defaultMode               = ModeDirect
	defaultGeminiModel        = "gemini-2.0-flash"
	defaultGeminiMaxRetries   = 5
	defaultGeminiRetryBase    = 2
	defaultOCRCommand         = "docsmith-ocr"
	defaultOCRModel           = "qwen3-vl"
	defaultOCRMaxEdge         = 1024
	defaultOCRTimeoutSeconds  = 120
	defaultConverterCommand   = "markitdown"
	defaultConverterTimeout   = 90
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Conversion: Conversion{
			Workers:            defaultWorkers,
			TaskTimeoutSeconds: defaultTaskTimeoutSeconds,
			MaxFileSizeMB:      defaultMaxFileSizeMB,
			Mode:               defaultMode,
		},
		Gemini: Gemini{
			Model:            defaultGeminiModel,
			MaxRetries:       defaultGeminiMaxRetries,
			RetryBaseSeconds: defaultGeminiRetryBase,
		},
		OCR: OCR{
			Command:        defaultOCRCommand,
			Model:          defaultOCRModel,
			MaxEdge:        defaultOCRMaxEdge,
			TimeoutSeconds: defaultOCRTimeoutSeconds,
		},
		Converter: Converter{
			Command:        defaultConverterCommand,
			TimeoutSeconds: defaultConverterTimeout,
		},
		Email: Email{
			SaveAttachments: true,
		},
		RunLog: RunLog{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
