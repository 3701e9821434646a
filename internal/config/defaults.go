package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Buffer: BufferConfig{
			TTLMS:     8000,
			MaxTokens: 256,
		},
		Engine: EngineConfig{
			TickMS:            100,
			TickOnPush:        true,
			Match:             MatchExact,
			PhoneticThreshold: 0.75,
			FuzzyThreshold:    0.90,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "hark",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
			FireTimeoutMS:  900,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
