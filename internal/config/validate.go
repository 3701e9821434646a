package config

import (
	"fmt"
	"strings"

	"github.com/rbright/hark/internal/token"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.Buffer.TTLMS < 0 {
		return nil, fmt.Errorf("buffer.ttl_ms must be >= 0")
	}
	if cfg.Buffer.TTLMS == 0 {
		warnings = append(warnings, Warning{Message: "buffer.ttl_ms=0 disables token expiry; unmatched words are kept until buffer.max_tokens"})
	}
	if cfg.Buffer.MaxTokens < 0 {
		return nil, fmt.Errorf("buffer.max_tokens must be >= 0")
	}
	if cfg.Engine.TickMS <= 0 {
		return nil, fmt.Errorf("engine.tick_ms must be > 0")
	}
	switch cfg.Engine.Match {
	case MatchExact, MatchPhonetic:
	default:
		return nil, fmt.Errorf("engine.match must be one of: %s, %s", MatchExact, MatchPhonetic)
	}
	if !validThreshold(cfg.Engine.PhoneticThreshold) {
		return nil, fmt.Errorf("engine.phonetic_threshold must be in (0, 1]")
	}
	if !validThreshold(cfg.Engine.FuzzyThreshold) {
		return nil, fmt.Errorf("engine.fuzzy_threshold must be in (0, 1]")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.FireTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.fire_timeout_ms must be >= 0")
	}
	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if cfg.Log.MaxSizeMB <= 0 {
		return nil, fmt.Errorf("log.max_size_mb must be > 0")
	}
	if cfg.Log.MaxBackups < 0 {
		return nil, fmt.Errorf("log.max_backups must be >= 0")
	}

	commandWarnings, err := validateCommands(cfg.Commands)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, commandWarnings...)

	return warnings, nil
}

func validateCommands(commands []CommandSpec) ([]Warning, error) {
	warnings := make([]Warning, 0)
	seen := make(map[string]int, len(commands))

	for i, cmd := range commands {
		if len(cmd.Words) == 0 {
			return nil, fmt.Errorf("commands[%d]: phrase must not be empty", i)
		}
		if !hasWord(cmd.Words) {
			return nil, fmt.Errorf("commands[%d]: phrase %q has no speakable words", i, strings.Join(cmd.Words, " "))
		}
		if cmd.TimeoutMS < 0 {
			return nil, fmt.Errorf("commands[%d]: timeout_ms must be >= 0", i)
		}
		switch cmd.Action.Kind {
		case ActionExec, ActionHypr:
			if len(cmd.Action.Argv) == 0 {
				return nil, fmt.Errorf("commands[%d]: %s must not be empty", i, cmd.Action.Kind)
			}
		case ActionNotify:
			if cmd.Action.Text == "" {
				return nil, fmt.Errorf("commands[%d]: notify must not be empty", i)
			}
		case ActionClipboard:
		default:
			return nil, fmt.Errorf("commands[%d]: unknown action %q", i, cmd.Action.Kind)
		}

		if cmd.Name == "" {
			continue
		}
		if first, dup := seen[cmd.Name]; dup {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("commands[%d] reuses name %q from commands[%d]", i, cmd.Name, first)})
			continue
		}
		seen[cmd.Name] = i
	}

	return warnings, nil
}

func hasWord(words []string) bool {
	for _, word := range words {
		if len(token.Fold(word)) > 0 {
			return true
		}
	}
	return false
}

func validThreshold(v float64) bool {
	return v > 0 && v <= 1
}
