package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape shared by the JSONC and YAML formats.
// Pointer fields distinguish "absent" from zero values so defaults survive.
type fileConfig struct {
	Buffer    *fileBuffer    `json:"buffer" yaml:"buffer"`
	Engine    *fileEngine    `json:"engine" yaml:"engine"`
	Indicator *fileIndicator `json:"indicator" yaml:"indicator"`
	GRPC      *fileListen    `json:"grpc" yaml:"grpc"`
	Metrics   *fileListen    `json:"metrics" yaml:"metrics"`
	Log       *fileLog       `json:"log" yaml:"log"`

	ClipboardCmd *string       `json:"clipboard_cmd" yaml:"clipboard_cmd"`
	Commands     []fileCommand `json:"commands" yaml:"commands"`
}

type fileBuffer struct {
	TTLMS     *int `json:"ttl_ms" yaml:"ttl_ms"`
	MaxTokens *int `json:"max_tokens" yaml:"max_tokens"`
}

type fileEngine struct {
	TickMS            *int     `json:"tick_ms" yaml:"tick_ms"`
	TickOnPush        *bool    `json:"tick_on_push" yaml:"tick_on_push"`
	Match             *string  `json:"match" yaml:"match"`
	PhoneticThreshold *float64 `json:"phonetic_threshold" yaml:"phonetic_threshold"`
	FuzzyThreshold    *float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`
}

type fileIndicator struct {
	Enable         *bool   `json:"enable" yaml:"enable"`
	Backend        *string `json:"backend" yaml:"backend"`
	DesktopAppName *string `json:"desktop_app_name" yaml:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable" yaml:"sound_enable"`
	SoundFireFile  *string `json:"sound_fire_file" yaml:"sound_fire_file"`
	SoundFailFile  *string `json:"sound_fail_file" yaml:"sound_fail_file"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms" yaml:"error_timeout_ms"`
	FireTimeoutMS  *int    `json:"fire_timeout_ms" yaml:"fire_timeout_ms"`
}

type fileListen struct {
	Listen *string `json:"listen" yaml:"listen"`
}

type fileLog struct {
	Level      *string `json:"level" yaml:"level"`
	MaxSizeMB  *int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups *int    `json:"max_backups" yaml:"max_backups"`
}

type fileCommand struct {
	Name      *string    `json:"name" yaml:"name"`
	Phrase    *string    `json:"phrase" yaml:"phrase"`
	Words     stringList `json:"words" yaml:"words"`
	Ordered   *bool      `json:"ordered" yaml:"ordered"`
	Exec      *string    `json:"exec" yaml:"exec"`
	Hypr      *string    `json:"hypr" yaml:"hypr"`
	Clipboard *string    `json:"clipboard" yaml:"clipboard"`
	Notify    *string    `json:"notify" yaml:"notify"`
	TimeoutMS *int       `json:"timeout_ms" yaml:"timeout_ms"`
}

// stringList accepts either a list of strings or one comma-delimited string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = splitCommaList(single)
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	case yaml.ScalarNode:
		*l = splitCommaList(value.Value)
		return nil
	default:
		return fmt.Errorf("line %d: expected string list or comma-delimited string", value.Line)
	}
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (payload fileConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if b := payload.Buffer; b != nil {
		setInt(&cfg.Buffer.TTLMS, b.TTLMS)
		setInt(&cfg.Buffer.MaxTokens, b.MaxTokens)
	}

	if e := payload.Engine; e != nil {
		setInt(&cfg.Engine.TickMS, e.TickMS)
		if e.TickOnPush != nil {
			cfg.Engine.TickOnPush = *e.TickOnPush
		}
		if e.Match != nil {
			cfg.Engine.Match = strings.ToLower(strings.TrimSpace(*e.Match))
		}
		if e.PhoneticThreshold != nil {
			cfg.Engine.PhoneticThreshold = *e.PhoneticThreshold
		}
		if e.FuzzyThreshold != nil {
			cfg.Engine.FuzzyThreshold = *e.FuzzyThreshold
		}
	}

	if ind := payload.Indicator; ind != nil {
		if ind.Enable != nil {
			cfg.Indicator.Enable = *ind.Enable
		}
		setTrimmed(&cfg.Indicator.Backend, ind.Backend)
		setTrimmed(&cfg.Indicator.DesktopAppName, ind.DesktopAppName)
		if ind.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *ind.SoundEnable
		}
		setTrimmed(&cfg.Indicator.SoundFireFile, ind.SoundFireFile)
		setTrimmed(&cfg.Indicator.SoundFailFile, ind.SoundFailFile)
		setInt(&cfg.Indicator.ErrorTimeoutMS, ind.ErrorTimeoutMS)
		setInt(&cfg.Indicator.FireTimeoutMS, ind.FireTimeoutMS)
	}

	if payload.GRPC != nil {
		setTrimmed(&cfg.GRPC.Listen, payload.GRPC.Listen)
	}
	if payload.Metrics != nil {
		setTrimmed(&cfg.Metrics.Listen, payload.Metrics.Listen)
	}

	if l := payload.Log; l != nil {
		if l.Level != nil {
			cfg.Log.Level = strings.ToLower(strings.TrimSpace(*l.Level))
		}
		setInt(&cfg.Log.MaxSizeMB, l.MaxSizeMB)
		setInt(&cfg.Log.MaxBackups, l.MaxBackups)
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := ParseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.Commands != nil {
		cfg.Commands = make([]CommandSpec, 0, len(payload.Commands))
		for i, entry := range payload.Commands {
			spec, err := entry.toSpec()
			if err != nil {
				return nil, fmt.Errorf("commands[%d]: %w", i, err)
			}
			cfg.Commands = append(cfg.Commands, spec)
		}
	}

	return warnings, nil
}

func (entry fileCommand) toSpec() (CommandSpec, error) {
	spec := CommandSpec{Ordered: true}
	setTrimmed(&spec.Name, entry.Name)
	if entry.Ordered != nil {
		spec.Ordered = *entry.Ordered
	}
	setInt(&spec.TimeoutMS, entry.TimeoutMS)

	switch {
	case entry.Phrase != nil && entry.Words != nil:
		return CommandSpec{}, fmt.Errorf("phrase and words are mutually exclusive")
	case entry.Phrase != nil:
		spec.Words = strings.Fields(*entry.Phrase)
	default:
		for _, word := range entry.Words {
			spec.Words = append(spec.Words, strings.Fields(word)...)
		}
	}

	actions := 0
	if entry.Exec != nil {
		actions++
		argv, err := ParseArgv(*entry.Exec)
		if err != nil {
			return CommandSpec{}, fmt.Errorf("invalid exec: %w", err)
		}
		spec.Action = ActionConfig{Kind: ActionExec, Raw: *entry.Exec, Argv: argv}
	}
	if entry.Hypr != nil {
		actions++
		argv, err := ParseArgv(*entry.Hypr)
		if err != nil {
			return CommandSpec{}, fmt.Errorf("invalid hypr: %w", err)
		}
		spec.Action = ActionConfig{Kind: ActionHypr, Raw: *entry.Hypr, Argv: argv}
	}
	if entry.Clipboard != nil {
		actions++
		spec.Action = ActionConfig{Kind: ActionClipboard, Text: *entry.Clipboard}
	}
	if entry.Notify != nil {
		actions++
		spec.Action = ActionConfig{Kind: ActionNotify, Text: strings.TrimSpace(*entry.Notify)}
	}
	if actions != 1 {
		return CommandSpec{}, fmt.Errorf("exactly one of exec, hypr, clipboard, notify is required")
	}

	return spec, nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
