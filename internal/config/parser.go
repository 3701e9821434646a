package config

import "strings"

// Parse reads configuration content as JSONC or YAML.
//
// JSONC is selected when the first non-whitespace character is `{`; anything
// else is decoded as YAML.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	var (
		payload fileConfig
		err     error
	)
	if strings.HasPrefix(trimmed, "{") {
		payload, err = decodeJSONC(content)
	} else {
		payload, err = decodeYAML(content)
	}
	if err != nil {
		return Config{}, nil, err
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validatedWarnings...), nil
}
