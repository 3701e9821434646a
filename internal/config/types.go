// Package config resolves, parses, validates, and defaults hark configuration.
package config

// Config is the fully materialized runtime configuration used by hark.
type Config struct {
	Buffer    BufferConfig
	Engine    EngineConfig
	Indicator IndicatorConfig
	Clipboard CommandConfig
	GRPC      GRPCConfig
	Metrics   MetricsConfig
	Log       LogConfig
	Commands  []CommandSpec
}

// BufferConfig bounds how long and how many spoken tokens stay buffered.
type BufferConfig struct {
	TTLMS     int
	MaxTokens int
}

// Match modes accepted by engine.match.
const (
	MatchExact    = "exact"
	MatchPhonetic = "phonetic"
)

// EngineConfig controls tick cadence and token comparison.
type EngineConfig struct {
	TickMS            int
	TickOnPush        bool
	Match             string
	PhoneticThreshold float64
	FuzzyThreshold    float64
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	SoundFireFile  string
	SoundFailFile  string
	ErrorTimeoutMS int
	FireTimeoutMS  int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// GRPCConfig controls the remote ingestion endpoint. Empty Listen disables it.
type GRPCConfig struct {
	Listen string
}

// MetricsConfig controls the Prometheus endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string
}

// LogConfig controls log verbosity and file rotation.
type LogConfig struct {
	Level      string
	MaxSizeMB  int
	MaxBackups int
}

// ActionKind names what a command does when it fires.
type ActionKind string

const (
	ActionExec      ActionKind = "exec"
	ActionHypr      ActionKind = "hypr"
	ActionClipboard ActionKind = "clipboard"
	ActionNotify    ActionKind = "notify"
)

// ActionConfig is one command's action. Exactly one kind is set.
//
// Exec and Hypr carry argv; Text carries the clipboard payload or the
// notification message. An empty clipboard Text copies the matched phrase.
type ActionConfig struct {
	Kind ActionKind
	Argv []string
	Raw  string
	Text string
}

// CommandSpec is one configured voice command.
type CommandSpec struct {
	Name      string
	Words     []string
	Ordered   bool
	Action    ActionConfig
	TimeoutMS int
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
