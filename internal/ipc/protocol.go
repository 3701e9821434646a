package ipc

// Commands understood by the daemon.
const (
	CommandStatus     = "status"
	CommandSay        = "say"
	CommandCommands   = "commands"
	CommandPause      = "pause"
	CommandResume     = "resume"
	CommandStop       = "stop"
	CommandRegister   = "register"
	CommandUnregister = "unregister"
)

// Request is one newline-delimited JSON request.
//
// Text carries a recognized utterance for say. Phrase, Name, Ordered and
// Action describe a runtime registration; ID names the command to unregister.
// Ordered defaults to true when omitted.
type Request struct {
	Command string  `json:"command"`
	Text    string  `json:"text,omitempty"`
	Phrase  string  `json:"phrase,omitempty"`
	Name    string  `json:"name,omitempty"`
	Ordered *bool   `json:"ordered,omitempty"`
	Action  *Action `json:"action,omitempty"`
	ID      string  `json:"id,omitempty"`
}

// Action mirrors one config command action: Kind is exec, hypr, clipboard
// or notify and Value is its argument.
type Action struct {
	Kind      string `json:"kind"`
	Value     string `json:"value,omitempty"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
}

type Response struct {
	OK       bool            `json:"ok"`
	State    string          `json:"state,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	ID       string          `json:"id,omitempty"`
	Pending  []string        `json:"pending,omitempty"`
	Commands []CommandInfo `json:"commands,omitempty"`
}

// CommandInfo reports one registered command and its partial match.
type CommandInfo struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Pattern   []string `json:"pattern"`
	Ordered   bool     `json:"ordered"`
	Bound     []string `json:"bound,omitempty"`
	Satisfied int      `json:"satisfied"`
}
