package indicator

import (
	"fmt"
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	listening string
	paused    string
	fired     string
	failure   string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

// resolveLocale maps LANG to a supported message locale; only English exists.
func resolveLocale(string) locale {
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			listening: "Listening…",
			paused:    "Listening paused",
			fired:     "Heard: %s",
			failure:   "Command failed",
		}
	}
}

// firedText renders the fired message for a command name.
func (m messages) firedText(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return strings.TrimSpace(strings.TrimSuffix(m.fired, "%s"))
	}
	return fmt.Sprintf(m.fired, name)
}
