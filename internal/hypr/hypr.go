// Package hypr wraps the hyprctl commands hark uses for command actions and
// indicator notifications.
package hypr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultNotifyColor is used when Notify receives no color.
const DefaultNotifyColor = "rgb(89b4fa)"

// Dispatch runs `hyprctl --quiet dispatch <dispatcher> [args...]`.
func Dispatch(ctx context.Context, dispatcher string, args ...string) error {
	dispatcher = strings.TrimSpace(dispatcher)
	if dispatcher == "" {
		return errors.New("dispatch requires a dispatcher name")
	}
	argv := append([]string{"--quiet", "dispatch", dispatcher}, args...)
	return runHyprctl(ctx, argv...)
}

// Notify sends a Hyprland notification payload.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = DefaultNotifyColor
	}
	return Dispatch(ctx, "notify", strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	return Dispatch(ctx, "dismissnotify")
}

// Version returns the first line of `hyprctl version`.
func Version(ctx context.Context) (string, error) {
	out, err := runHyprctlOutput(ctx, "version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

func runHyprctl(ctx context.Context, args ...string) error {
	_, err := runHyprctlOutput(ctx, args...)
	return err
}

func runHyprctlOutput(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
		}
		return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, trimmed)
	}
	return out, nil
}
