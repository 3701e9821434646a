// Package indicator shows listener state and command outcomes as desktop
// notifications and short audio cues.
package indicator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/hypr"
)

// Controller is the session-facing indicator contract.
type Controller interface {
	ShowListening(context.Context)
	ShowPaused(context.Context)
	ShowFired(ctx context.Context, name string)
	ShowFailure(ctx context.Context, text string)
	Notify(ctx context.Context, text string) error
	Hide(context.Context)
}

const (
	iconWarning = 0
	iconInfo    = 1
	iconOK      = 5
	iconError   = 3

	colorListening = "rgb(89b4fa)"
	colorPaused    = "rgb(cba6f7)"
	colorFired     = "rgb(a6e3a1)"
	colorError     = "rgb(f38ba8)"
)

// HyprNotify is the concrete indicator implementation used by the daemon.
// It routes notifications via Hyprland or desktop DBus based on config backend.
type HyprNotify struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// NewHyprNotify creates an indicator controller from config.
func NewHyprNotify(cfg config.IndicatorConfig, logger *slog.Logger) *HyprNotify {
	return &HyprNotify{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
}

// ShowListening signals that spoken tokens are accepted.
func (h *HyprNotify) ShowListening(ctx context.Context) {
	h.playCue(cueListen)
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, iconInfo, 1500, colorListening, h.messages.listening)
	})
}

// ShowPaused signals that spoken tokens are ignored until resume.
func (h *HyprNotify) ShowPaused(ctx context.Context) {
	h.playCue(cuePause)
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, iconWarning, 300000, colorPaused, h.messages.paused)
	})
}

// ShowFired confirms that a command completed.
func (h *HyprNotify) ShowFired(ctx context.Context, name string) {
	h.playCue(cueFire)
	if !h.cfg.Enable || h.cfg.FireTimeoutMS == 0 {
		return
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, iconOK, h.cfg.FireTimeoutMS, colorFired, h.messages.firedText(name))
	})
}

// ShowFailure displays a failed command action.
func (h *HyprNotify) ShowFailure(ctx context.Context, text string) {
	h.playCue(cueFail)
	if !h.cfg.Enable {
		return
	}
	if text == "" {
		text = h.messages.failure
	}
	timeout := h.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, iconError, timeout, colorError, text)
	})
}

// Notify shows text on behalf of a notify command action. Unlike the Show*
// methods it reports failures, and it ignores indicator.enable since the user
// asked for the message explicitly.
func (h *HyprNotify) Notify(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("notification text must not be empty")
	}
	timeout := h.cfg.FireTimeoutMS
	if timeout <= 0 {
		timeout = 2000
	}
	return h.notify(ctx, iconInfo, timeout, colorListening, text)
}

// Hide dismisses the active indicator surface.
func (h *HyprNotify) Hide(ctx context.Context) {
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, h.dismiss)
}

func (h *HyprNotify) desktopBackend() bool {
	return strings.EqualFold(strings.TrimSpace(h.cfg.Backend), "desktop")
}

// notify dispatches indicator output through the configured backend.
func (h *HyprNotify) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if h.desktopBackend() {
		return h.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

// dismiss removes indicator output from the configured backend.
func (h *HyprNotify) dismiss(ctx context.Context) error {
	if h.desktopBackend() {
		return h.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (h *HyprNotify) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	h.mu.Lock()
	replaceID := h.desktopNotificationID
	h.mu.Unlock()

	appName := strings.TrimSpace(h.cfg.DesktopAppName)
	if appName == "" {
		appName = "hark"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.desktopNotificationID = id
	h.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (h *HyprNotify) dismissDesktop(ctx context.Context) error {
	h.mu.Lock()
	id := h.desktopNotificationID
	h.desktopNotificationID = 0
	h.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (h *HyprNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		h.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (h *HyprNotify) playCue(kind cueKind) {
	if !h.cfg.SoundEnable {
		return
	}
	go func() {
		h.soundMu.Lock()
		defer h.soundMu.Unlock()
		if err := emitCue(context.Background(), kind, h.cfg); err != nil {
			h.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (h *HyprNotify) log(message string, err error) {
	if h.logger == nil || err == nil {
		return
	}
	h.logger.Debug(message, "error", err.Error())
}
