// Package hardware is the host-control collaborator: launching apps, volume,
// brightness, web search, file tidying, focus mode, clipboard, telemetry and
// the focused window title.
//
// Desktop integration goes through well-known command-line tools
// (xdg-open, pactl, brightnessctl, wl-paste/xclip, xdotool, pkill). When a
// tool is missing the operation fails with ErrUnsupported; callers treat that
// as an ordinary failed action.
package hardware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrUnsupported means the host lacks the tooling for an operation.
	ErrUnsupported = errors.New("hardware: operation unsupported on this host")
	// ErrAppNotFound means no launchable application matched the name.
	ErrAppNotFound = errors.New("hardware: application not found")
)

// Runner executes external commands.
type Runner interface {
	LookPath(name string) (string, error)
	// Output runs the command to completion and returns stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches the command without waiting for it.
	Start(name string, args ...string) error
}

// ExecRunner is the os/exec Runner.
type ExecRunner struct{}

// LookPath wraps exec.LookPath.
func (ExecRunner) LookPath(name string) (string, error) { return exec.LookPath(name) }

// Output wraps exec.CommandContext(...).Output.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Start launches a detached process.
func (ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Options configures a Controller.
type Options struct {
	// OrganizeDir is the directory organize_files sorts; empty means ~/Downloads.
	OrganizeDir string
	// Distractions are process names focus mode terminates.
	Distractions []string
	// Sampler provides telemetry; nil picks NewSampler().
	Sampler Sampler
	// Runner executes commands; nil means ExecRunner.
	Runner Runner
}

// Controller implements every host operation the agent may request.
type Controller struct {
	runner       Runner
	sampler      Sampler
	organizeDir  string
	distractions []string
	logger       zerolog.Logger
}

// NewController creates a Controller.
func NewController(opts Options, logger zerolog.Logger) *Controller {
	c := &Controller{
		runner:       opts.Runner,
		sampler:      opts.Sampler,
		organizeDir:  opts.OrganizeDir,
		distractions: opts.Distractions,
		logger:       logger.With().Str("component", "hardware").Logger(),
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	if c.sampler == nil {
		c.sampler = NewSampler()
	}
	if c.organizeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.organizeDir = filepath.Join(home, "Downloads")
		}
	}
	if len(c.distractions) == 0 {
		c.distractions = []string{"discord", "steam", "spotify", "battle.net"}
	}
	return c
}

// first returns the first tool in names present on PATH.
func (c *Controller) first(names ...string) (string, bool) {
	for _, n := range names {
		if _, err := c.runner.LookPath(n); err == nil {
			return n, true
		}
	}
	return "", false
}

// OpenApp launches the executable called name (lowercased, spaces dashed).
func (c *Controller) OpenApp(_ context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrAppNotFound)
	}
	for _, candidate := range []string{name, strings.ReplaceAll(name, " ", "-"), strings.ReplaceAll(name, " ", "")} {
		path, err := c.runner.LookPath(candidate)
		if err != nil {
			continue
		}
		if err := c.runner.Start(path); err != nil {
			return fmt.Errorf("failed to launch %s: %w", name, err)
		}
		c.logger.Info().Str("app", name).Msg("application launched")
		return nil
	}
	if launcher, ok := c.first("gtk-launch"); ok {
		if err := c.runner.Start(launcher, name); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAppNotFound, name)
}

// SearchURL builds the search URL for query, optionally restricted to site.
func SearchURL(query, site string) string {
	q := strings.TrimSpace(query)
	if s := strings.ToLower(strings.TrimSpace(site)); s != "" {
		q = "site:" + s + " " + q
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(q)
}

// WebSearch opens a browser on the search results and returns the URL.
func (c *Controller) WebSearch(_ context.Context, query, site string) (string, error) {
	u := SearchURL(query, site)
	opener, ok := c.first("xdg-open", "open")
	if !ok {
		return u, ErrUnsupported
	}
	if err := c.runner.Start(opener, u); err != nil {
		return u, fmt.Errorf("failed to open browser: %w", err)
	}
	return u, nil
}

func percent(v int) int {
	return max(0, min(100, v))
}

// SetVolume sets the default output volume in percent.
func (c *Controller) SetVolume(ctx context.Context, level int) error {
	level = percent(level)
	if tool, ok := c.first("pactl", "amixer"); ok {
		var err error
		if tool == "pactl" {
			_, err = c.runner.Output(ctx, tool, "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%d%%", level))
		} else {
			_, err = c.runner.Output(ctx, tool, "-q", "sset", "Master", fmt.Sprintf("%d%%", level))
		}
		return err
	}
	return ErrUnsupported
}

// SetBrightness sets the primary backlight in percent.
func (c *Controller) SetBrightness(ctx context.Context, level int) error {
	tool, ok := c.first("brightnessctl")
	if !ok {
		return ErrUnsupported
	}
	_, err := c.runner.Output(ctx, tool, "set", fmt.Sprintf("%d%%", percent(level)))
	return err
}

// FocusMode terminates distracting processes and names the ones it found.
func (c *Controller) FocusMode(ctx context.Context) ([]string, error) {
	tool, ok := c.first("pkill")
	if !ok {
		return nil, ErrUnsupported
	}
	var killed []string
	for _, name := range c.distractions {
		// pkill exits 1 when nothing matched.
		if _, err := c.runner.Output(ctx, tool, "-i", "-x", name); err == nil {
			killed = append(killed, name)
		}
	}
	return killed, nil
}

// ReadClipboard returns the clipboard text.
func (c *Controller) ReadClipboard(ctx context.Context) (string, error) {
	tool, ok := c.first("wl-paste", "xclip", "pbpaste")
	if !ok {
		return "", ErrUnsupported
	}
	var args []string
	switch tool {
	case "wl-paste":
		args = []string{"--no-newline"}
	case "xclip":
		args = []string{"-selection", "clipboard", "-o"}
	}
	out, err := c.runner.Output(ctx, tool, args...)
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return string(out), nil
}

// ActiveWindowTitle names the focused window, or "Unknown".
func (c *Controller) ActiveWindowTitle(ctx context.Context) string {
	tool, ok := c.first("xdotool")
	if !ok {
		return "Unknown"
	}
	out, err := c.runner.Output(ctx, tool, "getactivewindow", "getwindowname")
	if err != nil {
		c.logger.Debug().Err(err).Msg("window detection failed")
		return "Unknown"
	}
	if title := strings.TrimSpace(string(out)); title != "" {
		return title
	}
	return "Unknown"
}
