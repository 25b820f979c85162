package hardware

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/scrypster/animus/pkg/types"
)

// StringParam reads a string parameter, or "".
func StringParam(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// IntParam reads a numeric parameter that may arrive as a JSON number or a
// numeric string, or def.
func IntParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "%")); err == nil {
			return n
		}
	}
	return def
}

// StatusLine renders telemetry for humans.
func StatusLine(t types.Telemetry) string {
	line := fmt.Sprintf("CPU %.0f%% | RAM %.0f%% | Battery %.0f%%", t.CPU, t.RAM, t.BatteryPercent)
	if !t.IsPluggedIn {
		line += " (on battery)"
	}
	return line
}

// SystemStats samples telemetry, falling back to nominal values.
func (c *Controller) SystemStats(ctx context.Context) types.Telemetry {
	t, err := c.sampler.Sample(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("telemetry sample failed")
		return types.NominalTelemetry()
	}
	return t
}

// Execute runs one host tool and returns a short factual summary. Tools the
// agent handles itself (memorize, shutdown_pc, none) are unsupported here.
func (c *Controller) Execute(ctx context.Context, tool types.Tool, params map[string]any) (string, error) {
	switch tool {
	case types.ToolOpenApp:
		name := StringParam(params, "name")
		if err := c.OpenApp(ctx, name); err != nil {
			return "", err
		}
		return "launched " + name, nil

	case types.ToolWebSearch:
		u, err := c.WebSearch(ctx, StringParam(params, "query"), StringParam(params, "site_name"))
		if err != nil {
			return u, err
		}
		return "opened " + u, nil

	case types.ToolSetVolume:
		level := percent(IntParam(params, "value", 50))
		if err := c.SetVolume(ctx, level); err != nil {
			return "", err
		}
		return fmt.Sprintf("volume set to %d%%", level), nil

	case types.ToolSetBrightness:
		level := percent(IntParam(params, "value", 50))
		if err := c.SetBrightness(ctx, level); err != nil {
			return "", err
		}
		return fmt.Sprintf("brightness set to %d%%", level), nil

	case types.ToolOrganizeFiles:
		n, err := c.OrganizeFiles(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("organized %d files", n), nil

	case types.ToolFocusMode:
		killed, err := c.FocusMode(ctx)
		if err != nil {
			return "", err
		}
		if len(killed) == 0 {
			return "no distractions found", nil
		}
		return "terminated " + strings.Join(killed, ", "), nil

	case types.ToolReadClipboard:
		return c.ReadClipboard(ctx)

	case types.ToolCheckStatus:
		return StatusLine(c.SystemStats(ctx)), nil
	}
	return "", fmt.Errorf("%w: tool %q", ErrUnsupported, tool)
}
