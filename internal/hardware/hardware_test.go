package hardware

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/pkg/types"
)

// fakeRunner pretends a fixed set of binaries is installed.
type fakeRunner struct {
	installed map[string]bool
	outputs   map[string]string
	failing   map[string]bool
	calls     []string
}

func newFakeRunner(bins ...string) *fakeRunner {
	r := &fakeRunner{installed: map[string]bool{}, outputs: map[string]string{}, failing: map[string]bool{}}
	for _, b := range bins {
		r.installed[b] = true
	}
	return r
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	if r.installed[name] {
		return name, nil
	}
	return "", errors.New("not found")
}

func (r *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	call := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.calls = append(r.calls, call)
	if r.failing[call] {
		return nil, errors.New("exit status 1")
	}
	return []byte(r.outputs[name]), nil
}

func (r *fakeRunner) Start(name string, args ...string) error {
	r.calls = append(r.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return nil
}

func newTestController(r *fakeRunner, dir string) *Controller {
	return NewController(Options{Runner: r, Sampler: NominalSampler{}, OrganizeDir: dir}, zerolog.Nop())
}

func TestOpenApp(t *testing.T) {
	r := newFakeRunner("firefox", "visual-studio-code")
	c := newTestController(r, "")
	ctx := context.Background()

	require.NoError(t, c.OpenApp(ctx, "Firefox"))
	require.NoError(t, c.OpenApp(ctx, "Visual Studio Code"))
	assert.Equal(t, []string{"firefox", "visual-studio-code"}, r.calls)

	assert.ErrorIs(t, c.OpenApp(ctx, "photoshop"), ErrAppNotFound)
	assert.ErrorIs(t, c.OpenApp(ctx, "  "), ErrAppNotFound)
}

func TestWebSearch(t *testing.T) {
	assert.Equal(t, "https://www.google.com/search?q=site%3Areddit.com+go+generics", SearchURL(" go generics ", "Reddit.com"))

	c := newTestController(newFakeRunner(), "")
	u, err := c.WebSearch(context.Background(), "tides", "")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, u, "q=tides")

	r := newFakeRunner("xdg-open")
	c = newTestController(r, "")
	_, err = c.WebSearch(context.Background(), "tides", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"xdg-open https://www.google.com/search?q=tides"}, r.calls)
}

func TestVolumeAndBrightness(t *testing.T) {
	ctx := context.Background()

	r := newFakeRunner("pactl", "brightnessctl")
	c := newTestController(r, "")
	require.NoError(t, c.SetVolume(ctx, 140))
	require.NoError(t, c.SetBrightness(ctx, -3))
	assert.Equal(t, []string{
		"pactl set-sink-volume @DEFAULT_SINK@ 100%",
		"brightnessctl set 0%",
	}, r.calls)

	bare := newTestController(newFakeRunner(), "")
	assert.ErrorIs(t, bare.SetVolume(ctx, 10), ErrUnsupported)
	assert.ErrorIs(t, bare.SetBrightness(ctx, 10), ErrUnsupported)
	_, err := bare.ReadClipboard(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = bare.FocusMode(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, "Unknown", bare.ActiveWindowTitle(ctx))
}

func TestFocusModeReportsKilled(t *testing.T) {
	r := newFakeRunner("pkill")
	r.failing["pkill -i -x steam"] = true
	r.failing["pkill -i -x spotify"] = true
	r.failing["pkill -i -x battle.net"] = true
	c := newTestController(r, "")

	killed, err := c.FocusMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"discord"}, killed)
}

func TestClipboardAndWindow(t *testing.T) {
	r := newFakeRunner("xclip", "xdotool")
	r.outputs["xclip"] = "copied text"
	r.outputs["xdotool"] = "main.go - Code\n"
	c := newTestController(r, "")
	ctx := context.Background()

	got, err := c.ReadClipboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "copied text", got)
	assert.Equal(t, "main.go - Code", c.ActiveWindowTitle(ctx))
}

func TestOrganizeDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cat.PNG", "report.pdf", "song.mp3", "notes", "setup.deb"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Documents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Documents", "report.pdf"), []byte("old"), 0o644))

	c := newTestController(newFakeRunner(), dir)
	summary, err := c.Execute(context.Background(), types.ToolOrganizeFiles, nil)
	require.NoError(t, err)
	assert.Equal(t, "organized 3 files", summary)

	assert.FileExists(t, filepath.Join(dir, "Images", "cat.PNG"))
	assert.FileExists(t, filepath.Join(dir, "Audio", "song.mp3"))
	assert.FileExists(t, filepath.Join(dir, "Installers", "setup.deb"))
	assert.FileExists(t, filepath.Join(dir, "notes"))
	// An existing target is never overwritten.
	assert.FileExists(t, filepath.Join(dir, "report.pdf"))

	_, err = OrganizeDir(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestExecuteDispatch(t *testing.T) {
	r := newFakeRunner("pactl")
	c := newTestController(r, "")
	ctx := context.Background()

	out, err := c.Execute(ctx, types.ToolSetVolume, map[string]any{"value": float64(30)})
	require.NoError(t, err)
	assert.Equal(t, "volume set to 30%", out)

	out, err = c.Execute(ctx, types.ToolSetVolume, map[string]any{"value": "45%"})
	require.NoError(t, err)
	assert.Equal(t, "volume set to 45%", out)

	out, err = c.Execute(ctx, types.ToolCheckStatus, nil)
	require.NoError(t, err)
	assert.Equal(t, "CPU 0% | RAM 0% | Battery 100%", out)

	_, err = c.Execute(ctx, types.ToolMemorize, map[string]any{"text": "x"})
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = c.Execute(ctx, types.ToolOpenApp, map[string]any{"name": "nothing"})
	assert.ErrorIs(t, err, ErrAppNotFound)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProcSampler(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "proc", "meminfo"), "MemTotal: 1000 kB\nMemFree: 100 kB\nMemAvailable: 250 kB\n")
	writeFile(t, filepath.Join(root, "proc", "stat"), "cpu  100 0 100 700 100 0 0 0 0 0\ncpu0 1 1 1 1\n")
	bat := filepath.Join(root, "sys", "class", "power_supply", "BAT0")
	writeFile(t, filepath.Join(bat, "type"), "Battery\n")
	writeFile(t, filepath.Join(bat, "capacity"), "12\n")
	writeFile(t, filepath.Join(bat, "status"), "Discharging\n")

	s := NewProcSampler(root)
	ctx := context.Background()

	first, err := s.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.CPU)
	assert.InDelta(t, 75, first.RAM, 1e-9)
	assert.Equal(t, 12.0, first.BatteryPercent)
	assert.False(t, first.IsPluggedIn)

	// +200 busy, +200 idle/iowait => 50% load.
	writeFile(t, filepath.Join(root, "proc", "stat"), "cpu  200 0 200 850 150 0 0 0 0 0\n")
	ac := filepath.Join(root, "sys", "class", "power_supply", "AC")
	writeFile(t, filepath.Join(ac, "type"), "Mains\n")
	writeFile(t, filepath.Join(ac, "online"), "1\n")

	second, err := s.Sample(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50, second.CPU, 1e-9)
	assert.True(t, second.IsPluggedIn)
}

func TestProcSamplerWithoutBattery(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "proc", "meminfo"), "MemTotal: 2000 kB\nMemAvailable: 2000 kB\n")
	writeFile(t, filepath.Join(root, "proc", "stat"), "cpu  1 1 1 1\n")

	got, err := NewProcSampler(root).Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.BatteryPercent)
	assert.True(t, got.IsPluggedIn)
	assert.Equal(t, 0.0, got.RAM)

	_, err = NewProcSampler(t.TempDir()).Sample(context.Background())
	assert.Error(t, err)
}
