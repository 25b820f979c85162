package hardware

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/scrypster/animus/pkg/types"
)

// Sampler reads host telemetry.
type Sampler interface {
	Sample(ctx context.Context) (types.Telemetry, error)
}

// NewSampler returns the /proc sampler on Linux and NominalSampler elsewhere.
func NewSampler() Sampler {
	if runtime.GOOS == "linux" {
		return NewProcSampler("/")
	}
	return NominalSampler{}
}

// NominalSampler always reports an idle machine on mains power.
type NominalSampler struct{}

// Sample returns types.NominalTelemetry.
func (NominalSampler) Sample(context.Context) (types.Telemetry, error) {
	return types.NominalTelemetry(), nil
}

// ProcSampler reads /proc/stat, /proc/meminfo and /sys/class/power_supply
// below root. CPU load is the busy share between consecutive samples, so
// the first sample reports 0.
type ProcSampler struct {
	root string

	mu        sync.Mutex
	prevTotal uint64
	prevIdle  uint64
}

// NewProcSampler creates a sampler rooted at root ("/" on a real host).
func NewProcSampler(root string) *ProcSampler {
	return &ProcSampler{root: root}
}

// Sample reads one telemetry point. Missing battery information reads as
// a full battery on mains.
func (s *ProcSampler) Sample(context.Context) (types.Telemetry, error) {
	out := types.NominalTelemetry()

	ram, err := s.memoryPercent()
	if err != nil {
		return out, err
	}
	out.RAM = ram

	total, idle, err := s.readProcStat()
	if err != nil {
		return out, err
	}
	s.mu.Lock()
	if s.prevTotal > 0 && total > s.prevTotal {
		dt := total - s.prevTotal
		di := idle - s.prevIdle
		out.CPU = max(0, min(100, (1-float64(di)/float64(dt))*100))
	}
	s.prevTotal, s.prevIdle = total, idle
	s.mu.Unlock()

	out.BatteryPercent, out.IsPluggedIn = s.battery()
	return out, nil
}

func (s *ProcSampler) memoryPercent() (float64, error) {
	f, err := os.Open(filepath.Join(s.root, "proc", "meminfo"))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var totalKB, availKB uint64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			totalKB = parseKB(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			availKB = parseKB(line)
		}
	}
	if totalKB == 0 {
		return 0, errors.New("meminfo: no MemTotal")
	}
	return float64(totalKB-min(availKB, totalKB)) / float64(totalKB) * 100, nil
}

func parseKB(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, _ := strconv.ParseUint(fields[1], 10, 64)
	return v
}

func (s *ProcSampler) readProcStat() (total, idle uint64, err error) {
	f, err := os.Open(filepath.Join(s.root, "proc", "stat"))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, 0, errors.New("empty /proc/stat")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) == 0 || fields[0] != "cpu" {
		return 0, 0, errors.New("no aggregate cpu line")
	}
	for i, field := range fields[1:] {
		v, _ := strconv.ParseUint(field, 10, 64)
		total += v
		// idle and iowait
		if i == 3 || i == 4 {
			idle += v
		}
	}
	return total, idle, nil
}

func (s *ProcSampler) battery() (float64, bool) {
	supplies, err := os.ReadDir(filepath.Join(s.root, "sys", "class", "power_supply"))
	if err != nil {
		return 100, true
	}

	percent, found, mains := 100.0, false, false
	discharging := false
	for _, e := range supplies {
		dir := filepath.Join(s.root, "sys", "class", "power_supply", e.Name())
		switch readTrimmed(filepath.Join(dir, "type")) {
		case "Battery":
			v, err := strconv.ParseFloat(readTrimmed(filepath.Join(dir, "capacity")), 64)
			if err != nil || found {
				continue
			}
			percent, found = v, true
			discharging = readTrimmed(filepath.Join(dir, "status")) == "Discharging"
		case "Mains":
			if readTrimmed(filepath.Join(dir, "online")) == "1" {
				mains = true
			}
		}
	}
	if !found {
		return 100, true
	}
	return percent, mains || !discharging
}

func readTrimmed(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
