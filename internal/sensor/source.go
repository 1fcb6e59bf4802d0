package sensor

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Source reads one raw value from a physical or simulated channel.
type Source interface {
	Read(ctx context.Context) (float64, error)
}

// FileSource reads a numeric value from a sysfs-style file, the way
// ADC and GPIO values are exposed on Linux boards. Scale converts the
// raw value into the channel unit (e.g. millidegrees to degrees).
type FileSource struct {
	Path  string
	Scale float64
}

func (s FileSource) Read(ctx context.Context) (float64, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.Path, err)
	}
	raw, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	return raw * scale, nil
}

// ExecSource runs an external probe command and parses the first
// numeric token of its output.
type ExecSource struct {
	Command string
	Args    []string
}

func (s ExecSource) Read(ctx context.Context) (float64, error) {
	out, err := exec.CommandContext(ctx, s.Command, s.Args...).Output()
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", s.Command, err)
	}
	for _, field := range strings.Fields(string(out)) {
		if val, err := strconv.ParseFloat(field, 64); err == nil {
			return val, nil
		}
	}
	return 0, fmt.Errorf("probe %s: no numeric output", s.Command)
}

// SimSource produces a deterministic sine waveform around Base. Used
// for bench runs without hardware attached.
type SimSource struct {
	Base      float64
	Amplitude float64
	Period    time.Duration
	start     time.Time
}

func NewSimSource(base, amplitude float64, period time.Duration) *SimSource {
	if period <= 0 {
		period = time.Minute
	}
	return &SimSource{Base: base, Amplitude: amplitude, Period: period, start: time.Now()}
}

func (s *SimSource) Read(ctx context.Context) (float64, error) {
	elapsed := time.Since(s.start).Seconds()
	phase := 2 * math.Pi * elapsed / s.Period.Seconds()
	return s.Base + s.Amplitude*math.Sin(phase), nil
}
