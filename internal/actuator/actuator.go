package actuator

import (
	"fmt"
	"os"
	"strconv"
)

// Output writes one raw actuator value, GPIO-style.
type Output interface {
	Write(value int) error
}

// FileOutput writes values to a sysfs-style control file.
type FileOutput struct {
	Path string
}

func (o FileOutput) Write(value int) error {
	if err := os.WriteFile(o.Path, []byte(strconv.Itoa(value)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.Path, err)
	}
	return nil
}

// Buzzer toggles a digital output.
type Buzzer struct {
	Out Output
}

func (b *Buzzer) Set(on bool) error {
	value := 0
	if on {
		value = 1
	}
	return b.Out.Write(value)
}

// Servo positions an angular output within its travel range.
type Servo struct {
	Out      Output
	MinAngle int
	MaxAngle int
}

func NewServo(out Output) *Servo {
	return &Servo{Out: out, MinAngle: 0, MaxAngle: 180}
}

func (s *Servo) Move(angle int) error {
	if angle < s.MinAngle || angle > s.MaxAngle {
		return fmt.Errorf("angle %d outside %d..%d", angle, s.MinAngle, s.MaxAngle)
	}
	return s.Out.Write(angle)
}
