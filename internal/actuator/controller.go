package actuator

import (
	"encoding/json"
	"log/slog"

	"homewatch/internal/bus"
)

const (
	SubjectBuzzer = "cmd.buzzer"
	SubjectServo  = "cmd.servo"
)

type BuzzerCommand struct {
	On bool `json:"on"`
}

type ServoCommand struct {
	Angle int `json:"angle"`
}

// Controller applies remote commands received on the bus to the local
// actuators. A malformed or out-of-range command is rejected with a
// warn log and never touches the hardware.
type Controller struct {
	Buzzer *Buzzer
	Servo  *Servo
	Logger *slog.Logger
}

// Listen subscribes the controller to the command subjects.
func (c *Controller) Listen(sub *bus.Subscriber) error {
	if c.Buzzer != nil {
		if _, err := sub.Subscribe(SubjectBuzzer, c.HandleBuzzer); err != nil {
			return err
		}
	}
	if c.Servo != nil {
		if _, err := sub.Subscribe(SubjectServo, c.HandleServo); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) HandleBuzzer(data []byte) {
	var cmd BuzzerCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.Logger.Warn("bad buzzer command", slog.String("error", err.Error()))
		return
	}
	if err := c.Buzzer.Set(cmd.On); err != nil {
		c.Logger.Warn("buzzer write failed", slog.String("error", err.Error()))
		return
	}
	c.Logger.Info("buzzer set", slog.Bool("on", cmd.On))
}

func (c *Controller) HandleServo(data []byte) {
	var cmd ServoCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.Logger.Warn("bad servo command", slog.String("error", err.Error()))
		return
	}
	if err := c.Servo.Move(cmd.Angle); err != nil {
		c.Logger.Warn("servo command rejected", slog.Int("angle", cmd.Angle), slog.String("error", err.Error()))
		return
	}
	c.Logger.Info("servo moved", slog.Int("angle", cmd.Angle))
}
