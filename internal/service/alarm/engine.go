package alarm

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/oshokin/ward-monitor/internal/domain/alarm"
	"github.com/oshokin/ward-monitor/internal/domain/vitals"
	"github.com/oshokin/ward-monitor/internal/domain/ward"
	"github.com/oshokin/ward-monitor/internal/logger"
)

// Buzzer is the part of the actuator controller the engine drives.
type Buzzer interface {
	StartBuzzer(ctx context.Context)
	StopBuzzer(ctx context.Context)
}

// Notifier delivers alert text to the care team.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Observer is told about every transition.
type Observer interface {
	AlarmChanged(ctx context.Context, state domain.State)
}

// Engine applies the thresholds to readings and drives the alarm side effects.
type Engine struct {
	thresholds domain.Thresholds
	buzzer     Buzzer
	notifier   Notifier
	observers  []Observer
	room       string
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver subscribes o to transitions.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithRoom sets the room label used in alerts.
func WithRoom(room string) Option {
	return func(e *Engine) {
		e.room = room
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine.
func NewEngine(thresholds domain.Thresholds, buzzer Buzzer, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		thresholds: thresholds,
		buzzer:     buzzer,
		notifier:   notifier,
		room:       "Habitación Paciente",
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate checks reading, updates state and performs the side effects of a
// transition. Only a raise sends an alert, so a sustained breach produces a
// single message.
func (e *Engine) Evaluate(ctx context.Context, reading vitals.Reading, state *domain.State) domain.Transition {
	now := e.now()
	reasons := e.thresholds.Check(reading)
	transition := state.Apply(reasons, now)

	switch transition {
	case domain.Raised:
		logger.WarnKV(ctx, "Medical alarm raised", "reasons", reasons.String(), "reading", reading.String())
		e.buzzer.StartBuzzer(ctx)

		if err := e.notifier.Notify(ctx, e.alertText(reading, reasons, now)); err != nil {
			logger.ErrorKV(ctx, "Alert delivery failed", "error", err)
		}
	case domain.Cleared:
		logger.InfoKV(ctx, "Medical alarm cleared", "reading", reading.String())
		e.buzzer.StopBuzzer(ctx)
	case domain.Unchanged:
		return transition
	}

	for _, o := range e.observers {
		o.AlarmChanged(ctx, *state)
	}

	return transition
}

// alertText lists every critical breach with its value.
func (e *Engine) alertText(r vitals.Reading, reasons domain.Reasons, now time.Time) string {
	var b strings.Builder

	b.WriteString("🚨 <b>ALERTA MÉDICA</b>\n\n<b>Datos críticos detectados:</b>\n\n")

	if reasons.Has(domain.HeartRateLow) {
		fmt.Fprintf(&b, "• ❤️ FC BAJA: %d bpm\n", r.HeartRateBPM)
	}

	if reasons.Has(domain.HeartRateHigh) {
		fmt.Fprintf(&b, "• ❤️ FC ALTA: %d bpm\n", r.HeartRateBPM)
	}

	if reasons.Has(domain.SpO2Low) {
		fmt.Fprintf(&b, "• 💨 SpO2 BAJO: %d%%\n", r.SpO2Pct)
	}

	if reasons.Has(domain.TemperatureHigh) {
		fmt.Fprintf(&b, "• 🌡️ TEMP ALTA: %.1f°C\n", r.TemperatureC)
	}

	fmt.Fprintf(&b, "\n📍 %s\n⏰ %s", e.room, now.Format(ward.TimeLayout))

	return b.String()
}
