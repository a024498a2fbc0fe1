package ward

import (
	"time"

	"github.com/oshokin/ward-monitor/internal/domain/alarm"
	"github.com/oshokin/ward-monitor/internal/domain/room"
	"github.com/oshokin/ward-monitor/internal/domain/vitals"
)

// TimeLayout is how timestamps appear in chat messages.
const TimeLayout = "02/01/2006 15:04:05"

// Ward is the mutable state of one room.
type Ward struct {
	// Reading is the latest sample, replaced wholesale.
	Reading vitals.Reading
	// Simulated marks Reading as filler after a sensor failure.
	Simulated bool
	// SampledAt is when Reading was taken; zero before the first sample.
	SampledAt time.Time
	// Alarm is the latched medical alarm.
	Alarm alarm.State
	// Room is the actuator state.
	Room room.State
	// Offset is the highest chat update id processed. It never decreases.
	Offset int64
}

// Snapshot is a consistent copy of the ward taken between scheduler tasks.
type Snapshot struct {
	Reading   vitals.Reading
	Simulated bool
	SampledAt time.Time
	Alarm     alarm.State
	Room      room.State
	TakenAt   time.Time
}

// Snapshot copies the ward.
func (w *Ward) Snapshot(now time.Time) Snapshot {
	return Snapshot{
		Reading:   w.Reading,
		Simulated: w.Simulated,
		SampledAt: w.SampledAt,
		Alarm:     w.Alarm,
		Room:      w.Room,
		TakenAt:   now,
	}
}
