package telemetry

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/oshokin/ward-monitor/internal/domain/ward"
)

// Sink accepts one snapshot per telemetry interval.
type Sink interface {
	Push(ctx context.Context, snapshot ward.Snapshot) error
}

// Field is one dashboard channel field.
type Field struct {
	Name  string
	Value string
}

// Fields maps a snapshot onto field1..field8.
func Fields(s ward.Snapshot) []Field {
	return []Field{
		{Name: "field1", Value: strconv.FormatFloat(s.Reading.TemperatureC, 'f', 1, 64)},
		{Name: "field2", Value: strconv.FormatFloat(s.Reading.HumidityPct, 'f', 1, 64)},
		{Name: "field3", Value: strconv.Itoa(s.Reading.HeartRateBPM)},
		{Name: "field4", Value: strconv.Itoa(s.Reading.SpO2Pct)},
		{Name: "field5", Value: flag(s.Room.CurtainOpen)},
		{Name: "field6", Value: flag(s.Room.DoorOpen)},
		{Name: "field7", Value: flag(s.Room.LampOn)},
		{Name: "field8", Value: flag(s.Alarm.Active)},
	}
}

// encodeFields renders fields as a form body in field order.
func encodeFields(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, url.QueryEscape(f.Name)+"="+url.QueryEscape(f.Value))
	}

	return strings.Join(parts, "&")
}

func flag(v bool) string {
	if v {
		return "1"
	}

	return "0"
}

// Discard drops every snapshot. It is used when telemetry is disabled.
type Discard struct{}

// Push implements Sink.
func (Discard) Push(context.Context, ward.Snapshot) error { return nil }
