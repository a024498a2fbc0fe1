package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ward-monitor/internal/domain/vitals"
)

// nominal is a reading that breaches nothing.
func nominal() vitals.Reading {
	return vitals.Reading{
		TemperatureC: 25,
		HumidityPct:  50,
		HeartRateBPM: 72,
		SpO2Pct:      98,
	}
}

// TestThresholds_Check covers each predicate and its exclusive boundary.
func TestThresholds_Check(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	cases := []struct {
		name   string
		mutate func(r *vitals.Reading)
		want   Reasons
	}{
		{"nominal", func(*vitals.Reading) {}, 0},
		{"bradycardia", func(r *vitals.Reading) { r.HeartRateBPM = 45 }, NewReasons(HeartRateLow)},
		{"low boundary", func(r *vitals.Reading) { r.HeartRateBPM = 50 }, 0},
		{"tachycardia", func(r *vitals.Reading) { r.HeartRateBPM = 121 }, NewReasons(HeartRateHigh)},
		{"high boundary", func(r *vitals.Reading) { r.HeartRateBPM = 120 }, 0},
		{"hypoxemia", func(r *vitals.Reading) { r.SpO2Pct = 89 }, NewReasons(SpO2Low)},
		{"spo2 boundary", func(r *vitals.Reading) { r.SpO2Pct = 90 }, 0},
		{"hot room", func(r *vitals.Reading) { r.TemperatureC = 30.5 }, NewReasons(TemperatureHigh)},
		{"humid room", func(r *vitals.Reading) { r.HumidityPct = 71 }, NewReasons(HumidityHigh)},
		{"several", func(r *vitals.Reading) {
			r.HeartRateBPM = 130
			r.SpO2Pct = 85
			r.HumidityPct = 80
		}, NewReasons(HeartRateHigh, SpO2Low, HumidityHigh)},
	}

	for _, tc := range cases {
		r := nominal()
		tc.mutate(&r)
		require.Equal(t, tc.want, th.Check(r), tc.name)
	}
}

// TestState_Apply_Hysteresis verifies the latch rises on any critical reason
// and clears only once all of them are gone.
func TestState_Apply_Hysteresis(t *testing.T) {
	t.Parallel()

	var (
		s   State
		now = time.Unix(1000, 0)
	)

	require.Equal(t, Raised, s.Apply(NewReasons(HeartRateLow, SpO2Low), now))
	require.True(t, s.Active)
	require.Equal(t, now, s.Since)

	// One reason clears, the other holds the alarm.
	require.Equal(t, Unchanged, s.Apply(NewReasons(SpO2Low), now.Add(time.Second)))
	require.True(t, s.Active)
	require.Equal(t, now, s.Since)
	require.Equal(t, NewReasons(SpO2Low), s.Reasons)

	require.Equal(t, Cleared, s.Apply(0, now.Add(2*time.Second)))
	require.False(t, s.Active)

	require.Equal(t, Unchanged, s.Apply(0, now.Add(3*time.Second)))
}

// TestState_Apply_HumidityNeverLatches ensures humidity alone neither raises nor holds.
func TestState_Apply_HumidityNeverLatches(t *testing.T) {
	t.Parallel()

	var s State

	require.Equal(t, Unchanged, s.Apply(NewReasons(HumidityHigh), time.Now()))
	require.False(t, s.Active)
	require.True(t, s.Reasons.Has(HumidityHigh))

	require.Equal(t, Raised, s.Apply(NewReasons(TemperatureHigh, HumidityHigh), time.Now()))
	require.Equal(t, Cleared, s.Apply(NewReasons(HumidityHigh), time.Now()))
}

// TestReasons covers set helpers and naming.
func TestReasons(t *testing.T) {
	t.Parallel()

	r := NewReasons(SpO2Low, HeartRateLow, HumidityHigh)

	require.Equal(t, []Kind{HeartRateLow, SpO2Low, HumidityHigh}, r.Kinds())
	require.Equal(t, "heart_rate_low,spo2_low,humidity_high", r.String())
	require.Equal(t, NewReasons(HeartRateLow, SpO2Low), r.Critical())
	require.True(t, Reasons(0).Empty())
	require.Equal(t, "none", Reasons(0).String())
	require.Equal(t, "unknown", Kind(42).String())
}

// TestStateClone verifies Clone copies and handles nil.
func TestStateClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*State)(nil).Clone())

	s := &State{Active: true, Reasons: NewReasons(SpO2Low), Since: time.Unix(5, 0)}
	c := s.Clone()

	require.Equal(t, s, c)
	require.NotSame(t, s, c)
}
