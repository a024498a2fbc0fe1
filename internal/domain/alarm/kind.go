package alarm

import "strings"

// Kind is a single threshold breach.
type Kind uint8

// Alarm kinds.
const (
	HeartRateLow Kind = iota
	HeartRateHigh
	SpO2Low
	TemperatureHigh
	HumidityHigh
)

// kindNames keeps the stable names used in logs and the status endpoint.
var kindNames = [...]string{ //nolint:gochecknoglobals // Read-only lookup table.
	HeartRateLow:    "heart_rate_low",
	HeartRateHigh:   "heart_rate_high",
	SpO2Low:         "spo2_low",
	TemperatureHigh: "temperature_high",
	HumidityHigh:    "humidity_high",
}

// String returns the stable name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "unknown"
}

// Reasons is a set of Kinds.
type Reasons uint8

// Critical is the subset that raises and holds the alarm.
const Critical = Reasons(1<<HeartRateLow | 1<<HeartRateHigh | 1<<SpO2Low | 1<<TemperatureHigh)

// NewReasons builds a set from kinds.
func NewReasons(kinds ...Kind) Reasons {
	var r Reasons
	for _, k := range kinds {
		r = r.Add(k)
	}

	return r
}

// Add returns the set with k included.
func (r Reasons) Add(k Kind) Reasons {
	return r | 1<<k
}

// Has reports whether k is in the set.
func (r Reasons) Has(k Kind) bool {
	return r&(1<<k) != 0
}

// Critical returns only the members that latch the alarm.
func (r Reasons) Critical() Reasons {
	return r & Critical
}

// Empty reports whether no kind is set.
func (r Reasons) Empty() bool {
	return r == 0
}

// Kinds lists the members in declaration order.
func (r Reasons) Kinds() []Kind {
	var kinds []Kind

	for k := HeartRateLow; k <= HumidityHigh; k++ {
		if r.Has(k) {
			kinds = append(kinds, k)
		}
	}

	return kinds
}

// String joins the member names with commas.
func (r Reasons) String() string {
	kinds := r.Kinds()
	if len(kinds) == 0 {
		return "none"
	}

	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}

	return strings.Join(names, ",")
}
