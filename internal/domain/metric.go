// internal/domain/metric.go
package domain

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"
)

// Metric is a numeric value that may be unavailable, for example a market cap
// that could not be resolved. Unavailable metrics fail every filter clause.
type Metric struct {
	Value float64
	OK    bool
}

// Available wraps a computed value.
func Available(v float64) Metric {
	return Metric{Value: v, OK: true}
}

// Unavailable returns the gap value.
func Unavailable() Metric {
	return Metric{}
}

// Or returns the value, or def when unavailable.
func (m Metric) Or(def float64) float64 {
	if !m.OK {
		return def
	}
	return m.Value
}

// Format renders the metric with prec decimals, "N/A" when unavailable.
func (m Metric) Format(prec int) string {
	if !m.OK {
		return "N/A"
	}
	return strconv.FormatFloat(m.Value, 'f', prec, 64)
}

// MarshalJSON encodes an unavailable metric as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.OK {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Unavailable()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Available(v)
	return nil
}

// Median returns sorted[len/2] of a copy of values.
func Median(values []float64) Metric {
	if len(values) == 0 {
		return Unavailable()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Available(sorted[len(sorted)/2])
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) Metric {
	if len(values) == 0 {
		return Unavailable()
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return Available(math.Sqrt(sq / float64(len(values))))
}

// MedianTime returns sorted[len/2] of a copy of times.
func MedianTime(times []time.Time) (time.Time, bool) {
	if len(times) == 0 {
		return time.Time{}, false
	}
	sorted := make([]time.Time, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return sorted[len(sorted)/2], true
}
