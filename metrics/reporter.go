package metrics

import (
	"sync"
	"time"
)

// Reporter is the sink behind the package-level recording functions.
// Implementations must be safe for concurrent use.
type Reporter interface {
	IncrCounter(group, name string, value Value, dim Dimension)
	UpdateGauge(group, name string, value Value, dim Dimension)
	RecordStopwatch(group, name string, elapsed time.Duration, dim Dimension)
}

var (
	reporterMu sync.RWMutex
	reporter   Reporter
)

// SetReporter installs the reporter used by the package-level functions.
// Passing nil disables metric recording.
func SetReporter(r Reporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	reporter = r
}

// GetReporter returns the currently installed reporter, or nil.
func GetReporter() Reporter {
	reporterMu.RLock()
	defer reporterMu.RUnlock()
	return reporter
}

// IncrCounterWithGroup increments the counter name under group by value.
// All recording functions are no-ops until a reporter is installed, so
// transport code can emit metrics unconditionally.
func IncrCounterWithGroup(group, name string, value Value) {
	IncrCounterWithDimGroup(group, name, value, nil)
}

// IncrCounterWithDimGroup increments a counter with extra dimensions.
func IncrCounterWithDimGroup(group, name string, value Value, dim Dimension) {
	if r := GetReporter(); r != nil {
		r.IncrCounter(group, name, value, dim)
	}
}

// UpdateGaugeWithGroup sets the gauge name under group to value.
func UpdateGaugeWithGroup(group, name string, value Value) {
	UpdateGaugeWithDimGroup(group, name, value, nil)
}

// UpdateGaugeWithDimGroup sets a gauge with extra dimensions.
func UpdateGaugeWithDimGroup(group, name string, value Value, dim Dimension) {
	if r := GetReporter(); r != nil {
		r.UpdateGauge(group, name, value, dim)
	}
}

// RecordStopwatchWithGroup records the time elapsed since start.
func RecordStopwatchWithGroup(group, name string, start time.Time) {
	RecordStopwatchWithDimGroup(group, name, start, nil)
}

// RecordStopwatchWithDimGroup records elapsed time with extra dimensions.
func RecordStopwatchWithDimGroup(group, name string, start time.Time, dim Dimension) {
	if r := GetReporter(); r != nil {
		r.RecordStopwatch(group, name, time.Since(start), dim)
	}
}
