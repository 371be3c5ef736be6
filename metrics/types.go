package metrics

// Policy defines the aggregation policy for metric values.
// It determines how multiple samples of the same metric combine over time.
type Policy int

const (
	PolicyNone      Policy = iota // No specific policy specified
	PolicySet                     // Instantaneous value - last value wins
	PolicySum                     // Sum of all values
	PolicyAvg                     // Average of all values
	PolicyMax                     // Maximum value
	PolicyMin                     // Minimum value
	PolicyMid                     // Median value
	PolicyStopwatch               // Timer - measures duration
	PolicyHistogram               // Histogram statistics
)

// String returns the policy name used in reporter diagnostics.
func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicySet:
		return "set"
	case PolicySum:
		return "sum"
	case PolicyAvg:
		return "avg"
	case PolicyMax:
		return "max"
	case PolicyMin:
		return "min"
	case PolicyMid:
		return "mid"
	case PolicyStopwatch:
		return "stopwatch"
	case PolicyHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Value represents a metric sample as a float64.
type Value float64

// Dimension carries contextual labels for a metric sample,
// such as peer address, error type or transport kind.
type Dimension map[string]string
