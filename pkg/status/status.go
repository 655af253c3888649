// Package status maps utilization and violations to the tri-state
// result status that drives presentation color coding.
package status

// Status is the classification of a conduit or segment result.
type Status uint8

const (
	Ok Status = iota
	Warn
	Error
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "ok"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Input is everything the classifier looks at. Utilization and the
// warn threshold are unrounded percentages; the threshold comes from
// the active preset, not from code.
type Input struct {
	Utilization float64
	WarnAtPct   float64
	// Blocking is set when the result carries a separation violation,
	// a fill violation, a layer violation, or an infeasible sizing.
	Blocking bool
}

// Classify is a pure function of the input: Blocking yields Error;
// utilization at or above the warn threshold (while still within
// limits) yields Warn; everything else is Ok. Comparisons use
// unrounded values so a utilization of 80.004% against an 80%
// threshold is Warn even though it displays as 80.00%.
func Classify(in Input) Status {
	if in.Blocking {
		return Error
	}
	if in.WarnAtPct > 0 && in.Utilization >= in.WarnAtPct {
		return Warn
	}
	return Ok
}

// Worst returns the more severe of two statuses.
func Worst(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}
