package engine

// Limits bounds the engine's loops so pathological configurations
// (no end date, zero-progress payments) always terminate. The zero
// value means "use the defaults"; the trade-off is completeness vs. a
// guaranteed runtime bound, so deployments may widen them via config.
type Limits struct {
	// MaxOccurrences caps how many occurrences a single rule expansion
	// may emit. Once hit, generation stops silently.
	MaxOccurrences int

	// MaxPayoffPeriods caps credit card payoff simulation length.
	MaxPayoffPeriods int

	// StagnantPeriods is how many consecutive near-zero-principal
	// periods the declining-minimum simulation tolerates before it is
	// declared never payable.
	StagnantPeriods int
}

const (
	defaultMaxOccurrences   = 500
	defaultMaxPayoffPeriods = 600 // 50 years of monthly payments
	defaultStagnantPeriods  = 12
)

// DefaultLimits returns the standard safety caps.
func DefaultLimits() Limits {
	return Limits{
		MaxOccurrences:   defaultMaxOccurrences,
		MaxPayoffPeriods: defaultMaxPayoffPeriods,
		StagnantPeriods:  defaultStagnantPeriods,
	}
}

func (l Limits) withDefaults() Limits {
	if l.MaxOccurrences <= 0 {
		l.MaxOccurrences = defaultMaxOccurrences
	}
	if l.MaxPayoffPeriods <= 0 {
		l.MaxPayoffPeriods = defaultMaxPayoffPeriods
	}
	if l.StagnantPeriods <= 0 {
		l.StagnantPeriods = defaultStagnantPeriods
	}
	return l
}
