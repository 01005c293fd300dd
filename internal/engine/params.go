package engine

// Tuning defaults. All of these are externally configurable; nothing in the
// engine derives its own thresholds.
const (
	defaultTargetCPM            = 175.0
	defaultEMAAlpha             = 0.1
	defaultAnomalyThreshold     = 1.5
	defaultStreakRequired       = 3
	defaultMinSamplesForFocus   = 20
	defaultSpeedBaselineSamples = 10
	defaultHesitationFloorMs    = 800.0
	defaultHesitationFactor     = 2.5
	defaultMaxTrigramEntries    = 5000
	defaultExpectedErrorFloor   = 0.01
	defaultAnomalySignalCap     = 3.0
	defaultPruneRecencyWeight   = 0.3
	defaultPruneSignalWeight    = 0.5
	defaultPruneDataWeight      = 0.2
	defaultNeutralErrorRate     = 0.5
	defaultUnseededFilteredTime = 1000.0
)

// Params holds every tuning constant the engine consumes.
type Params struct {
	// TargetCPM drives the per-symbol target time (60000 / TargetCPM ms).
	TargetCPM float64
	// EMAAlpha is the smoothing factor for all timing and error-rate EMAs.
	EMAAlpha float64
	// AnomalyThreshold is the ratio above which an evaluation qualifies as
	// anomalous on either axis.
	AnomalyThreshold float64
	// StreakRequired is the number of consecutive qualifying evaluations
	// before an anomaly is confirmed.
	StreakRequired uint8
	// MinSamplesForFocus is the minimum pair sample count for confirmation.
	MinSamplesForFocus int
	// SpeedBaselineSamples is the minimum sample count a constituent symbol
	// needs before the speed-anomaly baseline is considered defined.
	SpeedBaselineSamples int
	// HesitationFloorMs and HesitationFactor shape the adaptive hesitation
	// threshold: max(floor, factor * user median transition time).
	HesitationFloorMs float64
	HesitationFactor  float64
	// MaxTrigramEntries caps the 3-symbol pair table before pruning.
	MaxTrigramEntries int
}

// DefaultParams returns the stock tuning values.
func DefaultParams() Params {
	return Params{
		TargetCPM:            defaultTargetCPM,
		EMAAlpha:             defaultEMAAlpha,
		AnomalyThreshold:     defaultAnomalyThreshold,
		StreakRequired:       defaultStreakRequired,
		MinSamplesForFocus:   defaultMinSamplesForFocus,
		SpeedBaselineSamples: defaultSpeedBaselineSamples,
		HesitationFloorMs:    defaultHesitationFloorMs,
		HesitationFactor:     defaultHesitationFactor,
		MaxTrigramEntries:    defaultMaxTrigramEntries,
	}
}

// targetTimeMs is the per-symbol time budget implied by the target speed.
func (p Params) targetTimeMs() float64 {
	if p.TargetCPM <= 0 {
		return 60000.0 / defaultTargetCPM
	}
	return 60000.0 / p.TargetCPM
}
