package routing

import (
	"fmt"
	"strings"

	"github.com/your-org/sciflow/internal/calibration"
)

// Environment selects the bucket naming scheme. It never changes routing
// topology, only the name prefix.
type Environment string

const (
	Development Environment = "DEVELOPMENT"
	Production  Environment = "PRODUCTION"
)

// EnvironmentFromString normalizes a configured environment name,
// defaulting to Development when unset.
func EnvironmentFromString(name string) Environment {
	if strings.EqualFold(name, string(Production)) {
		return Production
	}
	return Development
}

// UnknownInstrumentError reports an instrument with no registered mapping.
// This always propagates: routing a file to a guessed bucket would be a
// data-integrity incident, not a recoverable condition.
type UnknownInstrumentError struct {
	Instrument string
}

func (e *UnknownInstrumentError) Error() string {
	return fmt.Sprintf("no mapping registered for instrument %q", e.Instrument)
}

// Router maps instrument identifiers to destination buckets and
// calibration capabilities. The registry is populated once at startup.
type Router struct {
	mission     string
	calibrators map[string]calibration.Calibrator
}

// New builds a Router for one mission. Bucket names follow the
// {mission}-{instrument} convention shared with the upstream archive.
func New(mission string, calibrators map[string]calibration.Calibrator) *Router {
	normalized := make(map[string]calibration.Calibrator, len(calibrators))
	for instrument, c := range calibrators {
		normalized[strings.ToLower(instrument)] = c
	}
	return &Router{mission: strings.ToLower(mission), calibrators: normalized}
}

// ResolveBucket returns the destination bucket for an instrument.
// Non-production environments share the production layout under a
// "dev-" prefix.
func (r *Router) ResolveBucket(instrument string, env Environment) (string, error) {
	instrument = strings.ToLower(instrument)
	if _, ok := r.calibrators[instrument]; !ok {
		return "", &UnknownInstrumentError{Instrument: instrument}
	}

	bucket := fmt.Sprintf("%s-%s", r.mission, instrument)
	if env != Production {
		bucket = "dev-" + bucket
	}
	return bucket, nil
}

// ResolveCalibration returns the calibration capability registered for an
// instrument.
func (r *Router) ResolveCalibration(instrument string) (calibration.Calibrator, error) {
	c, ok := r.calibrators[strings.ToLower(instrument)]
	if !ok {
		return nil, &UnknownInstrumentError{Instrument: instrument}
	}
	return c, nil
}

// Instruments lists the registered instrument identifiers.
func (r *Router) Instruments() []string {
	names := make([]string, 0, len(r.calibrators))
	for name := range r.calibrators {
		names = append(names, name)
	}
	return names
}
