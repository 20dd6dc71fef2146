package kalman

// Params is the scalar tuning of a filter with identity transition, as it
// appears in configuration files. Zero fields fall back to the defaults.
type Params struct {
	ObservationNoise  float64 `json:"observation_noise" yaml:"observation_noise"`
	ProcessNoise      float64 `json:"process_noise" yaml:"process_noise"`
	InitialCovariance float64 `json:"initial_covariance" yaml:"initial_covariance"`
}

// DefaultParams returns R=1, Q=1e-3·I, P0=1e-2·I.
func DefaultParams() Params {
	return Params{
		ObservationNoise:  DefaultObservationNoise,
		ProcessNoise:      DefaultProcessNoise,
		InitialCovariance: DefaultInitialCovariance,
	}
}

// Options converts p into constructor options.
func (p Params) Options() []Option {
	var opts []Option
	if p.ObservationNoise != 0 {
		opts = append(opts, WithObservationNoise(p.ObservationNoise))
	}
	if p.ProcessNoise != 0 {
		opts = append(opts, WithProcessNoise(p.ProcessNoise))
	}
	if p.InitialCovariance != 0 {
		opts = append(opts, WithInitialCovariance(p.InitialCovariance))
	}
	return opts
}
