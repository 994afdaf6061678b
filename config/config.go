// Package config loads and validates correlation job descriptions.
//
// A job is a YAML document naming every parameter of a run; nothing is
// defaulted, and validation reports the first missing or out-of-range
// field by name. The high_order section is optional and only required for
// C3 runs.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-seis/seis/spectral"
	"github.com/cwbudde/algo-seis/seis/station"
	"github.com/cwbudde/algo-seis/seis/trace"
	"github.com/cwbudde/algo-seis/xcorr"
	"github.com/cwbudde/algo-seis/xcorr/highorder"
)

// ErrMissingHighOrder is returned when a C3 run is requested without a
// high_order section.
var ErrMissingHighOrder = errors.New("config: high_order section required for C3 runs")

// HighOrder holds the C3-only parameters.
type HighOrder struct {
	// StartLag is the partition window offset in samples.
	StartLag int `yaml:"start_lag"`

	// WinLen is the partition window length in samples.
	WinLen int `yaml:"win_len"`

	// VirtualSources is the allow-list of virtual source stations.
	VirtualSources []string `yaml:"virtual_sources"`

	// ReceiverPairs is the allow-list of receiver pairs, order-insensitive.
	ReceiverPairs [][2]string `yaml:"receiver_pairs"`

	// MaxLag bounds the C3 output in seconds.
	MaxLag float64 `yaml:"max_lag"`
}

// Job is a complete correlation job description.
type Job struct {
	// InputDir holds the per-timestamp input containers.
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the per-timestamp output containers.
	OutputDir string `yaml:"output_dir"`

	// Timestamps lists the processing units, one container each.
	Timestamps []string `yaml:"timestamps"`

	// Stations lists the station identifiers to correlate.
	Stations []string `yaml:"stations"`

	// TimeUnit is the record length in seconds.
	TimeUnit float64 `yaml:"time_unit"`

	// SampleRate is the sampling rate in Hz.
	SampleRate float64 `yaml:"sample_rate"`

	// FreqMin and FreqMax bound the frequency band in Hz.
	FreqMin float64 `yaml:"freq_min"`
	FreqMax float64 `yaml:"freq_max"`

	// CorrWindow and CorrStep cut records into correlation windows, in
	// seconds.
	CorrWindow float64 `yaml:"corr_window"`
	CorrStep   float64 `yaml:"corr_step"`

	// TaperWidth is the cosine taper fraction per window, in (0, 0.5].
	TaperWidth float64 `yaml:"taper_width"`

	// Whiten enables spectral whitening inside the band.
	Whiten bool `yaml:"whiten"`

	// TimeNorm is the time-domain normalization: none, one-bit, or phase.
	TimeNorm string `yaml:"time_norm"`

	// SmoothHalfWin and WaterLevel parameterize the coherence and
	// deconvolution divisors.
	SmoothHalfWin int     `yaml:"smooth_half_win"`
	WaterLevel    float64 `yaml:"water_level"`

	// CorrTypes selects the pair classifications to correlate: any subset
	// of acorr, xchancorr, xcorr.
	CorrTypes []string `yaml:"corr_types"`

	// Method is the correlation strategy: cross-correlation, coherence,
	// or deconv.
	Method string `yaml:"method"`

	// MaxLag bounds the first-order output in seconds.
	MaxLag float64 `yaml:"max_lag"`

	// Stack collapses multi-window correlations before writing.
	Stack bool `yaml:"stack"`

	// StackRule is the stacking reduction: mean or robust.
	StackRule string `yaml:"stack_rule"`

	// HighOrder holds the C3 parameters; nil disables C3.
	HighOrder *HighOrder `yaml:"high_order"`
}

// Load reads and validates a job description from path.
func Load(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML job description.
func Parse(raw []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("config: failed to parse job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks every required field and reports the first violation.
func (j *Job) Validate() error {
	switch {
	case j.OutputDir == "":
		return errors.New("config: output_dir is required")
	case j.InputDir == "":
		return errors.New("config: input_dir is required")
	case len(j.Timestamps) == 0:
		return errors.New("config: timestamps is required")
	case len(j.Stations) == 0:
		return errors.New("config: stations is required")
	case j.TimeUnit <= 0:
		return errors.New("config: time_unit must be positive")
	case j.SampleRate <= 0:
		return errors.New("config: sample_rate must be positive")
	case j.FreqMin < 0 || j.FreqMin >= j.FreqMax:
		return errors.New("config: frequency band must satisfy 0 <= freq_min < freq_max")
	case j.CorrWindow <= 0 || j.CorrStep <= 0:
		return errors.New("config: corr_window and corr_step must be positive")
	case j.TaperWidth <= 0 || j.TaperWidth > 0.5:
		return errors.New("config: taper_width must be in (0, 0.5]")
	case j.SmoothHalfWin <= 0:
		return errors.New("config: smooth_half_win must be positive")
	case j.WaterLevel <= 0:
		return errors.New("config: water_level must be positive")
	case len(j.CorrTypes) == 0:
		return errors.New("config: corr_types is required")
	case j.MaxLag <= 0:
		return errors.New("config: max_lag must be positive")
	}

	for _, stn := range j.Stations {
		if _, err := station.Parse(stn); err != nil {
			return err
		}
	}
	for _, ct := range j.CorrTypes {
		if _, err := station.ParseKind(ct); err != nil {
			return err
		}
	}
	if _, err := spectral.ParseMethod(j.Method); err != nil {
		return err
	}
	if _, err := spectral.ParseStackRule(j.StackRule); err != nil {
		return err
	}
	if _, err := trace.ParseNormMode(j.TimeNorm); err != nil {
		return err
	}

	if h := j.HighOrder; h != nil {
		switch {
		case h.StartLag <= 0 || h.WinLen <= 0:
			return errors.New("config: high_order start_lag and win_len must be positive")
		case h.MaxLag <= 0:
			return errors.New("config: high_order max_lag must be positive")
		case len(h.VirtualSources) == 0:
			return errors.New("config: high_order virtual_sources is required")
		case len(h.ReceiverPairs) == 0:
			return errors.New("config: high_order receiver_pairs is required")
		}
	}

	return nil
}

// DriverConfig builds the first-order driver configuration.
func (j *Job) DriverConfig() (xcorr.Config, error) {
	method, err := spectral.ParseMethod(j.Method)
	if err != nil {
		return xcorr.Config{}, err
	}
	rule, err := spectral.ParseStackRule(j.StackRule)
	if err != nil {
		return xcorr.Config{}, err
	}
	norm, err := trace.ParseNormMode(j.TimeNorm)
	if err != nil {
		return xcorr.Config{}, err
	}

	kinds := make(map[station.PairKind]bool, len(j.CorrTypes))
	for _, ct := range j.CorrTypes {
		kind, err := station.ParseKind(ct)
		if err != nil {
			return xcorr.Config{}, err
		}
		kinds[kind] = true
	}

	return xcorr.Config{
		TimeUnit:   j.TimeUnit,
		SampleRate: j.SampleRate,
		Spectral: spectral.Config{
			Band:       spectral.Band{Min: j.FreqMin, Max: j.FreqMax},
			CorrWindow: j.CorrWindow,
			CorrStep:   j.CorrStep,
			Whiten:     j.Whiten,
			TimeNorm:   norm,
			TaperWidth: j.TaperWidth,
		},
		Corr: spectral.CorrConfig{
			Method:        method,
			MaxLag:        j.MaxLag,
			SmoothHalfWin: j.SmoothHalfWin,
			WaterLevel:    j.WaterLevel,
		},
		Kinds:     kinds,
		Stack:     j.Stack,
		StackRule: rule,
	}, nil
}

// HighOrderConfig builds the C3 driver configuration.
func (j *Job) HighOrderConfig() (highorder.Config, error) {
	if j.HighOrder == nil {
		return highorder.Config{}, ErrMissingHighOrder
	}

	rule, err := spectral.ParseStackRule(j.StackRule)
	if err != nil {
		return highorder.Config{}, err
	}

	return highorder.Config{
		StartLag:       j.HighOrder.StartLag,
		WinLen:         j.HighOrder.WinLen,
		VirtualSources: j.HighOrder.VirtualSources,
		ReceiverPairs:  j.HighOrder.ReceiverPairs,
		MaxLag:         j.HighOrder.MaxLag,
		Stack:          j.Stack,
		StackRule:      rule,
	}, nil
}
