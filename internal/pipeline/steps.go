package pipeline

import (
	"fmt"
)

// Step is one fitted transformer. Apply receives the values of Columns(), in
// that order, and writes exactly Width() numbers to out.
type Step interface {
	Columns() []string
	Width() int
	Apply(values []any, out []float64) error
}

func init() {
	GlobalRegistry.Register(standardScalerFactory{})
	GlobalRegistry.Register(minMaxScalerFactory{})
	GlobalRegistry.Register(oneHotFactory{})
	GlobalRegistry.Register(ordinalFactory{})
	GlobalRegistry.Register(passthroughFactory{})
	GlobalRegistry.Register(dropFactory{})
}

func checkLen(spec StepSpec, field string, got int) error {
	if got != len(spec.Columns) {
		return fmt.Errorf("step %q: %s has %d entries for %d columns", spec.Name, field, got, len(spec.Columns))
	}
	return nil
}

// standard_scaler

type standardScalerFactory struct{}

func (standardScalerFactory) Kind() string { return "standard_scaler" }

func (standardScalerFactory) Create(spec StepSpec) (Step, error) {
	s := &standardScaler{
		columns:  spec.Columns,
		withMean: boolOr(spec.WithMean, true),
		withStd:  boolOr(spec.WithStd, true),
	}
	if s.withMean {
		if err := checkLen(spec, "mean", len(spec.Mean)); err != nil {
			return nil, err
		}
		s.mean = spec.Mean
	}
	if s.withStd {
		if err := checkLen(spec, "scale", len(spec.Scale)); err != nil {
			return nil, err
		}
		s.scale = make([]float64, len(spec.Scale))
		for i, v := range spec.Scale {
			// zero variance columns are left unscaled
			if v == 0 {
				v = 1
			}
			s.scale[i] = v
		}
	}
	return s, nil
}

type standardScaler struct {
	columns  []string
	mean     []float64
	scale    []float64
	withMean bool
	withStd  bool
}

func (s *standardScaler) Columns() []string { return s.columns }
func (s *standardScaler) Width() int { return len(s.columns) }

func (s *standardScaler) Apply(values []any, out []float64) error {
	for i, v := range values {
		x, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", s.columns[i], err)
		}
		if s.withMean {
			x -= s.mean[i]
		}
		if s.withStd {
			x /= s.scale[i]
		}
		out[i] = x
	}
	return nil
}

// min_max_scaler, stored as the fitted min_ and scale_ attributes

type minMaxScalerFactory struct{}

func (minMaxScalerFactory) Kind() string { return "min_max_scaler" }

func (minMaxScalerFactory) Create(spec StepSpec) (Step, error) {
	if err := checkLen(spec, "min", len(spec.Min)); err != nil {
		return nil, err
	}
	if err := checkLen(spec, "scale", len(spec.Scale)); err != nil {
		return nil, err
	}
	return &minMaxScaler{columns: spec.Columns, min: spec.Min, scale: spec.Scale}, nil
}

type minMaxScaler struct {
	columns []string
	min     []float64
	scale   []float64
}

func (s *minMaxScaler) Columns() []string { return s.columns }
func (s *minMaxScaler) Width() int { return len(s.columns) }

func (s *minMaxScaler) Apply(values []any, out []float64) error {
	for i, v := range values {
		x, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", s.columns[i], err)
		}
		out[i] = x*s.scale[i] + s.min[i]
	}
	return nil
}

// one_hot

type oneHotFactory struct{}

func (oneHotFactory) Kind() string { return "one_hot" }

func (oneHotFactory) Create(spec StepSpec) (Step, error) {
	if err := checkLen(spec, "categories", len(spec.Categories)); err != nil {
		return nil, err
	}
	enc := &oneHot{
		columns:       spec.Columns,
		ignoreUnknown: spec.HandleUnknown == "ignore",
		lookup:        make([]map[string]int, len(spec.Columns)),
		dropped:       make([]int, len(spec.Columns)),
		offsets:       make([]int, len(spec.Columns)),
	}
	for j, cats := range spec.Categories {
		if len(cats) == 0 {
			return nil, fmt.Errorf("step %q: column %q has no categories", spec.Name, spec.Columns[j])
		}
		lookup := make(map[string]int, len(cats))
		for pos, c := range cats {
			key, err := categoryKey(c)
			if err != nil {
				return nil, fmt.Errorf("step %q: column %q category %d: %w", spec.Name, spec.Columns[j], pos, err)
			}
			if _, dup := lookup[key]; dup {
				return nil, fmt.Errorf("step %q: column %q has duplicate category %q", spec.Name, spec.Columns[j], key)
			}
			lookup[key] = pos
		}
		enc.lookup[j] = lookup

		enc.dropped[j] = -1
		switch {
		case spec.Drop == "first":
			enc.dropped[j] = 0
		case spec.Drop == "if_binary" && len(cats) == 2:
			enc.dropped[j] = 0
		}

		enc.offsets[j] = enc.width
		enc.width += len(cats)
		if enc.dropped[j] >= 0 {
			enc.width--
		}
	}
	return enc, nil
}

type oneHot struct {
	columns       []string
	lookup        []map[string]int
	dropped       []int
	offsets       []int
	width         int
	ignoreUnknown bool
}

func (e *oneHot) Columns() []string { return e.columns }
func (e *oneHot) Width() int { return e.width }

func (e *oneHot) Apply(values []any, out []float64) error {
	for i := range out {
		out[i] = 0
	}
	for j, v := range values {
		key, err := categoryKey(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", e.columns[j], err)
		}
		pos, ok := e.lookup[j][key]
		if !ok {
			if e.ignoreUnknown {
				continue
			}
			return fmt.Errorf("found unknown category '%s' in column %q during transform", key, e.columns[j])
		}
		switch d := e.dropped[j]; {
		case d < 0:
		case pos == d:
			continue
		case pos > d:
			pos--
		}
		out[e.offsets[j]+pos] = 1
	}
	return nil
}

// ordinal

type ordinalFactory struct{}

func (ordinalFactory) Kind() string { return "ordinal" }

func (ordinalFactory) Create(spec StepSpec) (Step, error) {
	if err := checkLen(spec, "categories", len(spec.Categories)); err != nil {
		return nil, err
	}
	enc := &ordinal{
		columns:      spec.Columns,
		lookup:       make([]map[string]int, len(spec.Columns)),
		unknownValue: spec.UnknownValue,
	}
	for j, cats := range spec.Categories {
		lookup := make(map[string]int, len(cats))
		for pos, c := range cats {
			key, err := categoryKey(c)
			if err != nil {
				return nil, fmt.Errorf("step %q: column %q category %d: %w", spec.Name, spec.Columns[j], pos, err)
			}
			lookup[key] = pos
		}
		enc.lookup[j] = lookup
	}
	return enc, nil
}

type ordinal struct {
	columns      []string
	lookup       []map[string]int
	unknownValue *float64
}

func (e *ordinal) Columns() []string { return e.columns }
func (e *ordinal) Width() int { return len(e.columns) }

func (e *ordinal) Apply(values []any, out []float64) error {
	for j, v := range values {
		key, err := categoryKey(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", e.columns[j], err)
		}
		pos, ok := e.lookup[j][key]
		if !ok {
			if e.unknownValue == nil {
				return fmt.Errorf("found unknown category '%s' in column %q during transform", key, e.columns[j])
			}
			out[j] = *e.unknownValue
			continue
		}
		out[j] = float64(pos)
	}
	return nil
}

// passthrough

type passthroughFactory struct{}

func (passthroughFactory) Kind() string { return "passthrough" }

func (passthroughFactory) Create(spec StepSpec) (Step, error) {
	return &passthrough{columns: spec.Columns}, nil
}

type passthrough struct {
	columns []string
}

func (p *passthrough) Columns() []string { return p.columns }
func (p *passthrough) Width() int { return len(p.columns) }

func (p *passthrough) Apply(values []any, out []float64) error {
	for i, v := range values {
		x, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", p.columns[i], err)
		}
		out[i] = x
	}
	return nil
}

// drop

type dropFactory struct{}

func (dropFactory) Kind() string { return "drop" }

func (dropFactory) Create(spec StepSpec) (Step, error) {
	return &drop{columns: spec.Columns}, nil
}

type drop struct {
	columns []string
}

func (d *drop) Columns() []string { return d.columns }
func (d *drop) Width() int { return 0 }
func (d *drop) Apply([]any, []float64) error { return nil }
