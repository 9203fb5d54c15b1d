// Package pipeline applies a fitted column transformer, exported to JSON, to
// one labeled record and produces the fixed-width vector the classifier reads.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/heartrisk/heartrisk/internal/model"
)

type boundStep struct {
	name   string
	step   Step
	idx    []int // schema positions of step.Columns()
	offset int
}

// Pipeline is safe for concurrent use; it is never modified after Load.
type Pipeline struct {
	schema model.FeatureSchema
	names  []string
	steps  []boundStep
	width  int
}

// Load decodes a pipeline document and binds it to schema.
func Load(data []byte, schema model.FeatureSchema, reg *Registry) (*Pipeline, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	return New(spec, schema, reg)
}

// New builds a Pipeline. Every step column must belong to schema.
func New(spec Spec, schema model.FeatureSchema, reg *Registry) (*Pipeline, error) {
	if err := validator.New().Struct(spec); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	if reg == nil {
		reg = GlobalRegistry
	}

	p := &Pipeline{schema: schema, names: schema.Names()}
	used := make(map[string]bool)
	for _, ss := range spec.Transformers {
		step, err := reg.Create(ss)
		if err != nil {
			return nil, err
		}
		if err := p.bind(ss.Name, step); err != nil {
			return nil, err
		}
		for _, col := range ss.Columns {
			used[col] = true
		}
	}

	remainder := spec.Remainder
	if remainder == "" {
		remainder = RemainderDrop
	}
	if remainder == RemainderPassthrough {
		rest := lo.Filter(p.names, func(name string, _ int) bool { return !used[name] })
		if len(rest) > 0 {
			if err := p.bind("remainder", &passthrough{columns: rest}); err != nil {
				return nil, err
			}
		}
	}

	if p.width == 0 {
		return nil, fmt.Errorf("invalid pipeline: output width is zero")
	}
	return p, nil
}

func (p *Pipeline) bind(name string, step Step) error {
	cols := step.Columns()
	idx := make([]int, len(cols))
	for i, col := range cols {
		pos := p.schema.Index(col)
		if pos < 0 {
			return fmt.Errorf("step %q: column %q is not in the feature schema", name, col)
		}
		idx[i] = pos
	}
	p.steps = append(p.steps, boundStep{name: name, step: step, idx: idx, offset: p.width})
	p.width += step.Width()
	return nil
}

// Width is the length of every vector Transform returns.
func (p *Pipeline) Width() int { return p.width }

// Transform maps a record, in schema order, to a float32 vector.
func (p *Pipeline) Transform(rec model.Record) ([]float32, error) {
	buf := make([]float64, p.width)
	for _, bs := range p.steps {
		values := make([]any, len(bs.idx))
		for i, pos := range bs.idx {
			v, err := p.valueAt(rec, pos)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		if err := bs.step.Apply(values, buf[bs.offset:bs.offset+bs.step.Width()]); err != nil {
			return nil, fmt.Errorf("%s: %w", bs.name, err)
		}
	}

	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = float32(v)
	}
	return out, nil
}

func (p *Pipeline) valueAt(rec model.Record, pos int) (any, error) {
	name := p.names[pos]
	if pos < len(rec) && rec[pos].Name == name {
		return rec[pos].Value, nil
	}
	v, ok := rec.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("columns are missing: {'%s'}", name)
	}
	return v, nil
}
