package predictor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/heartrisk/heartrisk/internal/model"
)

// DecisionThreshold separates "High Risk" (score >= threshold) from "Low Risk".
const DecisionThreshold = 0.5

// Transformer turns a labeled record into the classifier's input vector.
type Transformer interface {
	Transform(rec model.Record) ([]float32, error)
}

// Classifier maps an input vector to the positive-class probability.
type Classifier interface {
	Predict(x []float32) (float64, error)
}

// ValidationError reports every schema feature absent from a request.
type ValidationError struct {
	Missing []string
}

// Error renders the names as a Python list literal, the format existing
// clients of /predict already display.
func (e *ValidationError) Error() string {
	quoted := lo.Map(e.Missing, func(name string, _ int) string { return pyQuote(name) })
	return "Missing features: [" + strings.Join(quoted, ", ") + "]"
}

// pyQuote quotes s the way Python's repr does: double quotes only when s
// holds a single quote and no double quote; backslash, the active quote and
// non-printable runes are escaped.
func pyQuote(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

// Predictor scores feature payloads. It holds only read-only state and is
// safe for concurrent use.
type Predictor struct {
	names       []string
	transformer Transformer
	classifier  Classifier
}

func New(schema model.FeatureSchema, transformer Transformer, classifier Classifier) (*Predictor, error) {
	if schema.Len() == 0 {
		return nil, errors.New("predictor: empty feature schema")
	}
	if transformer == nil || classifier == nil {
		return nil, errors.New("predictor: transformer and classifier are required")
	}
	return &Predictor{
		names:       schema.Names(),
		transformer: transformer,
		classifier:  classifier,
	}, nil
}

// Schema returns the ordered feature names requests must carry.
func (p *Predictor) Schema() []string {
	return append([]string(nil), p.names...)
}

// Predict validates payload against the schema, then transforms and
// classifies it. Keys outside the schema are ignored. A missing key yields a
// *ValidationError listing all missing names in schema order.
func (p *Predictor) Predict(ctx context.Context, payload map[string]any) (model.Prediction, error) {
	missing := lo.Filter(p.names, func(name string, _ int) bool {
		_, ok := payload[name]
		return !ok
	})
	if len(missing) > 0 {
		return model.Prediction{}, &ValidationError{Missing: missing}
	}

	if err := ctx.Err(); err != nil {
		return model.Prediction{}, err
	}

	rec := make(model.Record, len(p.names))
	for i, name := range p.names {
		rec[i] = model.Field{Name: name, Value: payload[name]}
	}

	x, err := p.transformer.Transform(rec)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("preprocess: %w", err)
	}
	score, err := p.classifier.Predict(x)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("predict: %w", err)
	}

	return model.Prediction{RiskScore: score, Label: Label(score)}, nil
}

// Label applies the decision threshold.
func Label(score float64) model.RiskLabel {
	if score >= DecisionThreshold {
		return model.HighRisk
	}
	return model.LowRisk
}
