package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	RemainderDrop        = "drop"
	RemainderPassthrough = "passthrough"
)

// Spec is the JSON document a fitted column transformer is exported to.
type Spec struct {
	Transformers []StepSpec `json:"transformers" validate:"required,min=1,dive"`
	Remainder    string     `json:"remainder" validate:"omitempty,oneof=drop passthrough"`
}

// StepSpec carries the fitted parameters of one step. Which fields are
// used depends on Kind.
type StepSpec struct {
	Name    string   `json:"name" validate:"required"`
	Kind    string   `json:"kind" validate:"required"`
	Columns []string `json:"columns" validate:"required,min=1,dive,required"`

	// standard_scaler, min_max_scaler
	Mean     []float64 `json:"mean,omitempty"`
	Scale    []float64 `json:"scale,omitempty"`
	Min      []float64 `json:"min,omitempty"`
	WithMean *bool     `json:"with_mean,omitempty"`
	WithStd  *bool     `json:"with_std,omitempty"`

	// one_hot, ordinal
	Categories    [][]any  `json:"categories,omitempty"`
	HandleUnknown string   `json:"handle_unknown,omitempty" validate:"omitempty,oneof=error ignore"`
	Drop          string   `json:"drop,omitempty" validate:"omitempty,oneof=first if_binary"`
	UnknownValue  *float64 `json:"unknown_value,omitempty"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// toFloat coerces a decoded JSON value to a finite number. Form posts send
// numbers as strings, so numeric strings are accepted.
func toFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("value is null")
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("could not convert %q to float", x.String())
		}
		f = n
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: '%s'", x)
		}
		f = n
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not a finite number", v)
	}
	return f, nil
}

// categoryKey maps a value to the text used for category matching, so that
// 1, 1.0 and "1" select the same category.
func categoryKey(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", fmt.Errorf("value is null")
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		f, err := toFloat(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
}
