// Package classifier evaluates a sequential dense network exported from the
// trained Keras model.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// Spec is the JSON export of a sequential model.
type Spec struct {
	InputDim int         `json:"input_dim" validate:"gt=0"`
	Layers   []LayerSpec `json:"layers" validate:"required,min=1,dive"`
}

// LayerSpec holds one dense layer. Weights are indexed [input][unit], the
// layout Keras uses for Dense kernels.
type LayerSpec struct {
	Units      int         `json:"units" validate:"gt=0"`
	Activation string      `json:"activation" validate:"omitempty,oneof=relu sigmoid tanh linear softmax"`
	Weights    [][]float32 `json:"weights" validate:"required"`
	Bias       []float32   `json:"bias"`
}

type layer struct {
	in, out    int
	weights    []float32 // row-major [in][out]
	bias       []float32
	activation func([]float32)
}

// Network is immutable after Load and safe for concurrent use.
type Network struct {
	inputDim int
	layers   []layer
}

func Load(data []byte) (*Network, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return New(spec)
}

// New checks layer shapes and builds the network. The last layer must be a
// single sigmoid unit, the probability of the positive class.
func New(spec Spec) (*Network, error) {
	if err := validator.New().Struct(spec); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	n := &Network{inputDim: spec.InputDim}
	in := spec.InputDim
	for i, ls := range spec.Layers {
		if len(ls.Weights) != in {
			return nil, fmt.Errorf("layer %d: kernel has %d rows, expected %d", i, len(ls.Weights), in)
		}
		flat := make([]float32, 0, in*ls.Units)
		for r, row := range ls.Weights {
			if len(row) != ls.Units {
				return nil, fmt.Errorf("layer %d: kernel row %d has %d columns, expected %d", i, r, len(row), ls.Units)
			}
			flat = append(flat, row...)
		}
		bias := ls.Bias
		if bias == nil {
			bias = make([]float32, ls.Units)
		}
		if len(bias) != ls.Units {
			return nil, fmt.Errorf("layer %d: bias has %d entries, expected %d", i, len(bias), ls.Units)
		}
		act, err := activation(ls.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		n.layers = append(n.layers, layer{in: in, out: ls.Units, weights: flat, bias: bias, activation: act})
		in = ls.Units
	}
	if in != 1 {
		return nil, fmt.Errorf("output layer has %d units, expected 1", in)
	}
	if out := spec.Layers[len(spec.Layers)-1].Activation; out != "sigmoid" {
		return nil, fmt.Errorf("output layer activation is %q, expected \"sigmoid\"", out)
	}
	return n, nil
}

func (n *Network) InputDim() int { return n.inputDim }
func (n *Network) LayerCount() int { return len(n.layers) }

// Predict returns the positive-class probability for one input vector.
func (n *Network) Predict(x []float32) (float64, error) {
	if len(x) != n.inputDim {
		return 0, fmt.Errorf("input has %d features, but model expects shape (None, %d)", len(x), n.inputDim)
	}
	cur := x
	for _, l := range n.layers {
		next := make([]float32, l.out)
		copy(next, l.bias)
		for i := 0; i < l.in; i++ {
			xi := cur[i]
			if xi == 0 {
				continue
			}
			row := l.weights[i*l.out : (i+1)*l.out]
			for j, w := range row {
				next[j] += xi * w
			}
		}
		l.activation(next)
		cur = next
	}
	p := float64(cur[0])
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("model produced a non-finite output")
	}
	return p, nil
}
