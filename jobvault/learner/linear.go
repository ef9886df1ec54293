package learner

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearName is the registered name of the built-in linear classifier.
const LinearName = "linear"

func init() {
	Register(LinearName, func() Learner { return NewLinear() })
	gob.Register(&Linear{})
	gob.Register([]float64{})
}

// Linear is a deterministic binary classifier fitted by ridge-regularized
// least squares. Labels are expected in {0, 1}; internally they are mapped
// to {-1, +1} and predictions are thresholded at zero.
//
// Fields are exported so a fitted instance round-trips through gob.
type Linear struct {
	Ridge   float64
	Weights []float64
	Bias    float64
	Fitted  bool
}

// NewLinear returns an unfitted linear classifier with a small default
// ridge term to keep the normal equations well conditioned.
func NewLinear() *Linear {
	return &Linear{Ridge: 1e-8}
}

// Configure accepts the "ridge" hyperparameter. Numeric values survive a
// JSON round-trip as float64, so both int and float inputs are accepted.
func (l *Linear) Configure(params map[string]any) error {
	for key, val := range params {
		switch key {
		case "ridge":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("learner: ridge must be numeric, got %T", val)
			}
			if f < 0 {
				return fmt.Errorf("learner: ridge must be non-negative, got %v", f)
			}
			l.Ridge = f
		default:
			return fmt.Errorf("learner: unknown parameter %q for %s", key, LinearName)
		}
	}
	return nil
}

// Fit solves (XᵀX + λI) w = Xᵀy over the bias-augmented data matrix.
func (l *Linear) Fit(data mat.Matrix, labels []float64) error {
	r, c := data.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("learner: empty training data (%dx%d)", r, c)
	}
	if len(labels) != r {
		return fmt.Errorf("learner: %d rows but %d labels", r, len(labels))
	}

	aug := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			aug.Set(i, j, data.At(i, j))
		}
		aug.Set(i, c, 1)
	}

	y := mat.NewVecDense(r, nil)
	for i, v := range labels {
		if v > 0 {
			y.SetVec(i, 1)
		} else {
			y.SetVec(i, -1)
		}
	}

	var xtx mat.Dense
	xtx.Mul(aug.T(), aug)
	for i := 0; i < c+1; i++ {
		xtx.Set(i, i, xtx.At(i, i)+l.Ridge)
	}

	var xty mat.VecDense
	xty.MulVec(aug.T(), y)

	var w mat.VecDense
	if err := w.SolveVec(&xtx, &xty); err != nil {
		return fmt.Errorf("learner: solving normal equations: %w", err)
	}

	l.Weights = make([]float64, c)
	for j := 0; j < c; j++ {
		l.Weights[j] = w.AtVec(j)
	}
	l.Bias = w.AtVec(c)
	l.Fitted = true
	return nil
}

// Predict returns a {0, 1} label per row of data.
func (l *Linear) Predict(data mat.Matrix) []float64 {
	r, c := data.Dims()
	out := make([]float64, r)
	if !l.Fitted || c != len(l.Weights) {
		return out
	}
	for i := 0; i < r; i++ {
		s := l.Bias
		for j := 0; j < c; j++ {
			s += l.Weights[j] * data.At(i, j)
		}
		if s >= 0 {
			out[i] = 1
		}
	}
	return out
}

// Score returns the fraction of labels predicted correctly.
func (l *Linear) Score(data mat.Matrix, labels []float64) float64 {
	pred := l.Predict(data)
	if len(pred) == 0 || len(pred) != len(labels) {
		return 0
	}
	correct := 0
	for i, p := range pred {
		want := 0.0
		if labels[i] > 0 {
			want = 1
		}
		if p == want {
			correct++
		}
	}
	return float64(correct) / float64(len(pred))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return math.NaN(), false
}
