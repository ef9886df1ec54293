// Package learner defines the narrow contract the cache requires from the
// computation being cached, plus a registry that maps stable names to
// learner factories so a job can reconstruct its computation from its
// stored fingerprint.
package learner

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ErrNotRegistered is returned when a learner name has no registered factory.
var ErrNotRegistered = errors.New("learner: not registered")

// Learner is a stateful computation instance. Any type exposing these four
// operations is cacheable by a job.
type Learner interface {
	// Configure applies hyperparameters before fitting.
	Configure(params map[string]any) error
	// Fit trains the learner on the data and labels.
	Fit(data mat.Matrix, labels []float64) error
	// Score evaluates the fitted learner against the data and labels.
	Score(data mat.Matrix, labels []float64) float64
	// Predict returns predicted labels for the data.
	Predict(data mat.Matrix) []float64
}

// Factory produces a fresh, unfitted learner instance.
type Factory func() Learner

var (
	regMu     sync.RWMutex
	factories = make(map[string]Factory)
)

// Register binds a stable name to a learner factory. The name is the
// durable identity of the computation in stored fingerprints, so renaming
// a registered learner invalidates existing cache entries.
func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[name] = f
}

// New returns a fresh learner for the given registered name.
func New(name string) (Learner, error) {
	regMu.RLock()
	f, ok := factories[name]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return f(), nil
}

// Registered reports whether a factory exists for the given name.
func Registered(name string) bool {
	regMu.RLock()
	defer regMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Names returns all registered learner names, sorted.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
