package job

import (
	"fmt"
	"strings"
)

// StorePolicy governs how much of a computation's output is persisted as
// the job's result.
type StorePolicy string

const (
	// StoreFullResult persists the entire fitted artifact. Default.
	StoreFullResult StorePolicy = "full-result"
	// StoreScore persists only the scalar score on the training data.
	StoreScore StorePolicy = "score"
	// StorePrediction persists only the prediction vector for the data.
	StorePrediction StorePolicy = "prediction"
	// StoreNone persists nothing; every Run recomputes.
	StoreNone StorePolicy = "none"
)

// normalizePolicy lowercases the policy, maps the zero value to the
// default, and rejects anything unrecognized.
func normalizePolicy(p StorePolicy) (StorePolicy, error) {
	switch StorePolicy(strings.ToLower(string(p))) {
	case "":
		return StoreFullResult, nil
	case StoreFullResult:
		return StoreFullResult, nil
	case StoreScore:
		return StoreScore, nil
	case StorePrediction:
		return StorePrediction, nil
	case StoreNone:
		return StoreNone, nil
	default:
		return "", fmt.Errorf("%w: %q (must be one of %q, %q, %q, %q)",
			ErrInvalidStorePolicy, p, StoreFullResult, StoreScore, StorePrediction, StoreNone)
	}
}
