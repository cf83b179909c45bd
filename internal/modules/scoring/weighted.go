package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/milanradisavljevic/stratbench/internal/modules/history"
)

// Weighted combines named sub-score components with caller-supplied weights,
// so new strategies can be declared in configuration without touching the
// simulator.
type Weighted struct {
	name    string
	weights map[string]float64
}

// NewWeighted builds a custom strategy from a component weight map. Weights
// must reference known components and sum to 1.
func NewWeighted(name string, weights map[string]float64) (*Weighted, error) {
	if name == "" {
		return nil, fmt.Errorf("weighted strategy needs a name")
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("weighted strategy %s has no components", name)
	}

	sum := 0.0
	for component, w := range weights {
		if _, ok := components[component]; !ok {
			return nil, fmt.Errorf("unknown component %q in strategy %s", component, name)
		}
		if w < 0 {
			return nil, fmt.Errorf("negative weight for %q in strategy %s", component, name)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("weights of strategy %s sum to %v, want 1", name, sum)
	}

	copied := make(map[string]float64, len(weights))
	for k, v := range weights {
		copied[k] = v
	}
	return &Weighted{name: name, weights: copied}, nil
}

func (w *Weighted) Name() string { return w.name }

func (w *Weighted) Description() string {
	names := make([]string, 0, len(w.weights))
	for component := range w.weights {
		names = append(names, component)
	}
	sort.Strings(names)
	return "Custom weighted blend of " + strings.Join(names, ", ")
}

func (w *Weighted) Weights() map[string]float64 {
	copied := make(map[string]float64, len(w.weights))
	for k, v := range w.weights {
		copied[k] = v
	}
	return copied
}

// Score applies the weight map over the component registry. Any component
// that cannot be computed excludes the symbol, matching the reference
// strategies' behavior.
func (w *Weighted) Score(s *history.Series, asOf int) (float64, bool) {
	if asOf < MinHistoryDays || asOf >= s.Len() {
		return 0, false
	}
	closes := s.ClosesThrough(asOf)

	total := 0.0
	for component, weight := range w.weights {
		value, ok := components[component](closes)
		if !ok {
			return 0, false
		}
		total += weight * value
	}
	return total, true
}
