package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// IndicatorRegistry holds indicator results computed over one bar series.
// Results are looked up by typed Key.
type IndicatorRegistry interface {
	RegisterResult(result Result) error
	GetResult(key Key) (Result, error)
	GetOrCompute(indicator Indicator) (Result, error)
	ListKeys() []Key
	RemoveResult(key Key) error
}

// IndicatorRegistryV1 caches results for a single series and is safe for
// concurrent use, so parameter sweeps over the same data share work.
type IndicatorRegistryV1 struct {
	bars    []types.Bar
	results map[Key]Result
	mu      sync.RWMutex
}

// NewIndicatorRegistry creates a new indicator registry over bars.
func NewIndicatorRegistry(bars []types.Bar) IndicatorRegistry {
	return &IndicatorRegistryV1{
		bars:    bars,
		results: make(map[Key]Result),
		mu:      sync.RWMutex{},
	}
}

// RegisterResult adds a precomputed result to the registry.
func (r *IndicatorRegistryV1) RegisterResult(result Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.results[result.Key]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "RegisterResult: indicator %s already registered", result.Key)
	}

	if len(result.Value) != len(r.bars) {
		return errors.Newf(errors.ErrCodeIndicatorCalculation, "RegisterResult: indicator %s has %d values for %d bars", result.Key, len(result.Value), len(r.bars))
	}

	r.results[result.Key] = result

	return nil
}

// GetResult retrieves a result by key.
func (r *IndicatorRegistryV1) GetResult(key Key) (Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, exists := r.results[key]
	if !exists {
		return Result{}, errors.Newf(errors.ErrCodeIndicatorNotFound, "GetResult: indicator %s not found", key)
	}

	return result, nil
}

// GetOrCompute returns the cached result for the indicator's key, computing
// and storing it on first use.
func (r *IndicatorRegistryV1) GetOrCompute(indicator Indicator) (Result, error) {
	key := indicator.Key()

	r.mu.RLock()
	result, exists := r.results[key]
	r.mu.RUnlock()

	if exists {
		return result, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if result, exists := r.results[key]; exists {
		return result, nil
	}

	result, err := indicator.Compute(r.bars)
	if err != nil {
		return Result{}, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to compute %s", key)
	}

	r.results[key] = result

	return result, nil
}

// ListKeys returns every registered key in a stable order.
func (r *IndicatorRegistryV1) ListKeys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.results))
	for key := range r.results {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	return keys
}

// RemoveResult removes a result from the registry.
func (r *IndicatorRegistryV1) RemoveResult(key Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.results[key]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "RemoveResult: indicator %s not found", key)
	}

	delete(r.results, key)

	return nil
}
