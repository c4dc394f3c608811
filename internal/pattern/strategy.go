// Package pattern generates deterministic chaotic ink-ID patterns from
// batch codes and builds the signed metadata that travels with them.
//
// A Strategy maps (text, length, numInks) to a flat row-major sequence of
// ink IDs. All strategies share one contract: deterministic for the same
// inputs, output values in [0,numInks), length must be a perfect square.
// The historical algorithm variants collapse into named presets behind
// the registry rather than separate code paths.
package pattern

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"latticelock/internal/profile"
	"latticelock/internal/seed"
)

// DefaultAlgorithm is the strategy used when no name is configured.
const DefaultAlgorithm = "multistage"

// Errors
var (
	ErrBadLength        = errors.New("pattern: length must be the square of a grid size >= 2")
	ErrUnknownAlgorithm = errors.New("pattern: unknown algorithm")
)

// Strategy is one pattern generation algorithm.
type Strategy interface {
	// Name returns the registry name of this strategy.
	Name() string

	// Generate produces the ink-ID sequence for text. length must be a
	// perfect square; numInks outside [2,10] is clamped. Empty text
	// yields the sentinel pattern: length copies of numInks-1.
	Generate(text string, length, numInks int) ([]int, error)
}

var registry = map[string]Strategy{
	"multistage": multiStage{},
	"logistic":   streamStrategy{name: "logistic"},
	"tent":       streamStrategy{name: "tent"},
	"catstream":  streamStrategy{name: "catstream"},
}

// Lookup returns the strategy registered under name.
func Lookup(name string) (Strategy, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return s, nil
}

// Names returns all registered strategy names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// prepared holds the normalized inputs shared by every strategy.
type prepared struct {
	size    int
	numInks int
	seed    *big.Int
}

// prepare validates length, clamps the ink count, and derives the seed.
// When text is empty it returns the sentinel pattern instead, and the
// strategy short-circuits.
func prepare(text string, length, numInks int) (*prepared, []int, error) {
	size := int(math.Round(math.Sqrt(float64(length))))
	if size < 2 || size*size != length {
		return nil, nil, fmt.Errorf("%w: got %d", ErrBadLength, length)
	}

	inks := profile.ClampInks(numInks)

	if text == "" {
		sentinel := make([]int, length)
		for i := range sentinel {
			sentinel[i] = inks - 1
		}
		return nil, sentinel, nil
	}

	return &prepared{size: size, numInks: inks, seed: seed.Derive(text)}, nil, nil
}
