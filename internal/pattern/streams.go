package pattern

import "latticelock/internal/chaos"

// streamStrategy is a single-stage chaotic strategy: a keystream drawn
// from one map family, reduced directly into the ink alphabet. These are
// the surviving simple algorithm variants, kept as presets behind the
// shared contract.
type streamStrategy struct {
	name string
}

func (s streamStrategy) Name() string { return s.name }

func (s streamStrategy) Generate(text string, length, numInks int) ([]int, error) {
	pr, sentinel, err := prepare(text, length, numInks)
	if err != nil {
		return nil, err
	}
	if sentinel != nil {
		return sentinel, nil
	}

	switch s.name {
	case "logistic":
		return chaos.LogisticKeystream(pr.seed, pr.numInks, length), nil
	case "tent":
		return chaos.TentKeystream(pr.seed, pr.numInks, length), nil
	case "catstream":
		return chaos.CatKeystream(pr.seed, pr.numInks, length), nil
	}
	return nil, ErrUnknownAlgorithm
}
